// Package dataset parses the MovieLens 100K distribution files. The files
// are Latin-1 encoded and delimiter-separated: u.user and u.item use pipes,
// u.data uses tabs. Malformed lines are reported and skipped so one bad
// record never aborts a load.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/cinelens/cinelens-engine/pkg/apperrors"
	"github.com/cinelens/cinelens-engine/pkg/models"
)

// itemFieldCount is the column count of u.item: id, title, release date,
// video release date, imdb url, then 19 genre flags ("unknown" first).
const itemFieldCount = 5 + 1 + models.GenreCount

// LineError records a skipped input line.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ParseUsers reads u.user: user_id|age|gender|occupation|zip_code.
func ParseUsers(r io.Reader) ([]*models.User, []LineError) {
	var users []*models.User
	var errs []LineError

	scanLines(r, func(lineNo int, line string) error {
		fields := strings.Split(line, "|")
		if len(fields) != 5 {
			return fmt.Errorf("%w: expected 5 fields, got %d", apperrors.ErrMalformedRecord, len(fields))
		}

		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("user id %q: %w", fields[0], err)
		}
		age, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("age %q: %w", fields[1], err)
		}

		users = append(users, &models.User{
			ID:         id,
			Age:        age,
			Gender:     fields[2],
			Occupation: fields[3],
			ZipCode:    fields[4],
		})
		return nil
	}, &errs)

	return users, errs
}

// ParseMovies reads u.item. The leading "unknown" genre flag is dropped;
// the remaining 18 flags map onto the canonical genre order.
func ParseMovies(r io.Reader) ([]*models.Movie, []LineError) {
	var movies []*models.Movie
	var errs []LineError

	scanLines(r, func(lineNo int, line string) error {
		fields := strings.Split(line, "|")
		if len(fields) != itemFieldCount {
			return fmt.Errorf("%w: expected %d fields, got %d", apperrors.ErrMalformedRecord, itemFieldCount, len(fields))
		}

		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("movie id %q: %w", fields[0], err)
		}

		m := &models.Movie{
			ID:          id,
			Title:       fields[1],
			ReleaseDate: parseReleaseDate(fields[2]),
			IMDBURL:     fields[4],
		}
		// fields[5] is the "unknown" flag, excluded from the genre set.
		for i := 0; i < models.GenreCount; i++ {
			flag, err := strconv.Atoi(fields[6+i])
			if err != nil {
				return fmt.Errorf("genre flag %d %q: %w", i, fields[6+i], err)
			}
			m.Genres[i] = flag != 0
		}

		movies = append(movies, m)
		return nil
	}, &errs)

	return movies, errs
}

// ParseRatings reads u.data: user_id, movie_id, rating, unix timestamp,
// tab-separated.
func ParseRatings(r io.Reader) ([]*models.Rating, []LineError) {
	var ratings []*models.Rating
	var errs []LineError

	scanLines(r, func(lineNo int, line string) error {
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return fmt.Errorf("%w: expected 4 fields, got %d", apperrors.ErrMalformedRecord, len(fields))
		}

		userID, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("user id %q: %w", fields[0], err)
		}
		movieID, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("movie id %q: %w", fields[1], err)
		}
		rating, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("rating %q: %w", fields[2], err)
		}
		if rating < 1 || rating > 5 {
			return fmt.Errorf("rating %d outside 1-5 scale", rating)
		}
		ts, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", fields[3], err)
		}

		ratings = append(ratings, &models.Rating{
			UserID:  userID,
			MovieID: movieID,
			Rating:  rating,
			RatedAt: time.Unix(ts, 0).UTC(),
		})
		return nil
	}, &errs)

	return ratings, errs
}

// parseReleaseDate handles the distribution's "02-Jan-1995" format with a
// year-only fallback; anything else means no release date.
func parseReleaseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse("02-Jan-2006", s); err == nil {
		return &t
	}
	if t, err := time.Parse("2006", s); err == nil {
		return &t
	}
	return nil
}

// scanLines decodes Latin-1 input line by line, collecting per-line
// failures without stopping.
func scanLines(r io.Reader, handle func(lineNo int, line string) error, errs *[]LineError) {
	scanner := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(r))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := handle(lineNo, line); err != nil {
			*errs = append(*errs, LineError{Line: lineNo, Err: err})
		}
	}
	if err := scanner.Err(); err != nil {
		*errs = append(*errs, LineError{Line: lineNo + 1, Err: fmt.Errorf("read: %w", err)})
	}
}
