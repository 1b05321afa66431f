package services

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinelens/cinelens-engine/pkg/apperrors"
	"github.com/cinelens/cinelens-engine/pkg/config"
)

func writeDataset(t *testing.T, users, movies, ratings string) *config.DatasetConfig {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"u.user": users,
		"u.item": movies,
		"u.data": ratings,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return &config.DatasetConfig{Dir: dir}
}

func itemLine(id int, title string, genreFlags string) string {
	fields := []string{
		strconv.Itoa(id), title, "01-Jan-1995", "", "http://example.test",
		"0",
	}
	fields = append(fields, strings.Split(genreFlags, "|")...)
	return strings.Join(fields, "|")
}

func TestLoadReplacesAllTables(t *testing.T) {
	cfg := writeDataset(t,
		"1|24|M|technician|85711\n2|53|F|other|94043\n",
		itemLine(1, "Toy Story (1995)", "0|0|1|1|1|0|0|0|0|0|0|0|0|0|0|0|0|0")+"\n",
		"1\t1\t5\t874965758\n2\t1\t3\t876893171\n",
	)

	movieRepo := newFakeMovieRepo()
	userRepo := newFakeUserRepo()
	ratingRepo := newFakeRatingRepo()
	svc := NewLoaderService(cfg, movieRepo, userRepo, ratingRepo, zap.NewNop())

	result, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Users)
	assert.Equal(t, int64(1), result.Movies)
	assert.Equal(t, int64(2), result.Ratings)
	assert.Equal(t, 0, result.SkippedLines)

	require.Len(t, movieRepo.movies, 1)
	assert.Equal(t, "Toy Story (1995)", movieRepo.movies[0].Title)
	assert.True(t, movieRepo.movies[0].Genres[2])  // animation
	assert.False(t, movieRepo.movies[0].Genres[0]) // action
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	cfg := writeDataset(t,
		"1|24|M|technician|85711\nnot-a-user-record\n",
		itemLine(1, "Toy Story (1995)", "0|0|1|1|1|0|0|0|0|0|0|0|0|0|0|0|0|0")+"\n",
		"1\t1\t9\t874965758\n1\t1\t4\t874965758\n",
	)

	svc := NewLoaderService(cfg, newFakeMovieRepo(), newFakeUserRepo(), newFakeRatingRepo(), zap.NewNop())

	result, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Users)
	assert.Equal(t, int64(1), result.Ratings)
	assert.Equal(t, 2, result.SkippedLines)
}

func TestLoadRequiresAllDatasetFiles(t *testing.T) {
	cfg := writeDataset(t, "1|24|M|technician|85711\n", "", "")
	require.NoError(t, os.Remove(cfg.RatingsFile()))

	svc := NewLoaderService(cfg, newFakeMovieRepo(), newFakeUserRepo(), newFakeRatingRepo(), zap.NewNop())

	_, err := svc.Load(context.Background())
	require.ErrorIs(t, err, apperrors.ErrDatasetFileMissing)
}
