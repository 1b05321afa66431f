package embedding

import (
	"github.com/cinelens/cinelens-engine/pkg/models"
)

// Neutral defaults substituted when a user's rating aggregates are
// undefined. 2.5 is the midpoint of the 1-5 rating scale.
const neutralRating = 2.5

// OccupationIndex is an immutable snapshot mapping occupation strings to
// one-hot slot positions. It is computed once per batch run, before any
// user embedding is built, and passed into every build. Index positions are
// assigned in first-seen order over the supplied occupations; only the
// first OccupationSlots distinct occupations receive a slot, the rest get
// no indicator. Reordering the input population therefore reassigns slot
// meanings, which is why callers derive the input from an ID-ordered user
// sweep or pin the list in configuration.
type OccupationIndex struct {
	slots map[string]int
	order []string
}

// NewOccupationIndex builds a snapshot from occupations in first-seen
// order. Empty strings and duplicates are skipped.
func NewOccupationIndex(occupations []string) *OccupationIndex {
	idx := &OccupationIndex{slots: make(map[string]int)}
	for _, occ := range occupations {
		if occ == "" {
			continue
		}
		if _, seen := idx.slots[occ]; seen {
			continue
		}
		idx.slots[occ] = len(idx.order)
		idx.order = append(idx.order, occ)
	}
	return idx
}

// OccupationIndexFromUsers derives the snapshot from a user population,
// preserving the given user order.
func OccupationIndexFromUsers(users []*models.User) *OccupationIndex {
	occupations := make([]string, 0, len(users))
	for _, u := range users {
		occupations = append(occupations, u.Occupation)
	}
	return NewOccupationIndex(occupations)
}

// Slot returns the one-hot position for an occupation. ok is false for
// unseen occupations and for occupations past the capacity ceiling.
func (idx *OccupationIndex) Slot(occupation string) (int, bool) {
	slot, ok := idx.slots[occupation]
	if !ok || slot >= OccupationSlots {
		return 0, false
	}
	return slot, true
}

// Occupations returns the distinct occupations in slot order, including
// any past the capacity ceiling.
func (idx *OccupationIndex) Occupations() []string {
	out := make([]string, len(idx.order))
	copy(out, idx.order)
	return out
}

// Len returns the number of distinct occupations observed.
func (idx *OccupationIndex) Len() int { return len(idx.order) }

// UserBuilder maps a user record and their rating aggregates to a
// TargetDim embedding. Layout, in order: demographics (2), occupation
// one-hot (OccupationSlots), rating behavior (3), genre preferences
// (GenreCount); the remaining positions are zero-padded reserve capacity.
type UserBuilder struct {
	occupations *OccupationIndex
}

// NewUserBuilder creates a user feature builder bound to an occupation
// snapshot. The snapshot must cover the population being swept.
func NewUserBuilder(occupations *OccupationIndex) *UserBuilder {
	return &UserBuilder{occupations: occupations}
}

// Build returns the user's embedding. stats may be nil for a user with no
// ratings; all undefined aggregates default to neutral values, never to
// missing. The result always has exactly TargetDim elements.
func (b *UserBuilder) Build(user *models.User, stats *models.UserRatingStats) []float64 {
	demographic := []float64{
		// Reference range 18-73; values outside it land outside [0,1],
		// which is accepted.
		(float64(user.Age) - 18) / (73 - 18),
		genderBit(user.Gender),
	}

	occupation := make([]float64, OccupationSlots)
	if slot, ok := b.occupations.Slot(user.Occupation); ok {
		occupation[slot] = 1.0
	}

	behavior := b.ratingBehavior(stats)
	prefs := b.genrePreferences(stats)

	vec := Assemble(TargetDim, demographic, occupation, behavior, prefs)
	SanitizeFinite(vec)
	return vec
}

func genderBit(gender string) float64 {
	if gender == models.GenderMale {
		return 1.0
	}
	return 0.0
}

// ratingBehavior packs count, mean and stddev of the user's ratings. The
// count term is not capped, so prolific raters exceed 1.0.
func (b *UserBuilder) ratingBehavior(stats *models.UserRatingStats) []float64 {
	count := 0
	avg := neutralRating
	stddev := 0.0
	if stats != nil {
		count = stats.NumRatings
		if stats.AvgRating != nil {
			avg = *stats.AvgRating
		}
		if stats.Stddev != nil {
			stddev = *stats.Stddev
		}
	}
	return []float64{
		float64(count) / 100.0,
		scaleRating(avg),
		stddev / 2.0,
	}
}

// genrePreferences maps each per-genre mean rating from the 1-5 scale to
// 0-1, substituting the neutral midpoint for genres the user never rated.
func (b *UserBuilder) genrePreferences(stats *models.UserRatingStats) []float64 {
	prefs := make([]float64, GenreCount)
	for i := range prefs {
		v := neutralRating
		if stats != nil && stats.GenrePrefs[i] != nil {
			v = *stats.GenrePrefs[i]
		}
		prefs[i] = scaleRating(v)
	}
	return prefs
}

// scaleRating maps the 1-5 rating scale linearly onto 0-1.
func scaleRating(v float64) float64 {
	return (v - 1) / 4
}
