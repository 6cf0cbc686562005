// Package scoring validates judge score values and aggregates persisted
// scores into dancer rankings.
//
// Every function here is pure. The same rules back both the server's
// submission path and the judge client's pre-submit gating, so a score set
// accepted on one side is never rejected on the other.
package scoring

import (
	"math"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/models"
)

const (
	MinScore  = 1.0
	MaxScore  = 5.0
	ScoreStep = 0.5
)

// IsValidScore reports whether v lies in [1,5] on a half-point step
func IsValidScore(v float64) bool {
	if v < MinScore || v > MaxScore {
		return false
	}
	doubled := v * 2
	return doubled == math.Trunc(doubled)
}

// IsScoreComplete reports whether every category carries a value
func IsScoreComplete(s models.ScoreValues) bool {
	return CountScoredCategories(s) == len(models.Categories)
}

// CountScoredCategories returns how many categories carry a value
func CountScoredCategories(s models.ScoreValues) int {
	n := 0
	for _, c := range models.Categories {
		if s.Get(c) != nil {
			n++
		}
	}
	return n
}

// ValidateValues checks every present category. Unset categories are allowed.
func ValidateValues(s models.ScoreValues) error {
	for _, c := range models.Categories {
		v := s.Get(c)
		if v != nil && !IsValidScore(*v) {
			return errors.Validationf("Invalid score for %s: must be 1-5 in 0.5 increments", c)
		}
	}
	return nil
}
