package scoring

import (
	"math"
	"testing"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/models"
)

func f(v float64) *float64 { return &v }

func fullScore(judgeID, dancerID string, v float64) models.Score {
	return models.Score{
		JudgeID:  judgeID,
		DancerID: dancerID,
		ScoreValues: models.ScoreValues{
			Technique: f(v), Musicality: f(v), Expression: f(v), Timing: f(v), Presentation: f(v),
		},
	}
}

func assertFloat(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: expected %v, got nil", name, want)
	}
	if math.Abs(*got-want) > 1e-9 {
		t.Errorf("%s: expected %v, got %v", name, want, *got)
	}
}

// =============================================================================
// Validator
// =============================================================================

func TestIsValidScore(t *testing.T) {
	tests := []struct {
		value float64
		want  bool
	}{
		{1, true},
		{1.5, true},
		{3, true},
		{4.5, true},
		{5, true},
		{1.2, false},
		{2.25, false},
		{0, false},
		{0.5, false},
		{5.5, false},
		{-1, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}

	for _, tt := range tests {
		if got := IsValidScore(tt.value); got != tt.want {
			t.Errorf("IsValidScore(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestIsScoreComplete(t *testing.T) {
	if !IsScoreComplete(fullScore("j", "d", 1).ScoreValues) {
		t.Error("expected full set of 1s to be complete")
	}

	partial := models.ScoreValues{Technique: f(3), Musicality: f(3), Expression: f(3), Timing: f(3)}
	if IsScoreComplete(partial) {
		t.Error("expected set missing presentation to be incomplete")
	}
	if IsScoreComplete(models.ScoreValues{}) {
		t.Error("expected empty set to be incomplete")
	}
}

func TestCountScoredCategories(t *testing.T) {
	if n := CountScoredCategories(models.ScoreValues{}); n != 0 {
		t.Errorf("expected 0, got %d", n)
	}
	if n := CountScoredCategories(models.ScoreValues{Timing: f(2), Expression: f(4.5)}); n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
	if n := CountScoredCategories(fullScore("j", "d", 5).ScoreValues); n != 5 {
		t.Errorf("expected 5, got %d", n)
	}
}

func TestValidateValues_AllowsPartialSets(t *testing.T) {
	if err := ValidateValues(models.ScoreValues{Technique: f(3.5)}); err != nil {
		t.Errorf("expected partial set to validate, got %v", err)
	}
}

func TestValidateValues_RejectsInvalidCategory(t *testing.T) {
	err := ValidateValues(models.ScoreValues{Technique: f(3), Timing: f(3.3)})

	if !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != "Invalid score for timing: must be 1-5 in 0.5 increments" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

// =============================================================================
// Olympic average
// =============================================================================

func TestOlympicAverage(t *testing.T) {
	if OlympicAverage(nil) != nil {
		t.Error("expected nil for no values")
	}
	assertFloat(t, "[10]", OlympicAverage([]float64{10}), 10)
	assertFloat(t, "[10,20]", OlympicAverage([]float64{10, 20}), 15)
	assertFloat(t, "[10,20,30]", OlympicAverage([]float64{10, 20, 30}), 20)
	assertFloat(t, "[5,10,10,10,100]", OlympicAverage([]float64{5, 10, 10, 10, 100}), 10)
}

func TestOlympicAverage_DropsOnlyOneOfTiedExtremes(t *testing.T) {
	// min 2 and max 8 each appear twice; one of each is kept
	assertFloat(t, "ties", OlympicAverage([]float64{8, 2, 2, 8}), 5)
}

func TestOlympicAverage_DoesNotReorderInput(t *testing.T) {
	values := []float64{30, 10, 20}
	OlympicAverage(values)

	if values[0] != 30 || values[1] != 10 || values[2] != 20 {
		t.Errorf("input slice was modified: %v", values)
	}
}

// =============================================================================
// Per-material results
// =============================================================================

func TestCalculateDancerResults_NoScores(t *testing.T) {
	r := CalculateDancerResults(models.Dancer{ID: "d1"}, nil)

	if r.TotalScore != nil || r.OlympicAverage != nil {
		t.Error("expected nil totals with no scores")
	}
	for _, c := range models.Categories {
		if r.CategoryAverages.Get(c) != nil {
			t.Errorf("expected nil average for %s", c)
		}
	}
	if r.JudgeCount != 0 || r.IsOlympicAverage {
		t.Errorf("expected judgeCount 0 and no olympic flag, got %d/%v", r.JudgeCount, r.IsOlympicAverage)
	}
}

func TestCalculateDancerResults_TwoFullJudges(t *testing.T) {
	scores := []models.Score{fullScore("a", "d1", 5), fullScore("b", "d1", 3)}

	r := CalculateDancerResults(models.Dancer{ID: "d1"}, scores)

	assertFloat(t, "technique", r.CategoryAverages.Technique, 4)
	assertFloat(t, "total", r.TotalScore, 20) // mean(25, 15)
	assertFloat(t, "olympic", r.OlympicAverage, 20)
	if r.JudgeCount != 2 || r.IsOlympicAverage {
		t.Errorf("expected 2 judges without trimming, got %d/%v", r.JudgeCount, r.IsOlympicAverage)
	}
}

func TestCalculateDancerResults_BothFullFives(t *testing.T) {
	scores := []models.Score{fullScore("a", "d1", 5), fullScore("b", "d1", 5)}

	r := CalculateDancerResults(models.Dancer{ID: "d1"}, scores)

	assertFloat(t, "total", r.TotalScore, 25)
}

func TestCalculateDancerResults_PartialScoresExcludedFromCategoryMean(t *testing.T) {
	scores := []models.Score{
		{JudgeID: "a", ScoreValues: models.ScoreValues{Technique: f(4), Timing: f(2)}},
		{JudgeID: "b", ScoreValues: models.ScoreValues{Technique: f(2)}},
		{JudgeID: "c"},
	}

	r := CalculateDancerResults(models.Dancer{ID: "d1"}, scores)

	assertFloat(t, "technique", r.CategoryAverages.Technique, 3)
	assertFloat(t, "timing", r.CategoryAverages.Timing, 2)
	if r.CategoryAverages.Musicality != nil {
		t.Error("expected nil musicality average")
	}
	// judge c scored nothing: counted as a judge, excluded from totals
	if r.JudgeCount != 3 || !r.IsOlympicAverage {
		t.Errorf("expected 3 judges flagged olympic, got %d/%v", r.JudgeCount, r.IsOlympicAverage)
	}
	assertFloat(t, "total", r.TotalScore, 4) // mean(6, 2)
	assertFloat(t, "olympic", r.OlympicAverage, 4)
}

func TestCalculateDancerResults_ThreeJudgesTrimmed(t *testing.T) {
	scores := []models.Score{fullScore("a", "d1", 1), fullScore("b", "d1", 3), fullScore("c", "d1", 5)}

	r := CalculateDancerResults(models.Dancer{ID: "d1"}, scores)

	assertFloat(t, "olympic", r.OlympicAverage, 15)
	assertFloat(t, "total", r.TotalScore, 15)
	if !r.IsOlympicAverage {
		t.Error("expected olympic flag with 3 judges")
	}
}

func TestCalculateMaterialResults_RanksByOlympicThenNumber(t *testing.T) {
	dancers := []models.Dancer{
		{ID: "d1", DancerNumber: 1},
		{ID: "d2", DancerNumber: 2},
		{ID: "d3", DancerNumber: 3},
		{ID: "d4", DancerNumber: 4},
	}
	scores := []models.Score{
		fullScore("a", "d1", 3),
		fullScore("a", "d2", 4),
		fullScore("a", "d4", 3),
	}

	results := CalculateMaterialResults(dancers, scores)

	order := []string{results[0].Dancer.ID, results[1].Dancer.ID, results[2].Dancer.ID, results[3].Dancer.ID}
	want := []string{"d2", "d1", "d4", "d3"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
	if results[3].OlympicAverage != nil {
		t.Error("unscored dancer should have nil olympic average")
	}
}

// =============================================================================
// Cross-material aggregation
// =============================================================================

func TestCalculateAggregatedResults_CrossMaterialRollup(t *testing.T) {
	dancer := models.Dancer{ID: "d1", DancerNumber: 1}
	groups := map[string]MaterialRef{
		"g-ballet": {ID: "m-ballet", Name: "Ballet"},
		"g-jazz":   {ID: "m-jazz", Name: "Jazz"},
	}
	scores := []models.Score{
		fullScore("a", "d1", 4),   // Ballet, A total 20
		fullScore("b", "d1", 3.5), // Ballet, B total 17.5
		fullScore("a", "d1", 4.5), // Jazz, A total 22.5
		fullScore("z", "d1", 5),   // template row, ignored
	}
	scores[0].GroupID = "g-ballet"
	scores[1].GroupID = "g-ballet"
	scores[2].GroupID = "g-jazz"
	scores[3].GroupID = "g-template"

	results := CalculateAggregatedResults([]models.Dancer{dancer}, scores, groups)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]

	if len(r.MaterialResults) != 2 {
		t.Fatalf("expected 2 material results, got %d", len(r.MaterialResults))
	}
	if r.MaterialResults[0].MaterialName != "Ballet" || r.MaterialResults[1].MaterialName != "Jazz" {
		t.Errorf("expected materials sorted by name, got %s, %s", r.MaterialResults[0].MaterialName, r.MaterialResults[1].MaterialName)
	}
	assertFloat(t, "ballet total", r.MaterialResults[0].TotalScore, 18.75)
	assertFloat(t, "jazz total", r.MaterialResults[1].TotalScore, 22.5)

	// sum of per-material means, not a mean
	assertFloat(t, "total", r.TotalScore, 41.25)
	assertFloat(t, "technique total", r.CategoryTotals.Technique, 3.75+4.5)

	// judge sums across materials: A = 20 + 22.5, B = 17.5
	assertFloat(t, "olympic", r.OlympicAverage, (42.5+17.5)/2)
	if r.JudgeCount != 2 || r.IsOlympicAverage {
		t.Errorf("expected 2 judges without trimming, got %d/%v", r.JudgeCount, r.IsOlympicAverage)
	}
}

func TestCalculateAggregatedResults_WorkedExample(t *testing.T) {
	groups := map[string]MaterialRef{
		"g1": {ID: "m1", Name: "Ballet"},
		"g2": {ID: "m2", Name: "Jazz"},
	}
	scores := []models.Score{
		{GroupID: "g1", JudgeID: "A", DancerID: "d", ScoreValues: models.ScoreValues{Technique: f(5), Musicality: f(5), Expression: f(5), Timing: f(5)}},
		{GroupID: "g2", JudgeID: "A", DancerID: "d", ScoreValues: models.ScoreValues{Technique: f(5), Musicality: f(5), Expression: f(5), Timing: f(5), Presentation: f(2)}},
		{GroupID: "g1", JudgeID: "B", DancerID: "d", ScoreValues: models.ScoreValues{Technique: f(5), Musicality: f(5), Expression: f(4), Timing: f(4)}},
	}

	r := CalculateAggregatedResults([]models.Dancer{{ID: "d"}}, scores, groups)[0]

	assertFloat(t, "total", r.TotalScore, 19+22)
	assertFloat(t, "olympic", r.OlympicAverage, 30)
}

func TestCalculateAggregatedResults_NullsPropagate(t *testing.T) {
	groups := map[string]MaterialRef{"g1": {ID: "m1", Name: "Tap"}}

	results := CalculateAggregatedResults([]models.Dancer{{ID: "d1"}}, nil, groups)
	r := results[0]

	if r.TotalScore != nil || r.OlympicAverage != nil || r.CategoryTotals.Technique != nil {
		t.Error("expected nil figures for dancer without scores")
	}
	if len(r.MaterialResults) != 0 || r.JudgeCount != 0 {
		t.Errorf("expected no material results, got %d", len(r.MaterialResults))
	}
}

func TestRankAggregatedResults_TieBreaksOnDancerNumber(t *testing.T) {
	results := []AggregatedDancerResult{
		{Dancer: models.Dancer{DancerNumber: 9}, OlympicAverage: f(20)},
		{Dancer: models.Dancer{DancerNumber: 2}},
		{Dancer: models.Dancer{DancerNumber: 4}, OlympicAverage: f(20)},
		{Dancer: models.Dancer{DancerNumber: 1}, OlympicAverage: f(22)},
	}

	RankAggregatedResults(results)

	want := []int{1, 4, 9, 2}
	for i, n := range want {
		if results[i].Dancer.DancerNumber != n {
			t.Fatalf("position %d: expected dancer %d, got %d", i, n, results[i].Dancer.DancerNumber)
		}
	}
}
