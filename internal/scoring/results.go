package scoring

import (
	"sort"

	"github.com/joshuadwray/audition-scoring/internal/models"
)

// DancerResult is a dancer's standing within a single material
type DancerResult struct {
	Dancer           models.Dancer      `json:"dancer"`
	CategoryAverages models.ScoreValues `json:"category_averages"`
	TotalScore       *float64           `json:"total_score"`
	OlympicAverage   *float64           `json:"olympic_average"`
	JudgeCount       int                `json:"judge_count"`
	IsOlympicAverage bool               `json:"is_olympic_average"`
}

// MaterialRef names the material an instance was pushed against
type MaterialRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MaterialResult is one material's figures inside an aggregated result
type MaterialResult struct {
	MaterialID       string             `json:"material_id"`
	MaterialName     string             `json:"material_name"`
	CategoryAverages models.ScoreValues `json:"category_averages"`
	TotalScore       *float64           `json:"total_score"`
	OlympicAverage   *float64           `json:"olympic_average"`
	JudgeCount       int                `json:"judge_count"`
	IsOlympicAverage bool               `json:"is_olympic_average"`
}

// AggregatedDancerResult rolls a dancer's results up across materials
type AggregatedDancerResult struct {
	Dancer           models.Dancer      `json:"dancer"`
	MaterialResults  []MaterialResult   `json:"material_results"`
	CategoryTotals   models.ScoreValues `json:"category_totals"`
	TotalScore       *float64           `json:"total_score"`
	OlympicAverage   *float64           `json:"olympic_average"`
	JudgeCount       int                `json:"judge_count"`
	IsOlympicAverage bool               `json:"is_olympic_average"`
}

// judgeTotals sums each judge's non-null values across scores. Judges who
// left every category unset count toward the judge total but contribute
// no sum.
func judgeTotals(scores []models.Score) (totals []float64, judges int) {
	order := make([]string, 0)
	sums := make(map[string]float64)
	hasAny := make(map[string]bool)

	for _, s := range scores {
		if _, seen := sums[s.JudgeID]; !seen {
			order = append(order, s.JudgeID)
			sums[s.JudgeID] = 0
		}
		for _, c := range models.Categories {
			if v := s.Get(c); v != nil {
				sums[s.JudgeID] += *v
				hasAny[s.JudgeID] = true
			}
		}
	}

	for _, judgeID := range order {
		if hasAny[judgeID] {
			totals = append(totals, sums[judgeID])
		}
	}
	return totals, len(order)
}

// CalculateDancerResults computes a dancer's figures from the scores given
// for one material. Scores are expected to belong to the dancer already.
func CalculateDancerResults(dancer models.Dancer, scores []models.Score) DancerResult {
	result := DancerResult{Dancer: dancer}

	for _, c := range models.Categories {
		var values []float64
		for _, s := range scores {
			if v := s.Get(c); v != nil {
				values = append(values, *v)
			}
		}
		result.CategoryAverages.Set(c, mean(values))
	}

	totals, judges := judgeTotals(scores)
	result.JudgeCount = judges
	result.TotalScore = mean(totals)
	result.OlympicAverage = OlympicAverage(totals)
	result.IsOlympicAverage = judges >= OlympicThreshold
	return result
}

// CalculateMaterialResults computes and ranks results for every dancer
// against the scores of a single material
func CalculateMaterialResults(dancers []models.Dancer, scores []models.Score) []DancerResult {
	byDancer := make(map[string][]models.Score)
	for _, s := range scores {
		byDancer[s.DancerID] = append(byDancer[s.DancerID], s)
	}

	results := make([]DancerResult, 0, len(dancers))
	for _, d := range dancers {
		results = append(results, CalculateDancerResults(d, byDancer[d.ID]))
	}
	RankDancerResults(results)
	return results
}

// CalculateAggregatedResults rolls each dancer's scores up across materials.
// groupMaterials maps instance IDs to their material; scores from groups
// missing from the map are ignored.
func CalculateAggregatedResults(dancers []models.Dancer, scores []models.Score, groupMaterials map[string]MaterialRef) []AggregatedDancerResult {
	byDancer := make(map[string][]models.Score)
	for _, s := range scores {
		if _, ok := groupMaterials[s.GroupID]; !ok {
			continue
		}
		byDancer[s.DancerID] = append(byDancer[s.DancerID], s)
	}

	results := make([]AggregatedDancerResult, 0, len(dancers))
	for _, d := range dancers {
		results = append(results, aggregateDancer(d, byDancer[d.ID], groupMaterials))
	}
	RankAggregatedResults(results)
	return results
}

func aggregateDancer(dancer models.Dancer, scores []models.Score, groupMaterials map[string]MaterialRef) AggregatedDancerResult {
	result := AggregatedDancerResult{Dancer: dancer, MaterialResults: []MaterialResult{}}

	materials := make(map[string]MaterialRef)
	byMaterial := make(map[string][]models.Score)
	for _, s := range scores {
		m := groupMaterials[s.GroupID]
		materials[m.ID] = m
		byMaterial[m.ID] = append(byMaterial[m.ID], s)
	}

	for id, m := range materials {
		r := CalculateDancerResults(dancer, byMaterial[id])
		result.MaterialResults = append(result.MaterialResults, MaterialResult{
			MaterialID:       m.ID,
			MaterialName:     m.Name,
			CategoryAverages: r.CategoryAverages,
			TotalScore:       r.TotalScore,
			OlympicAverage:   r.OlympicAverage,
			JudgeCount:       r.JudgeCount,
			IsOlympicAverage: r.IsOlympicAverage,
		})
	}
	sort.Slice(result.MaterialResults, func(i, j int) bool {
		a, b := result.MaterialResults[i], result.MaterialResults[j]
		if a.MaterialName != b.MaterialName {
			return a.MaterialName < b.MaterialName
		}
		return a.MaterialID < b.MaterialID
	})

	for _, c := range models.Categories {
		var averages []float64
		for _, mr := range result.MaterialResults {
			if v := mr.CategoryAverages.Get(c); v != nil {
				averages = append(averages, *v)
			}
		}
		result.CategoryTotals.Set(c, sum(averages))
	}

	var materialTotals []float64
	for _, mr := range result.MaterialResults {
		if mr.TotalScore != nil {
			materialTotals = append(materialTotals, *mr.TotalScore)
		}
	}
	result.TotalScore = sum(materialTotals)

	// Recomputed from raw per-judge sums across all materials rather than
	// from the already-trimmed per-material figures.
	totals, judges := judgeTotals(scores)
	result.JudgeCount = judges
	result.OlympicAverage = OlympicAverage(totals)
	result.IsOlympicAverage = judges >= OlympicThreshold
	return result
}

// rankedBefore orders by Olympic average descending with missing averages
// last, then by dancer number ascending
func rankedBefore(aAvg *float64, aNum int, bAvg *float64, bNum int) bool {
	switch {
	case aAvg != nil && bAvg == nil:
		return true
	case aAvg == nil && bAvg != nil:
		return false
	case aAvg != nil && bAvg != nil && *aAvg != *bAvg:
		return *aAvg > *bAvg
	}
	return aNum < bNum
}

// RankDancerResults sorts results into ranking order in place
func RankDancerResults(results []DancerResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return rankedBefore(results[i].OlympicAverage, results[i].Dancer.DancerNumber,
			results[j].OlympicAverage, results[j].Dancer.DancerNumber)
	})
}

// RankAggregatedResults sorts aggregated results into ranking order in place
func RankAggregatedResults(results []AggregatedDancerResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return rankedBefore(results[i].OlympicAverage, results[i].Dancer.DancerNumber,
			results[j].OlympicAverage, results[j].Dancer.DancerNumber)
	})
}
