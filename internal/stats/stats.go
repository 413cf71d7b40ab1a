// Package stats summarizes hypothesis evaluation scores for reporting.
package stats

import (
	"sort"

	"github.com/chaosprobe/chaosprobe/pkg/types"
)

// CriterionAverages holds the mean of each quality criterion across a set of
// evaluations.
type CriterionAverages struct {
	Testability   float64 `json:"testability"`
	Specificity   float64 `json:"specificity"`
	Realism       float64 `json:"realism"`
	Safety        float64 `json:"safety"`
	LearningValue float64 `json:"learning_value"`
	Overall       float64 `json:"overall"`
}

// Bucket is one band of the overall-score distribution.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary is the aggregate view over a set of evaluations.
type Summary struct {
	Count        int                          `json:"count"`
	Averages     CriterionAverages            `json:"averages"`
	Distribution []Bucket                     `json:"distribution"`
	Best         []types.HypothesisEvaluation `json:"best"`
	Worst        []types.HypothesisEvaluation `json:"worst"`
}

// Summarize computes averages, the overall-score distribution, and the n
// best and worst evaluations. An empty input yields a zero Summary.
func Summarize(evaluations []types.HypothesisEvaluation, n int) Summary {
	s := Summary{Count: len(evaluations), Distribution: distribution(evaluations)}
	if len(evaluations) == 0 {
		return s
	}

	var a CriterionAverages
	for _, e := range evaluations {
		a.Testability += float64(e.TestabilityScore)
		a.Specificity += float64(e.SpecificityScore)
		a.Realism += float64(e.RealismScore)
		a.Safety += float64(e.SafetyScore)
		a.LearningValue += float64(e.LearningValueScore)
		a.Overall += e.OverallScore
	}
	count := float64(len(evaluations))
	a.Testability /= count
	a.Specificity /= count
	a.Realism /= count
	a.Safety /= count
	a.LearningValue /= count
	a.Overall /= count
	s.Averages = a

	sorted := make([]types.HypothesisEvaluation, len(evaluations))
	copy(sorted, evaluations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OverallScore > sorted[j].OverallScore
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	if n > 0 {
		s.Best = sorted[:n]
		worst := make([]types.HypothesisEvaluation, n)
		copy(worst, sorted[len(sorted)-n:])
		// worst first
		for i, j := 0, len(worst)-1; i < j; i, j = i+1, j-1 {
			worst[i], worst[j] = worst[j], worst[i]
		}
		s.Worst = worst
	}
	return s
}

// distribution buckets overall scores into four bands over the valid [1,5]
// range. The top band is closed so a perfect 5 lands in it.
func distribution(evaluations []types.HypothesisEvaluation) []Bucket {
	buckets := []Bucket{
		{Label: "1.0-2.0"},
		{Label: "2.0-3.0"},
		{Label: "3.0-4.0"},
		{Label: "4.0-5.0"},
	}
	for _, e := range evaluations {
		switch score := e.OverallScore; {
		case score < 2:
			buckets[0].Count++
		case score < 3:
			buckets[1].Count++
		case score < 4:
			buckets[2].Count++
		default:
			buckets[3].Count++
		}
	}
	return buckets
}
