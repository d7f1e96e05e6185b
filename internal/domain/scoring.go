package domain

import "strings"

// ScoreResult is the outcome of scoring one attempt.
type ScoreResult struct {
	CorrectCount int
	Total        int
	Percentage   float64
}

// Score maps a question snapshot and a sparse answer map to a correctness
// count and percentage. A question with no entry in answers counts as
// incorrect; it never shrinks the denominator. Letters are compared after
// normalizing to uppercase.
func Score(questions []Question, answers map[string]AnswerLetter) ScoreResult {
	result := ScoreResult{Total: len(questions)}
	for _, q := range questions {
		selected, ok := answers[q.ID]
		if !ok {
			continue
		}
		if strings.ToUpper(selected) == strings.ToUpper(q.CorrectAnswer) {
			result.CorrectCount++
		}
	}
	if result.Total > 0 {
		result.Percentage = 100 * float64(result.CorrectCount) / float64(result.Total)
	}
	return result
}

// Passed derives the pass/fail outcome. It is recomputed wherever it is
// shown; it is never stored.
func Passed(percentage float64, passingScore int) bool {
	return percentage >= float64(passingScore)
}
