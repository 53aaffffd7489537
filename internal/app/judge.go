package app

import "jee-exam-service/internal/domain"

// CorrectOption returns the first option flagged correct, in stored order,
// along with how many options carry the flag.
func CorrectOption(q domain.Question) (string, int) {
	id := ""
	count := 0
	for _, opt := range q.Options {
		if !opt.IsCorrect {
			continue
		}
		if count == 0 {
			id = opt.ID
		}
		count++
	}
	return id, count
}

// Judge reports whether selected matches the question's correct option.
// A skipped question (nil selection) is never correct. When several options
// are flagged correct only the first one counts.
func Judge(q domain.Question, selected *string) bool {
	if selected == nil {
		return false
	}
	correctID, count := CorrectOption(q)
	if count == 0 {
		return false
	}
	return *selected == correctID
}
