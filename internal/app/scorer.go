package app

import "jee-exam-service/internal/domain"

// Score counts correct answers that belong to the submission snapshot and
// converts them to a percentage of TotalQuestions. Answers to questions
// outside the snapshot are ignored so correctCount never exceeds the total.
func Score(sub domain.Submission, answers []domain.Answer) (int, float64) {
	inPaper := make(map[string]struct{}, len(sub.QuestionIDs))
	for _, id := range sub.QuestionIDs {
		inPaper[id] = struct{}{}
	}

	correct := 0
	for _, answer := range answers {
		if !answer.IsCorrect {
			continue
		}
		if _, ok := inPaper[answer.QuestionID]; ok {
			correct++
		}
	}

	if sub.TotalQuestions <= 0 {
		return correct, 0
	}
	return correct, float64(correct) / float64(sub.TotalQuestions) * 100
}
