package memory

import (
	"context"
	"sync"

	"jee-exam-service/internal/domain"
)

// PaperStore is an in-memory implementation of app.PaperRepository.
type PaperStore struct {
	mu     sync.RWMutex
	papers map[string]domain.Paper
}

func NewPaperStore() *PaperStore {
	return &PaperStore{papers: make(map[string]domain.Paper)}
}

func (s *PaperStore) CreatePaper(_ context.Context, paper domain.Paper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.papers[paper.ID] = clonePaper(paper)
	return nil
}

func (s *PaperStore) GetPaper(_ context.Context, paperID string) (domain.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paper, ok := s.papers[paperID]
	if !ok {
		return domain.Paper{}, domain.ErrPaperNotFound
	}
	return clonePaper(paper), nil
}

func clonePaper(p domain.Paper) domain.Paper {
	p.SubjectIDs = cloneIDs(p.SubjectIDs)
	p.TopicIDs = cloneIDs(p.TopicIDs)
	p.SubtopicIDs = cloneIDs(p.SubtopicIDs)
	p.QuestionIDs = cloneIDs(p.QuestionIDs)
	return p
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
