package postgres

import (
	"context"

	"github.com/uptrace/bun"
	"jee-exam-service/internal/domain"
)

// PaperStore persists exam papers with bun.
type PaperStore struct {
	db *bun.DB
}

func NewPaperStore(db *bun.DB) *PaperStore {
	return &PaperStore{db: db}
}

func (s *PaperStore) CreatePaper(ctx context.Context, paper domain.Paper) error {
	row := paperRowFrom(paper)
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return mapError(err, domain.ErrPaperNotFound)
}

func (s *PaperStore) GetPaper(ctx context.Context, paperID string) (domain.Paper, error) {
	var row paperRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", paperID).Scan(ctx)
	if err != nil {
		return domain.Paper{}, mapError(err, domain.ErrPaperNotFound)
	}
	return row.toDomain(), nil
}
