package repository

import (
	"context"
	"errors"

	emaildomain "mail-assistant/internal/email/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type emailRepository struct {
	db *gorm.DB
}

// NewEmailRepository creates a Postgres-backed EmailRepository.
func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{db: db}
}

func (r *emailRepository) SaveEmail(ctx context.Context, email *emaildomain.MailRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(email).Error
}

func (r *emailRepository) GetEmailByID(ctx context.Context, id string) (*emaildomain.MailRecord, error) {
	var email emaildomain.MailRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

type syncRunRepository struct {
	db *gorm.DB
}

func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepository{db: db}
}

func (r *syncRunRepository) SaveRun(ctx context.Context, run *emaildomain.SyncReport) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(run).Error
}

func (r *syncRunRepository) LatestRun(ctx context.Context, userID string) (*emaildomain.SyncReport, error) {
	var run emaildomain.SyncReport
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
