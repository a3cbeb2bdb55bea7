package portfolio

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository defines the interface for carbon credit data access
type Repository interface {
	InsertCredits(ctx context.Context, records []*CreditRecord) error
	ListByUser(ctx context.Context, userID string) ([]*CreditRecord, error)
	ListByStatus(ctx context.Context, status string) ([]*CreditRecord, error)
	MarkPooled(ctx context.Context, ids []string) error
	InsertPoolRuns(ctx context.Context, runs []*PoolRun) error
}

// GormRepository implements Repository using gorm
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a credit repository and migrates its table
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&CreditRecord{}, &PoolRun{}); err != nil {
		return nil, fmt.Errorf("failed to migrate carbon credits: %w", err)
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) InsertCredits(ctx context.Context, records []*CreditRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(records).Error; err != nil {
		return fmt.Errorf("failed to insert carbon credits: %w", err)
	}
	return nil
}

func (r *GormRepository) ListByUser(ctx context.Context, userID string) ([]*CreditRecord, error) {
	var records []*CreditRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list credits: %w", err)
	}
	return records, nil
}

func (r *GormRepository) ListByStatus(ctx context.Context, status string) ([]*CreditRecord, error) {
	var records []*CreditRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list credits by status: %w", err)
	}
	return records, nil
}

func (r *GormRepository) MarkPooled(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&CreditRecord{}).
		Where("id IN ?", ids).
		Update("status", "pooled").Error
	if err != nil {
		return fmt.Errorf("failed to mark credits pooled: %w", err)
	}
	return nil
}

func (r *GormRepository) InsertPoolRuns(ctx context.Context, runs []*PoolRun) error {
	if len(runs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(runs).Error; err != nil {
		return fmt.Errorf("failed to insert pool runs: %w", err)
	}
	return nil
}
