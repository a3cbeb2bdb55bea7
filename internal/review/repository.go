package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository defines the interface for review case data access
type Repository interface {
	CreateCase(ctx context.Context, reviewCase *Case) error
	GetCase(ctx context.Context, caseID string) (*Case, error)
	UpdateCase(ctx context.Context, reviewCase *Case) error
	ListQueue(ctx context.Context, filters *QueueFilters) ([]*Case, error)
	GetQueueSummary(ctx context.Context) (*QueueSummary, error)
}

// GormRepository implements Repository using gorm
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a review repository and migrates its table
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&Case{}); err != nil {
		return nil, fmt.Errorf("failed to migrate review cases: %w", err)
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) CreateCase(ctx context.Context, reviewCase *Case) error {
	if err := r.db.WithContext(ctx).Create(reviewCase).Error; err != nil {
		return fmt.Errorf("failed to create review case: %w", err)
	}
	return nil
}

func (r *GormRepository) GetCase(ctx context.Context, caseID string) (*Case, error) {
	var reviewCase Case
	err := r.db.WithContext(ctx).Where("case_id = ?", caseID).First(&reviewCase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("review case not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review case: %w", err)
	}
	return &reviewCase, nil
}

func (r *GormRepository) UpdateCase(ctx context.Context, reviewCase *Case) error {
	if err := r.db.WithContext(ctx).Save(reviewCase).Error; err != nil {
		return fmt.Errorf("failed to update review case: %w", err)
	}
	return nil
}

func (r *GormRepository) ListQueue(ctx context.Context, filters *QueueFilters) ([]*Case, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Model(&Case{})
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	} else {
		query = query.Where("status IN ?", []CaseStatus{CaseStatusPending, CaseStatusInReview})
	}
	if filters.Priority != "" {
		query = query.Where("priority = ?", filters.Priority)
	}

	var cases []*Case
	err := query.
		Order("CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, deadline ASC").
		Limit(limit).
		Find(&cases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list review queue: %w", err)
	}

	return cases, nil
}

func (r *GormRepository) GetQueueSummary(ctx context.Context) (*QueueSummary, error) {
	summary := &QueueSummary{}
	db := r.db.WithContext(ctx).Model(&Case{})

	type priorityCount struct {
		Priority string
		Count    int
	}
	var counts []priorityCount
	if err := db.Session(&gorm.Session{}).
		Select("priority, COUNT(*) AS count").
		Where("status = ?", CaseStatusPending).
		Group("priority").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending cases: %w", err)
	}
	for _, c := range counts {
		summary.TotalPending += c.Count
		switch c.Priority {
		case "high":
			summary.HighPriority = c.Count
		case "medium":
			summary.MediumPriority = c.Count
		case "low":
			summary.LowPriority = c.Count
		}
	}

	var overdue int64
	if err := db.Session(&gorm.Session{}).
		Where("status = ? AND deadline < ?", CaseStatusPending, time.Now()).
		Count(&overdue).Error; err != nil {
		return nil, fmt.Errorf("failed to count overdue cases: %w", err)
	}
	summary.Overdue = int(overdue)

	type decisionStats struct {
		AvgHours float64
		Approved int
		Decided  int
	}
	var stats decisionStats
	if err := db.Session(&gorm.Session{}).
		Select(`
			COALESCE(AVG(EXTRACT(EPOCH FROM decided_at - created_at) / 3600), 0) AS avg_hours,
			COUNT(*) FILTER (WHERE status = 'approved') AS approved,
			COUNT(*) AS decided`).
		Where("decided_at IS NOT NULL").
		Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate decisions: %w", err)
	}

	summary.AvgProcessingTimeHours = stats.AvgHours
	if stats.Decided > 0 {
		summary.ApprovalRate = float64(stats.Approved) / float64(stats.Decided)
	}

	return summary, nil
}
