package review

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CaseStatus represents the lifecycle status of a review case
type CaseStatus string

const (
	CaseStatusPending       CaseStatus = "pending"
	CaseStatusInReview      CaseStatus = "in_review"
	CaseStatusApproved      CaseStatus = "approved"
	CaseStatusRejected      CaseStatus = "rejected"
	CaseStatusNeedsMoreInfo CaseStatus = "needs_more_info"
)

// Decisions a reviewer can record.
const (
	DecisionApprove       = "approve"
	DecisionReject        = "reject"
	DecisionNeedsMoreInfo = "needs_more_info"
)

// Case is one human review case for a flagged evidence submission
type Case struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CaseID     string    `json:"case_id" gorm:"uniqueIndex;not null"`
	UserID     string    `json:"user_id" gorm:"not null;index"`
	EvidenceID string    `json:"evidence_id" gorm:"not null;index"`

	// What the confidence assessment flagged
	Priority   string         `json:"priority" gorm:"not null;index"`
	Reasons    datatypes.JSON `json:"reasons" gorm:"default:'[]'"`
	Components datatypes.JSON `json:"components" gorm:"default:'{}'"`
	Confidence float64        `json:"confidence" gorm:"type:decimal(4,3);not null"`

	// Review workflow
	Status          CaseStatus `json:"status" gorm:"default:'pending';index"`
	AssignedTo      *string    `json:"assigned_to" gorm:"index"`
	Decision        *string    `json:"decision"`
	DecisionNotes   *string    `json:"decision_notes"`
	DecidedBy       *string    `json:"decided_by"`
	DecidedAt       *time.Time `json:"decided_at"`
	Deadline        time.Time  `json:"deadline" gorm:"not null;index"`
	EscalationLevel int        `json:"escalation_level" gorm:"default:1"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the gorm table name
func (Case) TableName() string {
	return "review_cases"
}

// QueueFilters narrow the review queue listing
type QueueFilters struct {
	Status   string `form:"status"`
	Priority string `form:"priority"`
	Limit    int    `form:"limit"`
}

// QueueSummary is the admin dashboard summary of the review queue
type QueueSummary struct {
	TotalPending           int     `json:"total_pending"`
	HighPriority           int     `json:"high_priority"`
	MediumPriority         int     `json:"medium_priority"`
	LowPriority            int     `json:"low_priority"`
	Overdue                int     `json:"overdue"`
	AvgProcessingTimeHours float64 `json:"avg_processing_time_hours"`
	ApprovalRate           float64 `json:"approval_rate"`
}

// DecisionRequest is the reviewer decision request body
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Notes    string `json:"notes"`
}
