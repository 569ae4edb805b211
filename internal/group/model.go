package group

import (
	"time"

	"github.com/adhamj/settleup/pkg/money"
)

// DeletionCondition controls when a temporary member should leave the group
type DeletionCondition string

const (
	DeletionSettled   DeletionCondition = "SETTLED"    // remove once their balance reaches zero
	DeletionTimeLimit DeletionCondition = "TIME_LIMIT" // remove once ExpiresAt passes
)

// Group represents a set of members who share expenses
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// Member represents a user's membership in a group
type Member struct {
	ID                int64              `json:"id"`
	GroupID           int64              `json:"group_id"`
	UserID            int64              `json:"user_id"`
	IsTemporary       bool               `json:"is_temporary"`
	DeletionCondition *DeletionCondition `json:"deletion_condition,omitempty"`
	ExpiresAt         *time.Time         `json:"expires_at,omitempty"`
	JoinedAt          time.Time          `json:"joined_at"`

	// Populated via JOIN
	Username string `json:"username,omitempty"`

	// Balance is the member's signed group balance: positive means the
	// group owes them, negative means they owe the group.
	Balance money.Cents `json:"balance"`
}
