package group

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Common errors
var (
	ErrGroupNotFound    = errors.New("group not found")
	ErrMemberNotFound   = errors.New("member not found in group")
	ErrMemberHasBalance = errors.New("member has a nonzero balance; pass force to write it off")
	ErrInvalidCondition = errors.New("deletion condition must be SETTLED or TIME_LIMIT")
	ErrExpiryRequired   = errors.New("expires_at is required for TIME_LIMIT members")
)

// Notifier tells remaining members that someone left the group.
type Notifier interface {
	NotifyMemberRemoved(ctx context.Context, recipientID int64, memberName, groupName string, groupID int64) error
}

// Service handles group business logic
type Service struct {
	repo     *Repository
	notifier Notifier
	now      func() time.Time
}

// NewService creates a new group service
func NewService(repo *Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier, now: time.Now}
}

// Create creates a group with the creator as its first member
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateGroupRequest) (*Group, error) {
	g, err := s.repo.Create(ctx, creatorID, req.Name, req.MemberIDs)
	if err != nil {
		return nil, err
	}
	slog.Info("group created", "group_id", g.ID, "created_by", creatorID)
	return g, nil
}

// GetByID retrieves a group with its members and balances
func (s *Service) GetByID(ctx context.Context, id int64) (*Group, []*Member, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, ErrGroupNotFound
	}
	members, err := s.repo.ListMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return g, members, nil
}

// ListByUserID retrieves the groups the user belongs to
func (s *Service) ListByUserID(ctx context.Context, userID int64, page, perPage int) ([]*Group, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	offset := (page - 1) * perPage
	return s.repo.ListByUserID(ctx, userID, perPage, offset)
}

// AddMember adds a user to a group, optionally as a temporary member with
// a deletion condition.
func (s *Service) AddMember(ctx context.Context, groupID int64, req *AddMemberRequest) (*Member, error) {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}

	m := &Member{
		GroupID:     groupID,
		UserID:      req.UserID,
		IsTemporary: req.IsTemporary,
	}
	if req.DeletionCondition != "" {
		cond := DeletionCondition(req.DeletionCondition)
		if cond != DeletionSettled && cond != DeletionTimeLimit {
			return nil, ErrInvalidCondition
		}
		m.DeletionCondition = &cond
		if cond == DeletionTimeLimit {
			if req.ExpiresAt == "" {
				return nil, ErrExpiryRequired
			}
			t, err := time.Parse(time.RFC3339, req.ExpiresAt)
			if err != nil {
				return nil, fmt.Errorf("invalid expires_at: %w", err)
			}
			m.ExpiresAt = &t
		}
	}

	return s.repo.AddMember(ctx, m)
}

// RemoveMember removes a member from a group. A member with a nonzero
// balance is only removed when force is set: their balance is written off
// and the zero-sum invariant is knowingly suspended at this boundary.
// Historical transactions referencing them are annotated, never altered.
func (s *Service) RemoveMember(ctx context.Context, groupID, userID int64, force bool) error {
	m, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMemberNotFound
	}
	if m.Balance != 0 && !force {
		return ErrMemberHasBalance
	}

	now := s.now()
	annotation := fmt.Sprintf("member %s removed %s", m.Username, now.Format("2006-01-02"))
	if err := s.repo.RemoveMember(ctx, groupID, userID, annotation, now); err != nil {
		return err
	}

	slog.Info("member removed",
		"group_id", groupID,
		"user_id", userID,
		"discarded_balance", m.Balance.String(),
	)

	if s.notifier != nil {
		g, err := s.repo.GetByID(ctx, groupID)
		if err != nil || g == nil {
			slog.Warn("failed to load group for removal notices", "group_id", groupID, "error", err)
			return nil
		}
		remaining, err := s.repo.ListMembers(ctx, groupID)
		if err != nil {
			slog.Warn("failed to list members for removal notices", "group_id", groupID, "error", err)
			return nil
		}
		for _, r := range remaining {
			if err := s.notifier.NotifyMemberRemoved(ctx, r.UserID, m.Username, g.Name, groupID); err != nil {
				slog.Warn("failed to notify member", "group_id", groupID, "user_id", r.UserID, "error", err)
			}
		}
	}
	return nil
}

// RemoveExpired removes temporary TIME_LIMIT members whose expiry has
// passed, writing off any remaining balance. Intended to be called
// periodically or on group load.
func (s *Service) RemoveExpired(ctx context.Context, groupID int64) (int, error) {
	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	removed := 0
	for _, m := range members {
		if !m.IsTemporary || m.DeletionCondition == nil || *m.DeletionCondition != DeletionTimeLimit {
			continue
		}
		if m.ExpiresAt == nil || m.ExpiresAt.After(now) {
			continue
		}
		if err := s.RemoveMember(ctx, groupID, m.UserID, true); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
