package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/adhamj/settleup/pkg/money"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// Service handles notification business logic
type Service struct {
	repo *Repository
}

// NewService creates a new notification service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// GetByID retrieves a notification by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotificationNotFound
	}
	return n, nil
}

// ListByRecipientID retrieves notifications for a user with pagination
func (s *Service) ListByRecipientID(ctx context.Context, recipientID int64, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	offset := (page - 1) * perPage
	return s.repo.ListByRecipientID(ctx, recipientID, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read after checking ownership
func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if n.RecipientID != userID {
		return ErrNotRecipient
	}
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// UnreadCount returns the count of unread notifications
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// NotifyExpenseAdded tells a participant their share of a new expense
func (s *Service) NotifyExpenseAdded(ctx context.Context, recipientID int64, payerName string, share money.Cents, expenseID int64) error {
	message := fmt.Sprintf("%s added an expense, your share is %s", payerName, share)
	entityType := "EXPENSE"
	_, err := s.repo.Create(ctx, recipientID, message, &entityType, &expenseID)
	return err
}

// NotifyPaymentRecorded tells the receiving side a payment was logged
func (s *Service) NotifyPaymentRecorded(ctx context.Context, recipientID int64, payerName string, amount money.Cents, paymentID int64) error {
	message := fmt.Sprintf("%s recorded a payment of %s to you", payerName, amount)
	entityType := "PAYMENT"
	_, err := s.repo.Create(ctx, recipientID, message, &entityType, &paymentID)
	return err
}

// NotifyMemberRemoved tells remaining members someone left the group
func (s *Service) NotifyMemberRemoved(ctx context.Context, recipientID int64, memberName, groupName string, groupID int64) error {
	message := fmt.Sprintf("%s was removed from group %s", memberName, groupName)
	entityType := "GROUP"
	_, err := s.repo.Create(ctx, recipientID, message, &entityType, &groupID)
	return err
}
