package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/adapters/persistence/repositories"
)

// Notification errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// NotificationService persists in-app notifications. Creation is
// best-effort: lifecycle callers log the returned error and carry on.
type NotificationService struct {
	notificationRepo repositories.NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo repositories.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// CreateInput describes one notification
type CreateInput struct {
	UserID            uint
	Title             string
	Message           string
	Priority          string
	ActionType        string
	RelatedObjectID   *uint
	RelatedObjectType string
	SaccoID           *uint
}

// Create persists one notification
func (s *NotificationService) Create(ctx context.Context, input CreateInput) error {
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	notification := &models.Notification{
		UserID:            input.UserID,
		Title:             input.Title,
		Message:           input.Message,
		Priority:          input.Priority,
		ActionType:        input.ActionType,
		RelatedObjectID:   input.RelatedObjectID,
		RelatedObjectType: input.RelatedObjectType,
		SaccoID:           input.SaccoID,
	}
	return s.notificationRepo.Create(ctx, notification)
}

// NotifyLoanEvent notifies a member's user account about a loan event. A
// member without a linked account gets nothing.
func (s *NotificationService) NotifyLoanEvent(ctx context.Context, member *models.Member, loan *models.Loan, actionType, title, message, priority string) error {
	if member == nil || member.UserAccountID == nil {
		return nil
	}
	loanID := loan.ID
	saccoID := member.SaccoID
	return s.Create(ctx, CreateInput{
		UserID:            *member.UserAccountID,
		Title:             title,
		Message:           message,
		Priority:          priority,
		ActionType:        actionType,
		RelatedObjectID:   &loanID,
		RelatedObjectType: "loan",
		SaccoID:           &saccoID,
	})
}

// NotifySavingsEvent notifies a member's user account about a ledger event
func (s *NotificationService) NotifySavingsEvent(ctx context.Context, member *models.Member, account *models.SavingsAccount, actionType string, amount float64) error {
	if member == nil || member.UserAccountID == nil {
		return nil
	}
	verb := "credited to"
	title := "Deposit received"
	if actionType == models.NotifySavingsWithdrawal {
		verb = "debited from"
		title = "Withdrawal processed"
	}
	accountID := account.ID
	saccoID := member.SaccoID
	return s.Create(ctx, CreateInput{
		UserID:            *member.UserAccountID,
		Title:             title,
		Message:           fmt.Sprintf("%.2f was %s account %s. New balance: %.2f", amount, verb, account.AccountNumber, account.Balance),
		ActionType:        actionType,
		RelatedObjectID:   &accountID,
		RelatedObjectType: "savings_account",
		SaccoID:           &saccoID,
	})
}

// NotifyMemberRegistered welcomes a newly registered member
func (s *NotificationService) NotifyMemberRegistered(ctx context.Context, member *models.Member) error {
	if member == nil || member.UserAccountID == nil {
		return nil
	}
	memberID := member.ID
	saccoID := member.SaccoID
	return s.Create(ctx, CreateInput{
		UserID:            *member.UserAccountID,
		Title:             "Welcome",
		Message:           fmt.Sprintf("Your membership %s has been registered.", member.MemberNumber),
		ActionType:        models.NotifyMemberRegistered,
		RelatedObjectID:   &memberID,
		RelatedObjectType: "member",
		SaccoID:           &saccoID,
	})
}

// ListForUser lists a user's notifications
func (s *NotificationService) ListForUser(ctx context.Context, userID uint, unreadOnly bool, offset, limit int) ([]*models.Notification, int64, error) {
	return s.notificationRepo.ListByUser(ctx, userID, unreadOnly, offset, limit)
}

// UnreadCount counts a user's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID, userID uint) error {
	err := s.notificationRepo.MarkRead(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

// MarkAllRead marks all of the user's notifications as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}
