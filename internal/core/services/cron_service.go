package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/adapters/persistence/repositories"
)

// reminderWindow is how far ahead the sweep looks for maturing loans
const reminderWindow = 7 * 24 * time.Hour

// CronService runs the scheduled background jobs, kept out of the request
// path entirely
type CronService struct {
	cron             *cron.Cron
	loanRepo         repositories.LoanRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	notificationSvc  *NotificationService
}

// NewCronService creates a new cron service
func NewCronService(
	loanRepo repositories.LoanRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	notificationSvc *NotificationService,
) *CronService {
	return &CronService{
		cron:             cron.New(),
		loanRepo:         loanRepo,
		refreshTokenRepo: refreshTokenRepo,
		notificationSvc:  notificationSvc,
	}
}

// Start registers and starts the scheduled jobs
func (s *CronService) Start() error {
	// Payment reminders every morning at 08:30
	if _, err := s.cron.AddFunc("30 8 * * *", s.runPaymentReminders); err != nil {
		return err
	}

	// Expired refresh token cleanup nightly at 02:00
	if _, err := s.cron.AddFunc("0 2 * * *", s.runTokenCleanup); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("✅ Cron jobs scheduled")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// runPaymentReminders notifies members whose loans mature within the window
func (s *CronService) runPaymentReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()
	loans, err := s.loanRepo.ListMaturingBetween(ctx, now, now.Add(reminderWindow))
	if err != nil {
		log.Printf("Warning: payment reminder sweep failed: %v", err)
		return
	}

	sent := 0
	for _, loan := range loans {
		member := loan.Member
		if member == nil || member.UserAccountID == nil {
			continue
		}
		loanID := loan.ID
		saccoID := member.SaccoID
		err := s.notificationSvc.Create(ctx, CreateInput{
			UserID:            *member.UserAccountID,
			Title:             "Loan payment due soon",
			Message:           fmt.Sprintf("Loan %s matures on %s. Please arrange repayment.", loan.LoanNumber, loan.MaturityDate.Format("2006-01-02")),
			Priority:          models.PriorityHigh,
			ActionType:        models.NotifyPaymentReminder,
			RelatedObjectID:   &loanID,
			RelatedObjectType: "loan",
			SaccoID:           &saccoID,
		})
		if err != nil {
			log.Printf("Warning: payment reminder for loan %s failed: %v", loan.LoanNumber, err)
			continue
		}
		sent++
	}

	log.Printf("Payment reminder sweep: %d loans due within 7 days, %d reminders sent", len(loans), sent)
}

// runTokenCleanup purges expired refresh tokens
func (s *CronService) runTokenCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.refreshTokenRepo.DeleteExpired(ctx); err != nil {
		log.Printf("Warning: refresh token cleanup failed: %v", err)
		return
	}
	log.Println("Expired refresh tokens cleaned up")
}
