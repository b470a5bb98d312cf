package jobs

import (
	"context"
	"fmt"
	"time"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/logger"
)

const (
	reminderTypeDueSoon = "due-soon"
	reminderTypeOverdue = "overdue"

	// Minimum gap between two reminders of the same type on one lending.
	reminderInterval = 24 * time.Hour
)

// SendDueSoonReminders reminds borrowers whose return date falls within the
// configured look-ahead window.
func (jr *JobRunner) SendDueSoonReminders() {
	jr.runWithRecovery("SendDueSoonReminders", func() {
		ctx := context.Background()
		now := time.Now().UnixMilli()
		until := now + int64(jr.config.Reminders.DaysAhead)*86400000

		lendings, err := jr.lendingRepo.ListDueSoon(ctx, now, until)
		if err != nil {
			logger.Error("Failed to list due-soon lendings", "error", err)
			return
		}
		jr.remind(ctx, lendings, reminderTypeDueSoon)
	})
}

// SendOverdueReminders reminds borrowers whose return date has passed.
func (jr *JobRunner) SendOverdueReminders() {
	jr.runWithRecovery("SendOverdueReminders", func() {
		ctx := context.Background()
		lendings, err := jr.lendingRepo.ListOverdue(ctx, time.Now().UnixMilli())
		if err != nil {
			logger.Error("Failed to list overdue lendings", "error", err)
			return
		}
		jr.remind(ctx, lendings, reminderTypeOverdue)
	})
}

func (jr *JobRunner) remind(ctx context.Context, lendings []domain.Lending, reminderType string) {
	now := time.Now().UnixMilli()
	count := 0
	for i := range lendings {
		lending := &lendings[i]
		if recentlyReminded(lending, reminderType, now) {
			continue
		}

		itemName := lending.ItemID
		if item, err := jr.itemRepo.GetByID(ctx, lending.ItemID); err == nil {
			itemName = item.Name
		}

		if lending.BorrowerUsername != "" {
			message := fmt.Sprintf("Reminder: %s is due back soon", itemName)
			if reminderType == reminderTypeOverdue {
				message = fmt.Sprintf("Reminder: %s is overdue", itemName)
			}
			jr.activitySvc.Notify(ctx, lending.BorrowerUsername, "return_reminder", message)
			if borrower, err := jr.userSvc.GetUser(ctx, lending.BorrowerUsername); err == nil {
				_ = jr.emailSvc.SendReturnReminderNotification(ctx, borrower.Email, itemName, reminderType == reminderTypeOverdue)
			}
		} else if lending.BorrowerInfo.Email != "" {
			_ = jr.emailSvc.SendReturnReminderNotification(ctx, lending.BorrowerInfo.Email, itemName, reminderType == reminderTypeOverdue)
		}

		lending.Reminders = append(lending.Reminders, domain.Reminder{Type: reminderType, SentAt: now})
		if err := jr.lendingRepo.Update(ctx, lending); err != nil {
			// A conflict just means someone transitioned the lending while
			// we were reminding; the reminder log entry is not worth a retry.
			logger.Warn("Failed to record reminder", "lending_id", lending.ID, "error", err)
			continue
		}
		count++
	}
	logger.Info("Reminders sent", "type", reminderType, "count", count)
}

func recentlyReminded(lending *domain.Lending, reminderType string, now int64) bool {
	for _, r := range lending.Reminders {
		if r.Type == reminderType && now-r.SentAt < reminderInterval.Milliseconds() {
			return true
		}
	}
	return false
}

// PurgeExpiredSessions drops revoked session entries whose tokens expired.
func (jr *JobRunner) PurgeExpiredSessions() {
	jr.runWithRecovery("PurgeExpiredSessions", func() {
		jr.sessions.PurgeExpired()
	})
}
