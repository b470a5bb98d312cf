package service

import (
	"context"
	"time"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/logger"
	"lendtrust-backend/internal/repository"

	"github.com/google/uuid"
)

type activityService struct {
	activityRepo repository.ActivityRepository
}

func NewActivityService(activityRepo repository.ActivityRepository) ActivityService {
	return &activityService{activityRepo: activityRepo}
}

// Notify is fire-and-forget: a failed write is logged and dropped, never
// surfaced to the lending operation that triggered it.
func (s *activityService) Notify(ctx context.Context, username, activityType, message string) {
	if username == "" {
		return
	}
	activity := &domain.Activity{
		ID:        uuid.NewString(),
		Username:  username,
		Type:      activityType,
		Message:   message,
		CreatedOn: time.Now().UnixMilli(),
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		logger.Error("Failed to record activity", "username", username, "type", activityType, "error", err)
	}
}

func (s *activityService) ListActivities(ctx context.Context, username string, limit int) ([]domain.Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.activityRepo.ListByUser(ctx, username, limit)
}

func (s *activityService) MarkAsRead(ctx context.Context, username, activityID string) error {
	return s.activityRepo.MarkAsRead(ctx, activityID, username)
}
