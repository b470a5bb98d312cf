package service

import (
	"context"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/repository"
)

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetUser(ctx context.Context, username string) (*domain.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *userService) GetPublicProfile(ctx context.Context, username string) (*domain.PublicProfile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// mutate applies fn to the user's trust statistics, recomputes the score and
// persists. The score is never written except through this path.
func (s *userService) mutate(ctx context.Context, username string, fn func(*domain.User)) error {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	fn(user)
	user.TrustScore = domain.ComputeTrustScore(user.Stats())
	return s.userRepo.Update(ctx, user)
}

func (s *userService) IncrementLendings(ctx context.Context, username string) error {
	return s.mutate(ctx, username, func(u *domain.User) { u.TotalLendings++ })
}

func (s *userService) IncrementBorrowings(ctx context.Context, username string) error {
	return s.mutate(ctx, username, func(u *domain.User) { u.TotalBorrowings++ })
}

func (s *userService) RecordReturn(ctx context.Context, username string, onTime bool) error {
	return s.mutate(ctx, username, func(u *domain.User) {
		if onTime {
			u.OnTimeReturns++
		} else {
			u.LateReturns++
		}
	})
}

func (s *userService) RecordRating(ctx context.Context, username string, rating int) error {
	return s.mutate(ctx, username, func(u *domain.User) {
		u.TotalRatings++
		u.RatingSum += rating
	})
}

func (s *userService) RecordDispute(ctx context.Context, username string) error {
	return s.mutate(ctx, username, func(u *domain.User) { u.DisputesAgainst++ })
}
