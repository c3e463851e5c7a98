package service

import (
	"context"

	"civichub/internal/models"
	"civichub/internal/repository"
)

type AdminService struct {
	userRepo  repository.UserRepository
	issueRepo repository.IssueRepository
}

// AdminOverview is the read-only admin page content.
type AdminOverview struct {
	Users      []models.User
	UserCount  int64
	IssueCount int64
}

func NewAdminService(userRepo repository.UserRepository, issueRepo repository.IssueRepository) *AdminService {
	return &AdminService{userRepo: userRepo, issueRepo: issueRepo}
}

// Overview lists all users, newest first, with user and issue totals.
func (s *AdminService) Overview(ctx context.Context) (*AdminOverview, error) {
	users, err := s.userRepo.ListNewestFirst(ctx)
	if err != nil {
		return nil, err
	}
	userCount, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	issueCount, err := s.issueRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminOverview{Users: users, UserCount: userCount, IssueCount: issueCount}, nil
}
