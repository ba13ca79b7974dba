package service

import (
	"context"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/repository"
)

type transactionService struct {
	repo repository.TransactionRepository
}

func NewTransactionService(repo repository.TransactionRepository) TransactionService {
	return &transactionService{repo: repo}
}

// ListMine returns loans where the actor is the borrower or the lender.
func (s *transactionService) ListMine(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Transaction, int32, error) {
	return s.repo.ListByUser(ctx, actor.ID, page, pageSize)
}
