package service

import (
	"context"

	"traffic-share-client/internal/models"
)

type BalanceAPI interface {
	GetBalance(ctx context.Context, telegramID int64) (*models.BalanceOverview, error)
	RefreshBalance(ctx context.Context, telegramID int64) (*models.GenericResponse, error)
	ListTransactions(ctx context.Context, page models.Page) (*models.TransactionList, error)
}
