package service

import (
	"context"

	"traffic-share-client/internal/models"
)

type WithdrawAPI interface {
	CreateWithdraw(ctx context.Context, req models.WithdrawRequest) (*models.GenericResponse, error)
	ListWithdraws(ctx context.Context) (*models.WithdrawList, error)
}
