package service

import (
	"context"

	"traffic-share-client/internal/models"
)

type DashboardAPI interface {
	GetDashboard(ctx context.Context, telegramID int64) (*models.Dashboard, error)
}
