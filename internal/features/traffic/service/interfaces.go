package service

import (
	"context"

	"traffic-share-client/internal/models"
)

type SessionAPI interface {
	StartSession(ctx context.Context, req models.SessionStartRequest) (*models.GenericResponse, error)
	StopSession(ctx context.Context, sessionID models.SessionID) (*models.GenericResponse, error)
}

type TelemetryAPI interface {
	ReportTelemetry(ctx context.Context, req models.TelemetryReport) (*models.GenericResponse, error)
}

// Meter reads the local traffic counters
type Meter interface {
	Sample(ctx context.Context) (Sample, error)
}

type Sample struct {
	// CumulativeMB is the total shared since the meter started
	CumulativeMB float64
	// Speed in MB/s
	Speed        float64
	BatteryLevel *int
	NetworkType  string
}
