package service

import (
	"context"
	"time"

	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/models"
)

const DefaultReportInterval = 3 * time.Second

// Reporter posts telemetry for the controller's active session
type Reporter struct {
	api      TelemetryAPI
	ctrl     *Controller
	meter    Meter
	deviceID string
	interval time.Duration
	now      func() time.Time

	session  models.SessionID
	sequence int
	lastMB   float64
}

func NewReporter(api TelemetryAPI, ctrl *Controller, meter Meter, deviceID string, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	return &Reporter{
		api:      api,
		ctrl:     ctrl,
		meter:    meter,
		deviceID: deviceID,
		interval: interval,
		now:      time.Now,
	}
}

// Run reports every interval until ctx is done or the session goes idle
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !r.Tick(ctx) {
				return nil
			}
		}
	}
}

// Tick sends one report. It returns false once there is no active session.
// Failed reports are logged and skipped.
func (r *Reporter) Tick(ctx context.Context) bool {
	st := r.ctrl.State()
	if !st.Active {
		return false
	}
	if st.SessionID == "" {
		return true
	}

	if st.SessionID != r.session {
		r.session = st.SessionID
		r.sequence = 0
		r.lastMB = 0
	}

	sample, err := r.meter.Sample(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read traffic counters")
		return true
	}

	delta := sample.CumulativeMB - r.lastMB
	if delta < 0 {
		// counters were reset
		delta = sample.CumulativeMB
	}
	// a number is consumed only by an accepted report
	seq := r.sequence + 1

	report := models.TelemetryReport{
		SessionID:      st.SessionID,
		DeviceID:       r.deviceID,
		SequenceNumber: seq,
		DeltaMB:        delta,
		CumulativeMB:   sample.CumulativeMB,
		Speed:          sample.Speed,
		BatteryLevel:   sample.BatteryLevel,
		NetworkType:    sample.NetworkType,
		Timestamp:      r.now().UTC().Format(time.RFC3339),
	}
	if _, err := r.api.ReportTelemetry(ctx, report); err != nil {
		logger.Warn().
			Err(err).
			Str("session_id", st.SessionID.String()).
			Int("sequence", seq).
			Msg("Telemetry report failed")
		return true
	}
	r.sequence = seq
	r.lastMB = sample.CumulativeMB

	logger.Debug().
		Str("session_id", st.SessionID.String()).
		Int("sequence", r.sequence).
		Float64("delta_mb", delta).
		Msg("Telemetry reported")
	return true
}
