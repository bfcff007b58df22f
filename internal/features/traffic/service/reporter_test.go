package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/models"
)

type fakeTelemetryAPI struct {
	reports []models.TelemetryReport
	fail    bool
}

func (f *fakeTelemetryAPI) ReportTelemetry(ctx context.Context, req models.TelemetryReport) (*models.GenericResponse, error) {
	f.reports = append(f.reports, req)
	if f.fail {
		return nil, errors.FromStatus(500, "")
	}
	return &models.GenericResponse{Status: "ok"}, nil
}

// stepMeter returns the given cumulative values in order
type stepMeter struct {
	values []float64
	i      int
}

func (m *stepMeter) Sample(ctx context.Context) (Sample, error) {
	v := m.values[m.i]
	if m.i < len(m.values)-1 {
		m.i++
	}
	return Sample{CumulativeMB: v, Speed: 0.5, NetworkType: models.NetworkMobile}, nil
}

func activeController(t *testing.T) *Controller {
	t.Helper()
	c := NewController(&fakeSessionAPI{}, "device-1")
	_, err := c.Start(context.Background(), models.SessionStartRequest{})
	require.NoError(t, err)
	return c
}

func TestReporterSequenceAndDelta(t *testing.T) {
	api := &fakeTelemetryAPI{}
	r := NewReporter(api, activeController(t), &stepMeter{values: []float64{1, 3, 3.5}}, "device-1", time.Second)

	for i := 0; i < 3; i++ {
		assert.True(t, r.Tick(context.Background()))
	}

	require.Len(t, api.reports, 3)
	for i, rep := range api.reports {
		assert.Equal(t, i+1, rep.SequenceNumber)
		assert.Equal(t, models.SessionID("101"), rep.SessionID)
		assert.Equal(t, "device-1", rep.DeviceID)
	}
	assert.InDelta(t, 1.0, api.reports[0].DeltaMB, 1e-9)
	assert.InDelta(t, 2.0, api.reports[1].DeltaMB, 1e-9)
	assert.InDelta(t, 0.5, api.reports[2].DeltaMB, 1e-9)
	assert.Equal(t, 3.5, api.reports[2].CumulativeMB)
}

func TestReporterFailureDoesNotStopSession(t *testing.T) {
	api := &fakeTelemetryAPI{fail: true}
	ctrl := activeController(t)
	r := NewReporter(api, ctrl, &stepMeter{values: []float64{1, 2}}, "device-1", time.Second)

	assert.True(t, r.Tick(context.Background()))
	api.fail = false
	assert.True(t, r.Tick(context.Background()))

	require.Len(t, api.reports, 2)
	assert.Equal(t, 1, api.reports[0].SequenceNumber)
	assert.Equal(t, 1, api.reports[1].SequenceNumber)
	// the failed sample is carried into the next delta
	assert.InDelta(t, 2.0, api.reports[1].DeltaMB, 1e-9)
	assert.True(t, ctrl.State().Active)
}

func TestReporterSequenceHasNoGapsAfterFailure(t *testing.T) {
	api := &fakeTelemetryAPI{}
	ctrl := activeController(t)
	r := NewReporter(api, ctrl, &stepMeter{values: []float64{1, 2, 3, 4}}, "device-1", time.Second)
	ctx := context.Background()

	assert.True(t, r.Tick(ctx))
	api.fail = true
	assert.True(t, r.Tick(ctx))
	assert.True(t, r.Tick(ctx))
	api.fail = false
	assert.True(t, r.Tick(ctx))

	require.Len(t, api.reports, 4)
	var got []int
	for _, rep := range api.reports {
		got = append(got, rep.SequenceNumber)
	}
	assert.Equal(t, []int{1, 2, 2, 2}, got)
	assert.Equal(t, 2, r.sequence)
	assert.InDelta(t, 3.0, api.reports[3].DeltaMB, 1e-9)
}

func TestReporterStopsWhenIdle(t *testing.T) {
	api := &fakeTelemetryAPI{}
	ctrl := activeController(t)
	_, err := ctrl.Stop(context.Background())
	require.NoError(t, err)

	r := NewReporter(api, ctrl, &stepMeter{values: []float64{1}}, "device-1", time.Millisecond)
	require.NoError(t, r.Run(context.Background()))
	assert.Empty(t, api.reports)
}

func TestReporterRunHonoursContext(t *testing.T) {
	api := &fakeTelemetryAPI{}
	r := NewReporter(api, activeController(t), &stepMeter{values: []float64{1}}, "device-1", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
}

func TestReporterDefaultInterval(t *testing.T) {
	r := NewReporter(&fakeTelemetryAPI{}, activeController(t), &stepMeter{values: []float64{0}}, "d", 0)
	assert.Equal(t, DefaultReportInterval, r.interval)
}

const netDevFixture = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo: 1000      10    0    0    0     0          0         0     1000      10    0    0    0     0       0          0
  eth0: 5000      50    0    0    0     0          0         0  2097152      40    0    0    0     0       0          0
wlan0: 100       1    0    0    0     0          0         0  1048576       2    0    0    0     0       0          0
`

func TestParseNetDev(t *testing.T) {
	tx, wireless, err := parseNetDev(strings.NewReader(netDevFixture))
	require.NoError(t, err)
	assert.Equal(t, uint64(3*1024*1024), tx)
	assert.True(t, wireless)
}
