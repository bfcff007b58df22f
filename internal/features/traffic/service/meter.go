package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"traffic-share-client/internal/models"
)

const procNetDev = "/proc/net/dev"

// NetMeter measures bytes transmitted by the host's non-loopback interfaces
// since the first sample.
type NetMeter struct {
	path string
	now  func() time.Time

	mu       sync.Mutex
	baseline uint64
	started  bool
	lastTx   uint64
	lastAt   time.Time
}

func NewNetMeter() *NetMeter {
	return &NetMeter{path: procNetDev, now: time.Now}
}

func (m *NetMeter) Sample(ctx context.Context) (Sample, error) {
	f, err := os.Open(m.path)
	if err != nil {
		return Sample{}, fmt.Errorf("open %s: %w", m.path, err)
	}
	defer f.Close()

	tx, wireless, err := parseNetDev(f)
	if err != nil {
		return Sample{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !m.started || tx < m.lastTx {
		m.baseline = tx
		m.lastTx = tx
		m.lastAt = now
		m.started = true
	}

	var speed float64
	if elapsed := now.Sub(m.lastAt).Seconds(); elapsed > 0 {
		speed = float64(tx-m.lastTx) / bytesPerMB / elapsed
	}
	m.lastTx = tx
	m.lastAt = now

	network := models.NetworkUnknown
	if wireless {
		network = models.NetworkWiFi
	}
	return Sample{
		CumulativeMB: float64(tx-m.baseline) / bytesPerMB,
		Speed:        speed,
		NetworkType:  network,
	}, nil
}

const bytesPerMB = 1024 * 1024

// parseNetDev sums transmitted bytes over every interface except lo
func parseNetDev(r io.Reader) (tx uint64, wireless bool, err error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "lo" {
			continue
		}
		fields := strings.Fields(rest)
		// 8 receive columns, then transmit bytes
		if len(fields) < 9 {
			continue
		}
		n, err := strconv.ParseUint(fields[8], 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("parse tx bytes of %s: %w", name, err)
		}
		tx += n
		if strings.HasPrefix(name, "wl") && n > 0 {
			wireless = true
		}
	}
	return tx, wireless, sc.Err()
}
