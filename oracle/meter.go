package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

const (
	MeterModeSim  = "sim"
	MeterModeHTTP = "http"
)

// Meter reads the device's current deliverable power in watts.
type Meter interface {
	Read(ctx context.Context) (uint64, error)
}

// NewMeter builds the meter named by the config.
func NewMeter(cfg MeterConfig) (Meter, error) {
	switch cfg.Mode {
	case MeterModeSim:
		return NewSimMeter(cfg.BaselineWatts, cfg.JitterPermille, cfg.Seed), nil
	case MeterModeHTTP:
		return NewHTTPMeter(cfg.Endpoint), nil
	default:
		return nil, fmt.Errorf("unknown meter mode %q", cfg.Mode)
	}
}

// SimMeter produces a baseline reading with seeded jitter. Two meters built
// with the same seed produce the same sequence.
type SimMeter struct {
	mu             sync.Mutex
	baseline       uint64
	jitterPermille uint64
	rng            *rand.Rand
}

func NewSimMeter(baselineWatts, jitterPermille uint64, seed int64) *SimMeter {
	return &SimMeter{
		baseline:       baselineWatts,
		jitterPermille: jitterPermille,
		rng:            rand.New(rand.NewSource(seed)),
	}
}

func (m *SimMeter) Read(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	span := m.baseline * m.jitterPermille / 1000
	if span == 0 {
		return m.baseline, nil
	}
	delta := uint64(m.rng.Int63n(int64(2*span + 1)))
	return m.baseline - span + delta, nil
}

// HTTPMeter pulls readings from a metering endpoint returning
// {"watts": <n>}.
type HTTPMeter struct {
	endpoint string
	http     *http.Client
}

func NewHTTPMeter(endpoint string) *HTTPMeter {
	return &HTTPMeter{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *HTTPMeter) Read(ctx context.Context) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("meter read: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("meter read: unexpected status %d", resp.StatusCode)
	}
	var out struct {
		Watts uint64 `json:"watts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("meter read: %w", err)
	}
	return out.Watts, nil
}
