package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/powergrid/powergrid-der/chain"
	"github.com/powergrid/powergrid-der/client"
	"github.com/powergrid/powergrid-der/logger"
	"github.com/powergrid/powergrid-der/server"
	"github.com/powergrid/powergrid-der/x/types"
)

var (
	admin    = types.Account{0x01}
	operator = types.Account{0x10}
	device   = types.Account{0xaa}
)

func tok(n uint64) *uint256.Int {
	one := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18))
	return new(uint256.Int).Mul(uint256.NewInt(n), one)
}

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.API.Sender = device.Hex()
	cfg.Device.Location = "Porto, PT"
	cfg.Device.Manufacturer = "GridCo"
	cfg.Meter.JitterPermille = 0
	return cfg
}

func startDevnet(t *testing.T) (*chain.Chain, string) {
	gen := chain.DefaultGenesis(admin, device)
	gen.Operators = []types.Account{operator}
	c, err := chain.New(gen, logger.NewMockLogger())
	require.NoError(t, err)
	ts := httptest.NewServer(server.New(c, logger.NewMockLogger(), nil).Router())
	t.Cleanup(ts.Close)
	return c, ts.URL
}

func TestRegisterAndJoinEvent(t *testing.T) {
	_, baseURL := startDevnet(t)
	cfg := testConfig(baseURL)

	node, err := NewNodeFromConfig(cfg, logger.NewMockLogger(), nil)
	require.NoError(t, err)

	require.NoError(t, node.registerOnce())
	registered, err := node.api.IsDeviceRegistered(device)
	require.NoError(t, err)
	require.True(t, registered)

	// a second pass is a no-op
	require.NoError(t, node.registerOnce())

	opClient := client.New(baseURL, operator)
	eventID, err := opClient.CreateGridEvent(server.CreateEventMsg{
		EventType: types.EventDemandResponse, DurationMinutes: 60,
		Rate: tok(1), TargetReductionKW: 100, Severity: 2,
	})
	require.NoError(t, err)

	node.scan(context.Background())
	parts, err := opClient.GetParticipations(eventID)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	require.Equal(t, device, parts[0].Account)
	// baseline 1500 W over 60 min at the default 800 permille commit ratio
	require.EqualValues(t, 1200, parts[0].CommittedWh)
	require.NotEmpty(t, node.joined[eventID])

	// already joined, nothing new submitted
	node.scan(context.Background())
	parts, err = opClient.GetParticipations(eventID)
	require.NoError(t, err)
	require.Len(t, parts, 1)
}

func TestHeartbeat(t *testing.T) {
	devnet, baseURL := startDevnet(t)
	cfg := testConfig(baseURL)

	node, err := NewNodeFromConfig(cfg, logger.NewMockLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, node.registerOnce())

	require.EqualValues(t, 0, devnet.Registry.AvailabilityPermille(device))
	node.heartbeat()
	require.EqualValues(t, 1000/24, devnet.Registry.AvailabilityPermille(device))
}

func TestRunStopsOnCancel(t *testing.T) {
	_, baseURL := startDevnet(t)
	cfg := testConfig(baseURL)
	cfg.Node.PollIntervalSecs = 1
	cfg.Node.HeartbeatIntervalSecs = 1

	node, err := NewNodeFromConfig(cfg, logger.NewMockLogger(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, node.Run(ctx))
}

func TestEnsureRegisteredBacksOff(t *testing.T) {
	// an unreachable API never registers; the loop must give up on cancel
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Node.BackoffBaseSecs = 1

	node, err := NewNodeFromConfig(cfg, logger.NewMockLogger(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = node.ensureRegistered(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBackoffDelay(t *testing.T) {
	base, max := 2*time.Second, 60*time.Second
	require.Equal(t, 2*time.Second, backoffDelay(0, base, max))
	require.Equal(t, 4*time.Second, backoffDelay(1, base, max))
	require.Equal(t, 32*time.Second, backoffDelay(4, base, max))
	require.Equal(t, 60*time.Second, backoffDelay(5, base, max))
	require.Equal(t, 60*time.Second, backoffDelay(50, base, max))
}

func TestSimMeterDeterministic(t *testing.T) {
	a := NewSimMeter(1500, 100, 7)
	b := NewSimMeter(1500, 100, 7)
	for i := 0; i < 10; i++ {
		ra, err := a.Read(context.Background())
		require.NoError(t, err)
		rb, err := b.Read(context.Background())
		require.NoError(t, err)
		require.Equal(t, ra, rb)
		require.InDelta(t, 1500, float64(ra), 150)
	}
}

func TestHTTPMeter(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"watts": 2250}`))
	}))
	defer ts.Close()

	m := NewHTTPMeter(ts.URL)
	watts, err := m.Read(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2250, watts)

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	_, err = NewHTTPMeter(bad.URL).Read(context.Background())
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oracle.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[api]
base_url = "http://localhost:9999"
sender = "`+device.Hex()+`"

[device]
type = "solar_panel"
capacity_watts = 3000
location = "Lisbon, PT"
manufacturer = "SunCo"

[meter]
mode = "sim"
baseline_watts = 900
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "http://localhost:9999", cfg.API.BaseURL)
	require.Equal(t, device, cfg.SenderAccount())
	require.Equal(t, types.DeviceSolarPanel, cfg.Device.Metadata().DeviceType)
	require.EqualValues(t, 900, cfg.Meter.BaselineWatts)
	// defaults fill the rest
	require.EqualValues(t, 800, cfg.Node.CommitRatioPermille)
	require.EqualValues(t, 5, cfg.Node.PollIntervalSecs)
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig("http://localhost:8480")
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.API.Sender = "not-an-address"
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Meter.Mode = "psychic"
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Meter.Mode = MeterModeHTTP
	bad.Meter.Endpoint = ""
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Node.CommitRatioPermille = 1500
	require.Error(t, bad.Validate())
}
