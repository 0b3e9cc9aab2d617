package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/client"
	"github.com/powergrid/powergrid-der/logger"
	"github.com/powergrid/powergrid-der/x/types"
)

// Node is one device's off-chain agent. It registers the device, polls for
// active grid events, and submits commitments read off the meter.
type Node struct {
	cfg   Config
	api   *client.Client
	meter Meter
	log   logger.Logger
	ind   Indicators

	// event id -> submission id, for log correlation
	joined map[uint64]string
}

// NewNode wires a node from its parts. A nil ind drops all counts.
func NewNode(cfg Config, api *client.Client, meter Meter, log logger.Logger, ind Indicators) *Node {
	if ind == nil {
		ind = NopIndicators{}
	}
	return &Node{
		cfg:    cfg,
		api:    api,
		meter:  meter,
		log:    log,
		ind:    ind,
		joined: make(map[uint64]string),
	}
}

// NewNodeFromConfig builds the client and meter named by the config.
func NewNodeFromConfig(cfg Config, log logger.Logger, ind Indicators) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	meter, err := NewMeter(cfg.Meter)
	if err != nil {
		return nil, err
	}
	api := client.New(cfg.API.BaseURL, cfg.SenderAccount())
	return NewNode(cfg, api, meter, log, ind), nil
}

// Run registers the device and then polls until ctx is cancelled.
func (n *Node) Run(ctx context.Context) error {
	if err := n.ensureRegistered(ctx); err != nil {
		return err
	}

	poll := time.NewTicker(time.Duration(n.cfg.Node.PollIntervalSecs) * time.Second)
	defer poll.Stop()
	heartbeat := time.NewTicker(time.Duration(n.cfg.Node.HeartbeatIntervalSecs) * time.Second)
	defer heartbeat.Stop()

	n.log.Info("oracle node running",
		logger.WithField("sender", n.api.Sender().Hex()),
		logger.WithField("poll_secs", n.cfg.Node.PollIntervalSecs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			n.heartbeat()
		case <-poll.C:
			n.scan(ctx)
		}
	}
}

// ensureRegistered registers the device if the devnet does not know it yet,
// retrying with exponential backoff until it succeeds or ctx ends.
func (n *Node) ensureRegistered(ctx context.Context) error {
	base := time.Duration(n.cfg.Node.BackoffBaseSecs) * time.Second
	max := time.Duration(n.cfg.Node.BackoffMaxSecs) * time.Second

	for attempt := 0; ; attempt++ {
		err := n.registerOnce()
		if err == nil {
			return nil
		}
		delay := backoffDelay(attempt, base, max)
		n.log.Warn("device registration failed, backing off",
			logger.WithField("error", err.Error()),
			logger.WithField("retry_in", delay.String()))
		if !sleepCtx(ctx, delay) {
			return ctx.Err()
		}
	}
}

func (n *Node) registerOnce() error {
	registered, err := n.api.IsDeviceRegistered(n.api.Sender())
	if err != nil {
		return err
	}
	if registered {
		return nil
	}

	addrs, err := n.api.Addresses()
	if err != nil {
		return err
	}
	stake := wholeTokens(n.cfg.Device.StakeTokens)
	if err := n.api.Approve(addrs.Registry, stake); err != nil {
		return fmt.Errorf("approve stake: %w", err)
	}
	if err := n.api.RegisterDevice(n.cfg.Device.Metadata(), stake); err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	n.log.Info("device registered",
		logger.WithField("sender", n.api.Sender().Hex()),
		logger.WithField("stake_tokens", n.cfg.Device.StakeTokens))
	return nil
}

// scan joins every active event the node has not committed to yet.
func (n *Node) scan(ctx context.Context) {
	events, err := n.api.GetActiveEvents()
	if err != nil {
		n.log.Warn("event scan failed", logger.WithField("error", err.Error()))
		return
	}
	for _, ev := range events {
		if _, ok := n.joined[ev.ID]; ok {
			continue
		}
		n.join(ctx, ev)
	}
}

func (n *Node) join(ctx context.Context, ev types.GridEvent) {
	watts, err := n.meter.Read(ctx)
	n.ind.IncMeterRead(err == nil)
	if err != nil {
		n.log.Warn("meter read failed",
			logger.WithField("event_id", ev.ID),
			logger.WithField("error", err.Error()))
		return
	}
	if watts > n.cfg.Device.CapacityWatts {
		watts = n.cfg.Device.CapacityWatts
	}

	committedWh := watts * ev.DurationMinutes / 60 * n.cfg.Node.CommitRatioPermille / 1000
	if committedWh == 0 {
		n.log.Info("skipping event, nothing to commit", logger.WithField("event_id", ev.ID))
		return
	}

	submission := uuid.NewString()
	err = n.api.ParticipateInEvent(ev.ID, committedWh)
	n.ind.IncParticipation(err == nil)
	if err != nil {
		n.log.Warn("participation rejected",
			logger.WithField("event_id", ev.ID),
			logger.WithField("submission", submission),
			logger.WithField("error", err.Error()))
		return
	}
	n.joined[ev.ID] = submission
	n.log.Info("committed to grid event",
		logger.WithField("event_id", ev.ID),
		logger.WithField("submission", submission),
		logger.WithField("committed_wh", committedWh))
}

func (n *Node) heartbeat() {
	err := n.api.Heartbeat()
	n.ind.IncHeartbeat(err == nil)
	if err != nil {
		n.log.Warn("heartbeat failed", logger.WithField("error", err.Error()))
	}
}

// backoffDelay doubles from base per attempt and caps at max.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func wholeTokens(n uint64) *uint256.Int {
	one := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18))
	return new(uint256.Int).Mul(uint256.NewInt(n), one)
}
