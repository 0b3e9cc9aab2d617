// Package server exposes the devnet chain over HTTP. Transactions are JSON
// execute envelopes posted per contract with the caller address in the
// X-Sender header; reads are plain GETs. Every response uses the
// {code, msg, data} envelope.
package server

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/powergrid/powergrid-der/chain"
	"github.com/powergrid/powergrid-der/logger"
	"github.com/powergrid/powergrid-der/x/host"
	"github.com/powergrid/powergrid-der/x/types"
)

type response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, response{Code: 0, Msg: "ok", Data: data})
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, response{Code: 1, Msg: err.Error()})
}

// statusFor maps the contract error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, host.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, host.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, host.ErrInvalidArgument), errors.Is(err, host.ErrZeroAmount):
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

type Server struct {
	mu    sync.Mutex
	chain *chain.Chain
	log   logger.Logger
	ind   Indicators
}

func New(c *chain.Chain, log logger.Logger, ind Indicators) *Server {
	if ind == nil {
		ind = NopIndicators{}
	}
	return &Server{chain: c, log: log, ind: ind}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/addresses", s.getAddresses)
	v1.GET("/time", s.getTime)
	v1.POST("/time/advance", s.advanceTime)

	v1.POST("/tx/token", s.txToken)
	v1.POST("/tx/registry", s.txRegistry)
	v1.POST("/tx/grid", s.txGrid)
	v1.POST("/tx/gov", s.txGov)

	v1.GET("/token/balance/:addr", s.getBalance)
	v1.GET("/token/supply", s.getSupply)
	v1.GET("/registry/device/:addr", s.getDevice)
	v1.GET("/registry/params", s.getRegistryParams)
	v1.GET("/grid/events", s.getActiveEvents)
	v1.GET("/grid/event/:id", s.getEvent)
	v1.GET("/grid/event/:id/participations", s.getParticipations)
	v1.GET("/grid/totals", s.getTotals)
	v1.GET("/gov/proposal/:id", s.getProposal)
	v1.GET("/events", s.getEvents)

	return r
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("api listening", logger.WithField("addr", addr))
	return s.Router().Run(addr)
}

// sender parses the caller address from the X-Sender header.
func sender(c *gin.Context) (types.Account, bool) {
	raw := c.GetHeader("X-Sender")
	if !common.IsHexAddress(raw) {
		fail(c, http.StatusBadRequest, errors.New("missing or invalid X-Sender header"))
		return types.Account{}, false
	}
	return common.HexToAddress(raw), true
}

// tx runs one state-mutating call serialized against all others, mirroring
// the host chain's one-transaction-at-a-time model.
func (s *Server) tx(c *gin.Context, contract string, call func(env host.Env) (interface{}, error)) {
	from, okSender := sender(c)
	if !okSender {
		s.ind.IncTx(contract, false)
		return
	}
	s.mu.Lock()
	data, err := call(s.chain.Env(from))
	s.mu.Unlock()
	if err != nil {
		s.ind.IncTx(contract, false)
		s.log.Warn("tx failed",
			logger.WithField("contract", contract),
			logger.WithField("sender", from.Hex()),
			logger.WithField("error", err.Error()),
		)
		fail(c, statusFor(err), err)
		return
	}
	s.ind.IncTx(contract, true)
	ok(c, data)
}

// ---------------------------------------------------------------------------
// Chain meta

func (s *Server) getAddresses(c *gin.Context) {
	s.ind.IncQuery("addresses")
	ok(c, s.chain.Addresses())
}

func (s *Server) getTime(c *gin.Context) {
	s.ind.IncQuery("time")
	ok(c, gin.H{"now": s.chain.Now()})
}

func (s *Server) advanceTime(c *gin.Context) {
	var body struct {
		Secs uint64 `json:"secs"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	ok(c, gin.H{"now": s.chain.Advance(body.Secs)})
}

// ---------------------------------------------------------------------------
// Transactions

func (s *Server) txToken(c *gin.Context) {
	var msg TokenExecuteMsg
	if err := c.ShouldBindJSON(&msg); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	s.tx(c, "token", func(env host.Env) (interface{}, error) {
		t := s.chain.Token
		switch {
		case msg.Transfer != nil:
			return nil, t.Transfer(env, msg.Transfer.To, msg.Transfer.Amount)
		case msg.TransferFrom != nil:
			return nil, t.TransferFrom(env, msg.TransferFrom.Owner, msg.TransferFrom.To, msg.TransferFrom.Amount)
		case msg.Approve != nil:
			return nil, t.Approve(env, msg.Approve.Spender, msg.Approve.Amount)
		case msg.Mint != nil:
			return nil, t.Mint(env, msg.Mint.To, msg.Mint.Amount, msg.Mint.Reason)
		case msg.Burn != nil:
			return nil, t.Burn(env, msg.Burn.From, msg.Burn.Amount, msg.Burn.Reason)
		case msg.SetPaused != nil:
			return nil, t.SetPaused(env, msg.SetPaused.Paused)
		case msg.AddMinter != nil:
			return nil, t.AddMinter(env, msg.AddMinter.Account)
		case msg.RemoveMinter != nil:
			return nil, t.RemoveMinter(env, msg.RemoveMinter.Account)
		case msg.AddBurner != nil:
			return nil, t.AddBurner(env, msg.AddBurner.Account)
		case msg.RemoveBurner != nil:
			return nil, t.RemoveBurner(env, msg.RemoveBurner.Account)
		case msg.Freeze != nil:
			return nil, t.Freeze(env, msg.Freeze.Account)
		case msg.Unfreeze != nil:
			return nil, t.Unfreeze(env, msg.Unfreeze.Account)
		case msg.SetTransferCap != nil:
			return nil, t.SetTransferCap(env, msg.SetTransferCap.Cap)
		case msg.SetDailyCap != nil:
			return nil, t.SetDailyCap(env, msg.SetDailyCap.Cap)
		case msg.Snapshot != nil:
			id, err := t.Snapshot(env)
			return gin.H{"snapshot_id": id}, err
		default:
			return nil, host.ErrInvalidArgument
		}
	})
}

func (s *Server) txRegistry(c *gin.Context) {
	var msg RegistryExecuteMsg
	if err := c.ShouldBindJSON(&msg); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	s.tx(c, "registry", func(env host.Env) (interface{}, error) {
		r := s.chain.Registry
		switch {
		case msg.RegisterDevice != nil:
			return nil, r.RegisterDevice(env, msg.RegisterDevice.Metadata, msg.RegisterDevice.Stake)
		case msg.IncreaseStake != nil:
			return nil, r.IncreaseStake(env, msg.IncreaseStake.Amount)
		case msg.WithdrawStake != nil:
			return nil, r.WithdrawStake(env, msg.WithdrawStake.Amount)
		case msg.SlashStake != nil:
			return nil, r.SlashStake(env, msg.SlashStake.Account, msg.SlashStake.Amount, msg.SlashStake.Reason)
		case msg.UpdateMetadata != nil:
			return nil, r.UpdateDeviceMetadata(env, msg.UpdateMetadata.Metadata)
		case msg.Heartbeat != nil:
			return nil, r.RecordHeartbeat(env, msg.Heartbeat.Account)
		default:
			return nil, host.ErrInvalidArgument
		}
	})
}

func (s *Server) txGrid(c *gin.Context) {
	var msg GridExecuteMsg
	if err := c.ShouldBindJSON(&msg); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	s.tx(c, "grid", func(env host.Env) (interface{}, error) {
		g := s.chain.Grid
		switch {
		case msg.CreateEvent != nil:
			id, err := g.CreateGridEvent(env, msg.CreateEvent.EventType, msg.CreateEvent.DurationMinutes,
				msg.CreateEvent.Rate, msg.CreateEvent.TargetReductionKW, msg.CreateEvent.Severity)
			return gin.H{"event_id": id}, err
		case msg.Participate != nil:
			return nil, g.ParticipateInEvent(env, msg.Participate.EventID, msg.Participate.CommittedWh)
		case msg.Verify != nil:
			return nil, g.VerifyParticipation(env, msg.Verify.EventID, msg.Verify.Account, msg.Verify.ActualWh)
		case msg.DistributeRewards != nil:
			reward, err := g.VerifyAndDistributeRewards(env, msg.DistributeRewards.EventID,
				msg.DistributeRewards.Account, msg.DistributeRewards.ActualWh)
			return gin.H{"reward": reward}, err
		case msg.DistributeBatch != nil:
			return nil, g.DistributeRewardsBatch(env, msg.DistributeBatch.EventID, msg.DistributeBatch.Accounts, msg.DistributeBatch.Actuals)
		case msg.CompleteEvent != nil:
			return nil, g.CompleteGridEvent(env, msg.CompleteEvent.EventID)
		case msg.CancelEvent != nil:
			return nil, g.CancelGridEvent(env, msg.CancelEvent.EventID, msg.CancelEvent.Reason)
		case msg.IngestSignal != nil:
			return nil, g.IngestGridSignal(env, msg.IngestSignal.Signal)
		case msg.AddRule != nil:
			id, err := g.AddTriggerRule(env, msg.AddRule.Predicate, msg.AddRule.Template, msg.AddRule.CooldownSecs)
			return gin.H{"rule_id": id}, err
		case msg.RemoveRule != nil:
			return nil, g.RemoveTriggerRule(env, msg.RemoveRule.RuleID)
		case msg.SetPaused != nil:
			return nil, g.SetPaused(env, msg.SetPaused.Paused)
		default:
			return nil, host.ErrInvalidArgument
		}
	})
}

func (s *Server) txGov(c *gin.Context) {
	var msg GovExecuteMsg
	if err := c.ShouldBindJSON(&msg); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	s.tx(c, "gov", func(env host.Env) (interface{}, error) {
		g := s.chain.Governance
		switch {
		case msg.CreateProposal != nil:
			id, err := g.CreateProposal(env, msg.CreateProposal.Action, msg.CreateProposal.Description)
			return gin.H{"proposal_id": id}, err
		case msg.Vote != nil:
			return nil, g.Vote(env, msg.Vote.ProposalID, msg.Vote.Support)
		case msg.Finalize != nil:
			return nil, g.Finalize(env, msg.Finalize.ProposalID)
		case msg.Queue != nil:
			return nil, g.QueueProposal(env, msg.Queue.ProposalID)
		case msg.Execute != nil:
			return nil, g.ExecuteProposal(env, msg.Execute.ProposalID)
		case msg.Cancel != nil:
			return nil, g.CancelProposal(env, msg.Cancel.ProposalID)
		default:
			return nil, host.ErrInvalidArgument
		}
	})
}

// ---------------------------------------------------------------------------
// Queries

func addrParam(c *gin.Context) (types.Account, bool) {
	raw := c.Param("addr")
	if !common.IsHexAddress(raw) {
		fail(c, http.StatusBadRequest, errors.New("invalid address"))
		return types.Account{}, false
	}
	return common.HexToAddress(raw), true
}

func idParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}

func (s *Server) getBalance(c *gin.Context) {
	s.ind.IncQuery("token_balance")
	a, okAddr := addrParam(c)
	if !okAddr {
		return
	}
	ok(c, gin.H{"balance": s.chain.Token.BalanceOf(a)})
}

func (s *Server) getSupply(c *gin.Context) {
	s.ind.IncQuery("token_supply")
	ok(c, gin.H{
		"total_supply": s.chain.Token.TotalSupply(),
		"minted":       s.chain.Token.TotalMinted(),
		"burned":       s.chain.Token.TotalBurned(),
	})
}

func (s *Server) getDevice(c *gin.Context) {
	s.ind.IncQuery("registry_device")
	a, okAddr := addrParam(c)
	if !okAddr {
		return
	}
	d, found := s.chain.Registry.GetDevice(a)
	if !found {
		fail(c, http.StatusNotFound, host.ErrNotFound)
		return
	}
	ok(c, d)
}

func (s *Server) getRegistryParams(c *gin.Context) {
	s.ind.IncQuery("registry_params")
	ok(c, gin.H{
		"min_stake":            s.chain.Registry.MinStake(),
		"reputation_threshold": s.chain.Registry.ReputationThreshold(),
		"device_count":         s.chain.Registry.GetDeviceCount(),
		"total_staked":         s.chain.Registry.TotalStaked(),
	})
}

func (s *Server) getActiveEvents(c *gin.Context) {
	s.ind.IncQuery("grid_events")
	ok(c, s.chain.Grid.GetActiveEvents())
}

func (s *Server) getEvent(c *gin.Context) {
	s.ind.IncQuery("grid_event")
	id, okID := idParam(c)
	if !okID {
		return
	}
	ev, found := s.chain.Grid.GetEvent(id)
	if !found {
		fail(c, http.StatusNotFound, host.ErrNotFound)
		return
	}
	ok(c, ev)
}

func (s *Server) getParticipations(c *gin.Context) {
	s.ind.IncQuery("grid_participations")
	id, okID := idParam(c)
	if !okID {
		return
	}
	ok(c, s.chain.Grid.GetEventParticipations(id))
}

func (s *Server) getTotals(c *gin.Context) {
	s.ind.IncQuery("grid_totals")
	ok(c, s.chain.Grid.GetTotals())
}

func (s *Server) getProposal(c *gin.Context) {
	s.ind.IncQuery("gov_proposal")
	id, okID := idParam(c)
	if !okID {
		return
	}
	p, found := s.chain.Governance.GetProposal(id)
	if !found {
		fail(c, http.StatusNotFound, host.ErrNotFound)
		return
	}
	ok(c, p)
}

func (s *Server) getEvents(c *gin.Context) {
	s.ind.IncQuery("events")
	after, _ := strconv.ParseUint(c.DefaultQuery("after", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	events := s.chain.EventsSince(after)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	ok(c, events)
}
