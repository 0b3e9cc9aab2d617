// Package client is a typed wrapper over the devnet HTTP API. One Client is
// bound to a sender address; every transaction it submits carries that
// address in the X-Sender header.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/chain"
	"github.com/powergrid/powergrid-der/server"
	"github.com/powergrid/powergrid-der/x/types"
)

type Client struct {
	base   string
	sender types.Account
	http   *http.Client
}

// New builds a client for the API at base (e.g. "http://localhost:8480")
// acting as sender.
func New(base string, sender types.Account) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		sender: sender,
		http:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Sender returns the bound sender address.
func (c *Client) Sender() types.Account { return c.sender }

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// APIError is a non-zero response envelope.
type APIError struct {
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (http %d): %s", e.Status, e.Msg)
}

func (c *Client) call(method, path string, body, out interface{}) error {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost {
		req.Header.Set("X-Sender", c.sender.Hex())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Code != 0 {
		return &APIError{Status: resp.StatusCode, Msg: env.Msg}
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Chain meta

func (c *Client) Addresses() (chain.Addresses, error) {
	var out chain.Addresses
	err := c.call(http.MethodGet, "/v1/addresses", nil, &out)
	return out, err
}

func (c *Client) Now() (uint64, error) {
	var out struct {
		Now uint64 `json:"now"`
	}
	err := c.call(http.MethodGet, "/v1/time", nil, &out)
	return out.Now, err
}

func (c *Client) AdvanceTime(secs uint64) (uint64, error) {
	var out struct {
		Now uint64 `json:"now"`
	}
	err := c.call(http.MethodPost, "/v1/time/advance", map[string]uint64{"secs": secs}, &out)
	return out.Now, err
}

// ---------------------------------------------------------------------------
// Token

func (c *Client) Transfer(to types.Account, amount *uint256.Int) error {
	return c.call(http.MethodPost, "/v1/tx/token", server.TokenExecuteMsg{
		Transfer: &server.TransferMsg{To: to, Amount: amount},
	}, nil)
}

func (c *Client) Approve(spender types.Account, amount *uint256.Int) error {
	return c.call(http.MethodPost, "/v1/tx/token", server.TokenExecuteMsg{
		Approve: &server.ApproveMsg{Spender: spender, Amount: amount},
	}, nil)
}

func (c *Client) TransferFrom(owner, to types.Account, amount *uint256.Int) error {
	return c.call(http.MethodPost, "/v1/tx/token", server.TokenExecuteMsg{
		TransferFrom: &server.TransferFromMsg{Owner: owner, To: to, Amount: amount},
	}, nil)
}

func (c *Client) Mint(to types.Account, amount *uint256.Int, reason string) error {
	return c.call(http.MethodPost, "/v1/tx/token", server.TokenExecuteMsg{
		Mint: &server.MintMsg{To: to, Amount: amount, Reason: reason},
	}, nil)
}

func (c *Client) Burn(from types.Account, amount *uint256.Int, reason string) error {
	return c.call(http.MethodPost, "/v1/tx/token", server.TokenExecuteMsg{
		Burn: &server.BurnMsg{From: from, Amount: amount, Reason: reason},
	}, nil)
}

func (c *Client) SetTokenPaused(paused bool) error {
	return c.call(http.MethodPost, "/v1/tx/token", server.TokenExecuteMsg{
		SetPaused: &server.SetPausedMsg{Paused: paused},
	}, nil)
}

func (c *Client) Freeze(a types.Account) error {
	return c.call(http.MethodPost, "/v1/tx/token", server.TokenExecuteMsg{
		Freeze: &server.AccountMsg{Account: a},
	}, nil)
}

func (c *Client) Unfreeze(a types.Account) error {
	return c.call(http.MethodPost, "/v1/tx/token", server.TokenExecuteMsg{
		Unfreeze: &server.AccountMsg{Account: a},
	}, nil)
}

func (c *Client) Snapshot() (uint64, error) {
	var out struct {
		SnapshotID uint64 `json:"snapshot_id"`
	}
	err := c.call(http.MethodPost, "/v1/tx/token", server.TokenExecuteMsg{
		Snapshot: &struct{}{},
	}, &out)
	return out.SnapshotID, err
}

func (c *Client) BalanceOf(a types.Account) (*uint256.Int, error) {
	var out struct {
		Balance *uint256.Int `json:"balance"`
	}
	err := c.call(http.MethodGet, "/v1/token/balance/"+a.Hex(), nil, &out)
	return out.Balance, err
}

func (c *Client) TotalSupply() (*uint256.Int, error) {
	var out struct {
		TotalSupply *uint256.Int `json:"total_supply"`
	}
	err := c.call(http.MethodGet, "/v1/token/supply", nil, &out)
	return out.TotalSupply, err
}

// ---------------------------------------------------------------------------
// Registry

func (c *Client) RegisterDevice(metadata types.DeviceMetadata, stake *uint256.Int) error {
	return c.call(http.MethodPost, "/v1/tx/registry", server.RegistryExecuteMsg{
		RegisterDevice: &server.RegisterDeviceMsg{Metadata: metadata, Stake: stake},
	}, nil)
}

func (c *Client) IncreaseStake(amount *uint256.Int) error {
	return c.call(http.MethodPost, "/v1/tx/registry", server.RegistryExecuteMsg{
		IncreaseStake: &server.StakeMsg{Amount: amount},
	}, nil)
}

func (c *Client) WithdrawStake(amount *uint256.Int) error {
	return c.call(http.MethodPost, "/v1/tx/registry", server.RegistryExecuteMsg{
		WithdrawStake: &server.StakeMsg{Amount: amount},
	}, nil)
}

func (c *Client) SlashStake(account types.Account, amount *uint256.Int, reason string) error {
	return c.call(http.MethodPost, "/v1/tx/registry", server.RegistryExecuteMsg{
		SlashStake: &server.SlashMsg{Account: account, Amount: amount, Reason: reason},
	}, nil)
}

func (c *Client) UpdateDeviceMetadata(metadata types.DeviceMetadata) error {
	return c.call(http.MethodPost, "/v1/tx/registry", server.RegistryExecuteMsg{
		UpdateMetadata: &server.UpdateMetadataMsg{Metadata: metadata},
	}, nil)
}

// RegistryParams is the /v1/registry/params payload.
type RegistryParams struct {
	MinStake            *uint256.Int `json:"min_stake"`
	ReputationThreshold uint32       `json:"reputation_threshold"`
	DeviceCount         uint64       `json:"device_count"`
	TotalStaked         *uint256.Int `json:"total_staked"`
}

func (c *Client) GetRegistryParams() (RegistryParams, error) {
	var out RegistryParams
	err := c.call(http.MethodGet, "/v1/registry/params", nil, &out)
	return out, err
}

func (c *Client) Heartbeat() error {
	return c.call(http.MethodPost, "/v1/tx/registry", server.RegistryExecuteMsg{
		Heartbeat: &server.HeartbeatMsg{Account: c.sender},
	}, nil)
}

func (c *Client) GetDevice(a types.Account) (types.Device, error) {
	var out types.Device
	err := c.call(http.MethodGet, "/v1/registry/device/"+a.Hex(), nil, &out)
	return out, err
}

// IsDeviceRegistered reports whether the account has an active device.
func (c *Client) IsDeviceRegistered(a types.Account) (bool, error) {
	d, err := c.GetDevice(a)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return d.Active, nil
}

// ---------------------------------------------------------------------------
// Grid service

func (c *Client) CreateGridEvent(msg server.CreateEventMsg) (uint64, error) {
	var out struct {
		EventID uint64 `json:"event_id"`
	}
	err := c.call(http.MethodPost, "/v1/tx/grid", server.GridExecuteMsg{CreateEvent: &msg}, &out)
	return out.EventID, err
}

func (c *Client) ParticipateInEvent(eventID, committedWh uint64) error {
	return c.call(http.MethodPost, "/v1/tx/grid", server.GridExecuteMsg{
		Participate: &server.ParticipateMsg{EventID: eventID, CommittedWh: committedWh},
	}, nil)
}

func (c *Client) VerifyAndDistributeRewards(eventID uint64, account types.Account, actualWh uint64) error {
	return c.call(http.MethodPost, "/v1/tx/grid", server.GridExecuteMsg{
		DistributeRewards: &server.VerifyMsg{EventID: eventID, Account: account, ActualWh: actualWh},
	}, nil)
}

func (c *Client) VerifyParticipation(eventID uint64, account types.Account, actualWh uint64) error {
	return c.call(http.MethodPost, "/v1/tx/grid", server.GridExecuteMsg{
		Verify: &server.VerifyMsg{EventID: eventID, Account: account, ActualWh: actualWh},
	}, nil)
}

func (c *Client) DistributeRewardsBatch(eventID uint64, accounts []types.Account, actuals []uint64) error {
	return c.call(http.MethodPost, "/v1/tx/grid", server.GridExecuteMsg{
		DistributeBatch: &server.BatchDistributeMsg{EventID: eventID, Accounts: accounts, Actuals: actuals},
	}, nil)
}

func (c *Client) CompleteGridEvent(eventID uint64) error {
	return c.call(http.MethodPost, "/v1/tx/grid", server.GridExecuteMsg{
		CompleteEvent: &server.EventIDMsg{EventID: eventID},
	}, nil)
}

func (c *Client) CancelGridEvent(eventID uint64, reason string) error {
	return c.call(http.MethodPost, "/v1/tx/grid", server.GridExecuteMsg{
		CancelEvent: &server.CancelEventMsg{EventID: eventID, Reason: reason},
	}, nil)
}

func (c *Client) AddTriggerRule(predicate types.RulePredicate, template types.RuleTemplate, cooldownSecs uint64) (uint64, error) {
	var out struct {
		RuleID uint64 `json:"rule_id"`
	}
	err := c.call(http.MethodPost, "/v1/tx/grid", server.GridExecuteMsg{
		AddRule: &server.AddRuleMsg{Predicate: predicate, Template: template, CooldownSecs: cooldownSecs},
	}, &out)
	return out.RuleID, err
}

func (c *Client) RemoveTriggerRule(ruleID uint64) error {
	return c.call(http.MethodPost, "/v1/tx/grid", server.GridExecuteMsg{
		RemoveRule: &server.RuleIDMsg{RuleID: ruleID},
	}, nil)
}

func (c *Client) SetGridPaused(paused bool) error {
	return c.call(http.MethodPost, "/v1/tx/grid", server.GridExecuteMsg{
		SetPaused: &server.SetPausedMsg{Paused: paused},
	}, nil)
}

func (c *Client) IngestGridSignal(signal types.GridSignal) error {
	return c.call(http.MethodPost, "/v1/tx/grid", server.GridExecuteMsg{
		IngestSignal: &server.SignalMsg{Signal: signal},
	}, nil)
}

func (c *Client) GetActiveEvents() ([]types.GridEvent, error) {
	var out []types.GridEvent
	err := c.call(http.MethodGet, "/v1/grid/events", nil, &out)
	return out, err
}

func (c *Client) GetEvent(eventID uint64) (types.GridEvent, error) {
	var out types.GridEvent
	err := c.call(http.MethodGet, fmt.Sprintf("/v1/grid/event/%d", eventID), nil, &out)
	return out, err
}

// GridTotals is the /v1/grid/totals payload.
type GridTotals struct {
	Events         uint64       `json:"events"`
	Participations uint64       `json:"participations"`
	EnergyWh       uint64       `json:"energy_wh"`
	RewardsMinted  *uint256.Int `json:"rewards_minted"`
}

func (c *Client) GetTotals() (GridTotals, error) {
	var out GridTotals
	err := c.call(http.MethodGet, "/v1/grid/totals", nil, &out)
	return out, err
}

func (c *Client) GetParticipations(eventID uint64) ([]types.Participation, error) {
	var out []types.Participation
	err := c.call(http.MethodGet, fmt.Sprintf("/v1/grid/event/%d/participations", eventID), nil, &out)
	return out, err
}

// ---------------------------------------------------------------------------
// Governance

func (c *Client) CreateProposal(action types.ProposalAction, description string) (uint64, error) {
	var out struct {
		ProposalID uint64 `json:"proposal_id"`
	}
	err := c.call(http.MethodPost, "/v1/tx/gov", server.GovExecuteMsg{
		CreateProposal: &server.CreateProposalMsg{Action: action, Description: description},
	}, &out)
	return out.ProposalID, err
}

func (c *Client) Vote(proposalID uint64, support bool) error {
	return c.call(http.MethodPost, "/v1/tx/gov", server.GovExecuteMsg{
		Vote: &server.VoteMsg{ProposalID: proposalID, Support: support},
	}, nil)
}

func (c *Client) FinalizeProposal(proposalID uint64) error {
	return c.call(http.MethodPost, "/v1/tx/gov", server.GovExecuteMsg{
		Finalize: &server.ProposalIDMsg{ProposalID: proposalID},
	}, nil)
}

func (c *Client) QueueProposal(proposalID uint64) error {
	return c.call(http.MethodPost, "/v1/tx/gov", server.GovExecuteMsg{
		Queue: &server.ProposalIDMsg{ProposalID: proposalID},
	}, nil)
}

func (c *Client) ExecuteProposal(proposalID uint64) error {
	return c.call(http.MethodPost, "/v1/tx/gov", server.GovExecuteMsg{
		Execute: &server.ProposalIDMsg{ProposalID: proposalID},
	}, nil)
}

func (c *Client) CancelProposal(proposalID uint64) error {
	return c.call(http.MethodPost, "/v1/tx/gov", server.GovExecuteMsg{
		Cancel: &server.ProposalIDMsg{ProposalID: proposalID},
	}, nil)
}

func (c *Client) GetProposal(id uint64) (types.Proposal, error) {
	var out types.Proposal
	err := c.call(http.MethodGet, fmt.Sprintf("/v1/gov/proposal/%d", id), nil, &out)
	return out, err
}

// ---------------------------------------------------------------------------
// Event log

// EventRow mirrors chain.TaggedEvent with the payload left raw, since the
// concrete event type is not known client-side.
type EventRow struct {
	Seq      uint64          `json:"seq"`
	Ts       uint64          `json:"ts"`
	Contract string          `json:"contract"`
	Kind     string          `json:"kind"`
	Event    json.RawMessage `json:"event"`
}

func (c *Client) Events(after uint64, limit int) ([]EventRow, error) {
	var out []EventRow
	err := c.call(http.MethodGet, fmt.Sprintf("/v1/events?after=%d&limit=%d", after, limit), nil, &out)
	return out, err
}
