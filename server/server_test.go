package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/powergrid/powergrid-der/chain"
	"github.com/powergrid/powergrid-der/logger"
	"github.com/powergrid/powergrid-der/x/host"
	"github.com/powergrid/powergrid-der/x/types"
)

var (
	admin    = types.Account{0x01}
	operator = types.Account{0x10}
	alice    = types.Account{0xaa}
	bob      = types.Account{0xbb}
)

func tok(n uint64) *uint256.Int {
	one := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18))
	return new(uint256.Int).Mul(uint256.NewInt(n), one)
}

type ServerTestSuite struct {
	suite.Suite
	chain  *chain.Chain
	router http.Handler
}

func TestServer(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	gen := chain.DefaultGenesis(admin, alice)
	gen.Operators = []types.Account{operator}
	c, err := chain.New(gen, logger.NewMockLogger())
	s.Require().NoError(err)
	s.chain = c
	s.router = New(c, logger.NewMockLogger(), nil).Router()
}

func (s *ServerTestSuite) do(method, path string, from *types.Account, body interface{}) (*httptest.ResponseRecorder, response) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if from != nil {
		req.Header.Set("X-Sender", from.Hex())
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp response
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func (s *ServerTestSuite) TestAddressesAndTime() {
	w, resp := s.do(http.MethodGet, "/v1/addresses", nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(0, resp.Code)

	_, resp = s.do(http.MethodGet, "/v1/time", nil, nil)
	s.Equal(0, resp.Code)

	w, _ = s.do(http.MethodPost, "/v1/time/advance", nil, map[string]uint64{"secs": 3600})
	s.Equal(http.StatusOK, w.Code)
	s.Equal(uint64(1_700_003_600), s.chain.Now())
}

func (s *ServerTestSuite) TestTransferTx() {
	w, resp := s.do(http.MethodPost, "/v1/tx/token", &alice, TokenExecuteMsg{
		Transfer: &TransferMsg{To: bob, Amount: tok(10)},
	})
	s.Equal(http.StatusOK, w.Code)
	s.Equal(0, resp.Code)
	s.Equal(tok(10), s.chain.Token.BalanceOf(bob))

	// insufficient balance surfaces as a conflict
	w, resp = s.do(http.MethodPost, "/v1/tx/token", &bob, TokenExecuteMsg{
		Transfer: &TransferMsg{To: alice, Amount: tok(100)},
	})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal(1, resp.Code)
}

func (s *ServerTestSuite) TestSenderRequired() {
	w, resp := s.do(http.MethodPost, "/v1/tx/token", nil, TokenExecuteMsg{
		Transfer: &TransferMsg{To: bob, Amount: tok(1)},
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(1, resp.Code)
}

func (s *ServerTestSuite) TestUnauthorizedIsForbidden() {
	w, _ := s.do(http.MethodPost, "/v1/tx/token", &bob, TokenExecuteMsg{
		Mint: &MintMsg{To: bob, Amount: tok(1), Reason: "grab"},
	})
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *ServerTestSuite) TestEmptyEnvelopeRejected() {
	w, _ := s.do(http.MethodPost, "/v1/tx/token", &alice, TokenExecuteMsg{})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ServerTestSuite) TestGridEventFlow() {
	// register over HTTP
	regAddr := s.chain.Addresses().Registry
	_, resp := s.do(http.MethodPost, "/v1/tx/token", &alice, TokenExecuteMsg{
		Approve: &ApproveMsg{Spender: regAddr, Amount: tok(2)},
	})
	s.Require().Equal(0, resp.Code)
	_, resp = s.do(http.MethodPost, "/v1/tx/registry", &alice, RegistryExecuteMsg{
		RegisterDevice: &RegisterDeviceMsg{
			Metadata: types.DeviceMetadata{
				DeviceType: types.DeviceBattery, CapacityWatts: 5000,
				Location: "Porto, PT", Manufacturer: "GridCo",
			},
			Stake: tok(2),
		},
	})
	s.Require().Equal(0, resp.Code)

	_, resp = s.do(http.MethodPost, "/v1/tx/grid", &operator, GridExecuteMsg{
		CreateEvent: &CreateEventMsg{
			EventType: types.EventDemandResponse, DurationMinutes: 60,
			Rate: tok(1), TargetReductionKW: 100, Severity: 2,
		},
	})
	s.Require().Equal(0, resp.Code)

	_, resp = s.do(http.MethodPost, "/v1/tx/grid", &alice, GridExecuteMsg{
		Participate: &ParticipateMsg{EventID: 1, CommittedWh: 500},
	})
	s.Require().Equal(0, resp.Code)

	_, resp = s.do(http.MethodPost, "/v1/time/advance", nil, map[string]uint64{"secs": 3600})
	s.Require().Equal(0, resp.Code)

	_, resp = s.do(http.MethodPost, "/v1/tx/grid", &operator, GridExecuteMsg{
		DistributeRewards: &VerifyMsg{EventID: 1, Account: alice, ActualWh: 500},
	})
	s.Require().Equal(0, resp.Code)

	w, resp := s.do(http.MethodGet, fmt.Sprintf("/v1/token/balance/%s", alice.Hex()), nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(0, resp.Code)

	_, resp = s.do(http.MethodGet, "/v1/grid/event/1/participations", nil, nil)
	s.Equal(0, resp.Code)

	_, resp = s.do(http.MethodGet, "/v1/grid/totals", nil, nil)
	s.Equal(0, resp.Code)
}

func (s *ServerTestSuite) TestQueryNotFound() {
	w, _ := s.do(http.MethodGet, "/v1/grid/event/99", nil, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/v1/registry/device/%s", bob.Hex()), nil, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func TestStatusMapping(t *testing.T) {
	require.Equal(t, http.StatusForbidden, statusFor(fmt.Errorf("wrap: %w", host.ErrUnauthorized)))
	require.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("wrap: %w", host.ErrNotFound)))
	require.Equal(t, http.StatusBadRequest, statusFor(host.ErrZeroAmount))
	require.Equal(t, http.StatusConflict, statusFor(host.ErrInsufficientBalance))
}
