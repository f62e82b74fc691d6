package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bet_wallet/internal/auth"
	"bet_wallet/internal/betting"
	"bet_wallet/internal/bonus"
	"bet_wallet/internal/config"
	"bet_wallet/internal/ledger"
	"bet_wallet/internal/money"
	"bet_wallet/internal/notify"
	"bet_wallet/internal/player"
	"bet_wallet/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPlayers struct{ mock.Mock }

func (m *mockPlayers) Register(ctx context.Context, req player.RegisterRequest) (*ledger.Player, *ledger.Wallet, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(*ledger.Player)
	w, _ := args.Get(1).(*ledger.Wallet)
	return p, w, args.Error(2)
}

func (m *mockPlayers) Login(ctx context.Context, email, password string) (*player.LoginResult, error) {
	args := m.Called(ctx, email, password)
	r, _ := args.Get(0).(*player.LoginResult)
	return r, args.Error(1)
}

func (m *mockPlayers) GetPlayer(ctx context.Context, playerID string) (*ledger.Player, *ledger.Wallet, error) {
	args := m.Called(ctx, playerID)
	p, _ := args.Get(0).(*ledger.Player)
	w, _ := args.Get(1).(*ledger.Wallet)
	return p, w, args.Error(2)
}

type mockBets struct{ mock.Mock }

func (m *mockBets) bet(args mock.Arguments) (*ledger.Bet, error) {
	b, _ := args.Get(0).(*ledger.Bet)
	return b, args.Error(1)
}

func (m *mockBets) PlaceBet(ctx context.Context, req betting.PlaceBetRequest) (*ledger.Bet, error) {
	return m.bet(m.Called(ctx, req))
}

func (m *mockBets) GetBet(ctx context.Context, betID string) (*ledger.Bet, error) {
	return m.bet(m.Called(ctx, betID))
}

func (m *mockBets) ListBetsByPlayer(ctx context.Context, playerID string, page, pageSize int) (ledger.Page[*ledger.Bet], error) {
	args := m.Called(ctx, playerID, page, pageSize)
	return args.Get(0).(ledger.Page[*ledger.Bet]), args.Error(1)
}

func (m *mockBets) SettleAsWon(ctx context.Context, betID string) (*ledger.Bet, error) {
	return m.bet(m.Called(ctx, betID))
}

func (m *mockBets) SettleAsLost(ctx context.Context, betID string) (*ledger.Bet, error) {
	return m.bet(m.Called(ctx, betID))
}

func (m *mockBets) CancelBet(ctx context.Context, betID string) (*ledger.Bet, error) {
	return m.bet(m.Called(ctx, betID))
}

type mockWallets struct{ mock.Mock }

func (m *mockWallets) CreateDeposit(ctx context.Context, req wallet.DepositRequest) (*ledger.Transaction, error) {
	args := m.Called(ctx, req)
	t, _ := args.Get(0).(*ledger.Transaction)
	return t, args.Error(1)
}

func (m *mockWallets) ListTransactionsByPlayer(ctx context.Context, playerID string, page, pageSize int) (ledger.Page[*ledger.Transaction], error) {
	args := m.Called(ctx, playerID, page, pageSize)
	return args.Get(0).(ledger.Page[*ledger.Transaction]), args.Error(1)
}

func (m *mockWallets) GetBalance(ctx context.Context, playerID string) (*wallet.Balance, error) {
	args := m.Called(ctx, playerID)
	b, _ := args.Get(0).(*wallet.Balance)
	return b, args.Error(1)
}

func (m *mockWallets) Reconcile(ctx context.Context, playerID string) (*wallet.Reconciliation, error) {
	args := m.Called(ctx, playerID)
	r, _ := args.Get(0).(*wallet.Reconciliation)
	return r, args.Error(1)
}

type mockBonuses struct{ mock.Mock }

func (m *mockBonuses) ListAwards(ctx context.Context, playerID string, page, pageSize int) (ledger.Page[*bonus.Award], error) {
	args := m.Called(ctx, playerID, page, pageSize)
	return args.Get(0).(ledger.Page[*bonus.Award]), args.Error(1)
}

type testServer struct {
	router  *gin.Engine
	tokens  *auth.TokenManager
	hub     *notify.Hub
	players *mockPlayers
	bets    *mockBets
	wallets *mockWallets
	bonuses *mockBonuses
	healthy error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := auth.NewTokenManager(config.JWTConfig{
		Secret:   strings.Repeat("h", auth.MinSecretLength),
		Issuer:   "test",
		Audience: "test-api",
		Expiry:   time.Hour,
	})
	require.NoError(t, err)

	s := &testServer{
		tokens:  tokens,
		hub:     notify.NewHub(),
		players: &mockPlayers{},
		bets:    &mockBets{},
		wallets: &mockWallets{},
		bonuses: &mockBonuses{},
	}
	h := NewHandler(s.players, s.bets, s.wallets, s.bonuses, s.hub)
	s.router = NewRouter(h, tokens, func(context.Context) error { return s.healthy })
	return s
}

func (s *testServer) token(t *testing.T, playerID string) string {
	t.Helper()
	raw, _, err := s.tokens.Issue(&ledger.Player{ID: playerID, Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	return raw
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp
}

func testBet(playerID string) *ledger.Bet {
	return &ledger.Bet{
		ID:               uuid.NewString(),
		PlayerID:         playerID,
		Stake:            money.MustNew("12.50", money.BRL),
		Description:      "match",
		Status:           ledger.BetPending,
		BetTransactionID: uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	p := &ledger.Player{ID: uuid.NewString(), Username: "alice", Email: "alice@example.com"}
	w := &ledger.Wallet{ID: uuid.NewString(), PlayerID: p.ID, Balance: money.MustNew("100", money.BRL)}
	s.players.On("Register", mock.Anything, mock.MatchedBy(func(req player.RegisterRequest) bool {
		return req.Email == "alice@example.com" && req.InitialBalance.Equal(decimal.NewFromInt(100)) && req.Currency == "BRL"
	})).Return(p, w, nil)

	rec := s.do(t, http.MethodPost, "/api/players", "",
		`{"username":"alice","email":"alice@example.com","password":"s3cret-pass","initial_balance":100,"currency":"BRL"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp playerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, p.ID, resp.ID)
	assert.True(t, resp.Balance.Equal(decimal.NewFromInt(100)))
	s.players.AssertExpectations(t)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "unknown currency", body: `{"username":"alice","email":"alice@example.com","password":"s3cret-pass","initial_balance":100,"currency":"GBP"}`},
		{name: "zero balance", body: `{"username":"alice","email":"alice@example.com","password":"s3cret-pass","initial_balance":0,"currency":"BRL"}`},
		{name: "sub-cent balance", body: `{"username":"alice","email":"alice@example.com","password":"s3cret-pass","initial_balance":"1.001","currency":"BRL"}`},
		{name: "short password", body: `{"username":"alice","email":"alice@example.com","password":"short","initial_balance":100,"currency":"BRL"}`},
		{name: "bad email", body: `{"username":"alice","email":"alice","password":"s3cret-pass","initial_balance":100,"currency":"BRL"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/players", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			decodeError(t, rec)
		})
	}
	s.players.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.players.On("Register", mock.Anything, mock.Anything).Return(nil, nil, ledger.ErrEmailAlreadyExists)

	rec := s.do(t, http.MethodPost, "/api/players", "",
		`{"username":"alice","email":"alice@example.com","password":"s3cret-pass","initial_balance":100,"currency":"BRL"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	p := &ledger.Player{ID: uuid.NewString(), Username: "alice", Email: "alice@example.com"}
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	s.players.On("Login", mock.Anything, "alice@example.com", "s3cret-pass").Return(&player.LoginResult{
		Player:    p,
		Wallet:    &ledger.Wallet{Balance: money.MustNew("10", money.USD)},
		Token:     "token",
		ExpiresAt: expires,
	}, nil)
	s.players.On("Login", mock.Anything, "alice@example.com", "wrong").Return(nil, player.ErrInvalidCredentials)

	rec := s.do(t, http.MethodPost, "/api/players/login", "", `{"email":"alice@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "token", resp.Token)
	assert.Equal(t, "USD", resp.Player.Currency)
	assert.True(t, expires.Equal(resp.TokenExpiration))

	rec = s.do(t, http.MethodPost, "/api/players/login", "", `{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, player.ErrInvalidCredentials.Error(), decodeError(t, rec).Message)
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)
	playerID := uuid.NewString()

	rec := s.do(t, http.MethodGet, "/api/players/"+playerID, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/players/"+playerID, "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/players/"+playerID, s.token(t, uuid.NewString()), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	s.players.AssertNotCalled(t, "GetPlayer", mock.Anything, mock.Anything)
}

func TestGetPlayerAndBalance(t *testing.T) {
	s := newTestServer(t)
	p := &ledger.Player{ID: uuid.NewString(), Username: "alice", Email: "alice@example.com"}
	w := &ledger.Wallet{ID: uuid.NewString(), PlayerID: p.ID, Balance: money.MustNew("42.10", money.EUR)}
	s.players.On("GetPlayer", mock.Anything, p.ID).Return(p, w, nil)
	s.wallets.On("GetBalance", mock.Anything, p.ID).Return(&wallet.Balance{PlayerID: p.ID, WalletID: w.ID, Balance: w.Balance}, nil)
	token := s.token(t, p.ID)

	rec := s.do(t, http.MethodGet, "/api/players/"+p.ID, token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pr playerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pr))
	assert.Equal(t, "alice", pr.Username)

	rec = s.do(t, http.MethodGet, "/api/players/"+p.ID+"/balance", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var br balanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &br))
	assert.True(t, br.Balance.Equal(decimal.RequireFromString("42.10")))
	assert.Equal(t, "EUR", br.Currency)
}

func TestPlaceBet(t *testing.T) {
	s := newTestServer(t)
	playerID := uuid.NewString()
	token := s.token(t, playerID)
	bet := testBet(playerID)
	s.bets.On("PlaceBet", mock.Anything, mock.MatchedBy(func(req betting.PlaceBetRequest) bool {
		return req.PlayerID == playerID && req.Stake.Equal(decimal.RequireFromString("12.5")) && req.Description == "match"
	})).Return(bet, nil).Once()

	rec := s.do(t, http.MethodPost, "/api/bets", token, `{"player_id":"`+playerID+`","stake":12.5,"description":"match"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp betResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, bet.ID, resp.ID)
	assert.Equal(t, ledger.BetPending, resp.Status)
	assert.Nil(t, resp.Prize)

	rec = s.do(t, http.MethodPost, "/api/bets", token, `{"player_id":"`+uuid.NewString()+`","stake":12.5,"description":"match"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/bets", token, `{"player_id":"`+playerID+`","stake":12.5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.bets.AssertExpectations(t)
}

func TestPlaceBetErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "insufficient funds", err: ledger.ErrInsufficientFunds, status: http.StatusUnprocessableEntity},
		{name: "invalid stake", err: ledger.ErrInvalidStake, status: http.StatusBadRequest},
		{name: "player missing", err: ledger.ErrPlayerNotFound, status: http.StatusNotFound},
		{name: "lost race", err: ledger.ErrConcurrentUpdate, status: http.StatusConflict},
		{name: "currency mismatch", err: money.ErrCurrencyMismatch, status: http.StatusBadRequest},
		{name: "unexpected", err: errors.New("connection reset"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			playerID := uuid.NewString()
			s.bets.On("PlaceBet", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := s.do(t, http.MethodPost, "/api/bets", s.token(t, playerID), `{"player_id":"`+playerID+`","stake":"1.50","description":"match"}`)
			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, internalErrorMessage, resp.Message)
			} else {
				assert.Equal(t, tt.err.Error(), resp.Message)
			}
		})
	}
}

func TestBetTransitions(t *testing.T) {
	s := newTestServer(t)
	playerID := uuid.NewString()
	token := s.token(t, playerID)
	bet := testBet(playerID)

	won := *bet
	won.Status = ledger.BetWon
	won.PrizeAmount = decimal.NewNullDecimal(decimal.NewFromInt(25))

	s.bets.On("GetBet", mock.Anything, bet.ID).Return(bet, nil)
	s.bets.On("SettleAsWon", mock.Anything, bet.ID).Return(&won, nil).Once()
	s.bets.On("SettleAsLost", mock.Anything, bet.ID).Return(nil, ledger.ErrInvalidBetStatus).Once()
	s.bets.On("CancelBet", mock.Anything, bet.ID).Return(nil, ledger.ErrInvalidBetStatus).Once()

	rec := s.do(t, http.MethodGet, "/api/bets/"+bet.ID, token, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/bets/"+bet.ID+"/settle-won", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp betResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ledger.BetWon, resp.Status)
	require.NotNil(t, resp.Prize)
	assert.True(t, resp.Prize.Equal(decimal.NewFromInt(25)))

	rec = s.do(t, http.MethodPost, "/api/bets/"+bet.ID+"/settle-lost", token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/bets/"+bet.ID+"/cancel", token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	s.bets.AssertExpectations(t)
}

func TestBetOwnership(t *testing.T) {
	s := newTestServer(t)
	bet := testBet(uuid.NewString())
	missing := uuid.NewString()
	s.bets.On("GetBet", mock.Anything, bet.ID).Return(bet, nil)
	s.bets.On("GetBet", mock.Anything, missing).Return(nil, ledger.ErrBetNotFound)
	token := s.token(t, uuid.NewString())

	rec := s.do(t, http.MethodPost, "/api/bets/"+bet.ID+"/settle-won", token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/bets/"+missing, token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.bets.AssertNotCalled(t, "SettleAsWon", mock.Anything, mock.Anything)
}

func TestListBetsPaging(t *testing.T) {
	s := newTestServer(t)
	playerID := uuid.NewString()
	token := s.token(t, playerID)
	bets := []*ledger.Bet{testBet(playerID), testBet(playerID)}
	s.bets.On("ListBetsByPlayer", mock.Anything, playerID, 1, maxPageSize).
		Return(ledger.NewPage(bets, 2, 1, maxPageSize), nil)
	s.bets.On("ListBetsByPlayer", mock.Anything, playerID, 3, defaultPageSize).
		Return(ledger.NewPage([]*ledger.Bet(nil), 2, 3, defaultPageSize), nil)

	rec := s.do(t, http.MethodGet, "/api/bets/player/"+playerID+"?page=0&page_size=500", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp pageResponse[betResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)
	assert.EqualValues(t, 2, resp.TotalCount)
	assert.Equal(t, 1, resp.TotalPages)
	assert.False(t, resp.HasNext)

	rec = s.do(t, http.MethodGet, "/api/bets/player/"+playerID+"?page=3&page_size=abc", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.HasPrevious)

	rec = s.do(t, http.MethodGet, "/api/bets/player/"+uuid.NewString(), token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	s.bets.AssertExpectations(t)
}

func TestDeposit(t *testing.T) {
	s := newTestServer(t)
	playerID := uuid.NewString()
	token := s.token(t, playerID)
	ref := uuid.NewString()
	deposit := &ledger.Transaction{
		ID:          uuid.NewString(),
		WalletID:    uuid.NewString(),
		Amount:      money.MustNew("20", money.BRL),
		Type:        ledger.TransactionDeposit,
		Description: "top up",
	}
	s.wallets.On("CreateDeposit", mock.Anything, mock.MatchedBy(func(req wallet.DepositRequest) bool {
		return req.PlayerID == playerID && req.Amount.Equal(decimal.NewFromInt(20)) && req.Description == "top up"
	})).Return(deposit, nil)
	s.wallets.On("ListTransactionsByPlayer", mock.Anything, playerID, 2, 5).
		Return(ledger.NewPage([]*ledger.Transaction{{ID: uuid.NewString(), Type: ledger.TransactionBetPlacement, ReferenceBetID: &ref, Amount: money.MustNew("2", money.BRL)}}, 6, 2, 5), nil)

	rec := s.do(t, http.MethodPost, "/api/transactions/deposit", token, `{"player_id":"`+playerID+`","amount":20,"description":"top up"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var tr transactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tr))
	assert.Equal(t, ledger.TransactionDeposit, tr.Type)
	assert.Nil(t, tr.ReferenceBetID)

	rec = s.do(t, http.MethodPost, "/api/transactions/deposit", token, `{"player_id":"`+playerID+`","amount":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/transactions/player/"+playerID+"?page=2&page_size=5", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page pageResponse[transactionResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, &ref, page.Items[0].ReferenceBetID)
	assert.Equal(t, 2, page.TotalPages)

	s.wallets.AssertExpectations(t)
}

func TestListBonuses(t *testing.T) {
	s := newTestServer(t)
	playerID := uuid.NewString()
	award := &bonus.Award{ID: uuid.NewString(), PlayerID: playerID, BetID: uuid.NewString(), Amount: money.MustNew("5", money.BRL), StakeSum: decimal.NewFromInt(50), LossStreak: 5}
	s.bonuses.On("ListAwards", mock.Anything, playerID, 1, defaultPageSize).Return(ledger.NewPage([]*bonus.Award{award}, 1, 1, defaultPageSize), nil)

	rec := s.do(t, http.MethodGet, "/api/players/"+playerID+"/bonuses", s.token(t, playerID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp pageResponse[bonusResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 5, resp.Items[0].LossStreak)
	assert.True(t, resp.Items[0].Amount.Equal(decimal.NewFromInt(5)))
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	s.healthy = errors.New("database down")
	rec = s.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStreamEvents(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	playerID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/players/"+playerID+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token(t, playerID))

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Equal(t, 1, s.hub.SubscriberCount(playerID))

	require.NoError(t, s.hub.Publish(ctx, notify.Event{Type: notify.BetWon, PlayerID: playerID, BetID: "b1", Amount: "25.00"}))

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		lines = append(lines, line)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "event:bet.won", lines[0])

	var ev notify.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data:")), &ev))
	assert.Equal(t, "b1", ev.BetID)
	assert.Equal(t, "25.00", ev.Amount)

	cancel()
	assert.Eventually(t, func() bool { return s.hub.SubscriberCount(playerID) == 0 }, 2*time.Second, 10*time.Millisecond)
}
