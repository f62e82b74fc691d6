// Package handler exposes the wallet services over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"bet_wallet/internal/auth"
	"bet_wallet/internal/betting"
	"bet_wallet/internal/bonus"
	"bet_wallet/internal/ledger"
	"bet_wallet/internal/logger"
	"bet_wallet/internal/notify"
	"bet_wallet/internal/player"
	"bet_wallet/internal/wallet"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type BonusLister interface {
	ListAwards(ctx context.Context, playerID string, page, pageSize int) (ledger.Page[*bonus.Award], error)
}

type EventSource interface {
	Subscribe(playerID string) (<-chan notify.Event, func())
}

// HealthCheck reports whether the service can reach its dependencies.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	players player.Service
	bets    betting.Service
	wallets wallet.Service
	bonuses BonusLister
	events  EventSource
}

func NewHandler(players player.Service, bets betting.Service, wallets wallet.Service, bonuses BonusLister, events EventSource) *Handler {
	return &Handler{
		players: players,
		bets:    bets,
		wallets: wallets,
		bonuses: bonuses,
		events:  events,
	}
}

// NewRouter builds the gin engine with request logging, panic recovery and
// every route registered.
func NewRouter(h *Handler, verifier auth.Verifier, health HealthCheck) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(logger.GinMiddleware(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		if health != nil {
			if err := health(c.Request.Context()); err != nil {
				logger.Error(c.Request.Context()).Err(err).Msg("health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h.RegisterRoutes(r.Group("/api"), verifier)
	return r
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup, verifier auth.Verifier) {
	authenticated := auth.Middleware(verifier)

	players := api.Group("/players")
	players.POST("", h.Register)
	players.POST("/login", h.Login)

	self := players.Group("/:playerId", authenticated, auth.RequireSelf("playerId"))
	self.GET("", h.GetPlayer)
	self.GET("/balance", h.GetBalance)
	self.GET("/bonuses", h.ListBonuses)
	self.GET("/events", h.StreamEvents)

	bets := api.Group("/bets", authenticated)
	bets.POST("", h.PlaceBet)
	bets.GET("/player/:playerId", auth.RequireSelf("playerId"), h.ListBetsByPlayer)
	bets.GET("/:betId", h.GetBet)
	bets.POST("/:betId/settle-won", h.SettleAsWon)
	bets.POST("/:betId/settle-lost", h.SettleAsLost)
	bets.DELETE("/:betId/cancel", h.CancelBet)

	transactions := api.Group("/transactions", authenticated)
	transactions.POST("/deposit", h.CreateDeposit)
	transactions.GET("/player/:playerId", auth.RequireSelf("playerId"), h.ListTransactionsByPlayer)
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, w, err := h.players.Register(c.Request.Context(), player.RegisterRequest{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		InitialBalance: req.InitialBalance,
		Currency:       req.Currency,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPlayerResponse(p, w))
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.players.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{
		Player:          newPlayerResponse(result.Player, result.Wallet),
		Token:           result.Token,
		TokenExpiration: result.ExpiresAt,
	})
}

func (h *Handler) GetPlayer(c *gin.Context) {
	p, w, err := h.players.GetPlayer(c.Request.Context(), c.Param("playerId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPlayerResponse(p, w))
}

func (h *Handler) GetBalance(c *gin.Context) {
	b, err := h.wallets.GetBalance(c.Request.Context(), c.Param("playerId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, balanceResponse{
		PlayerID:  b.PlayerID,
		WalletID:  b.WalletID,
		Balance:   b.Balance.Amount,
		Currency:  b.Balance.Currency,
		UpdatedAt: b.UpdatedAt,
	})
}

func (h *Handler) ListBonuses(c *gin.Context) {
	page, size := pageParams(c)
	result, err := h.bonuses.ListAwards(c.Request.Context(), c.Param("playerId"), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPageResponse(result, newBonusResponse))
}

func (h *Handler) PlaceBet(c *gin.Context) {
	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !h.isSelf(c, req.PlayerID) {
		forbidden(c)
		return
	}

	bet, err := h.bets.PlaceBet(c.Request.Context(), betting.PlaceBetRequest{
		PlayerID:    req.PlayerID,
		Stake:       req.Stake,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newBetResponse(bet))
}

func (h *Handler) GetBet(c *gin.Context) {
	bet, ok := h.ownedBet(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newBetResponse(bet))
}

func (h *Handler) ListBetsByPlayer(c *gin.Context) {
	page, size := pageParams(c)
	result, err := h.bets.ListBetsByPlayer(c.Request.Context(), c.Param("playerId"), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPageResponse(result, newBetResponse))
}

func (h *Handler) SettleAsWon(c *gin.Context) {
	h.transition(c, h.bets.SettleAsWon)
}

func (h *Handler) SettleAsLost(c *gin.Context) {
	h.transition(c, h.bets.SettleAsLost)
}

func (h *Handler) CancelBet(c *gin.Context) {
	h.transition(c, h.bets.CancelBet)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, betID string) (*ledger.Bet, error)) {
	bet, ok := h.ownedBet(c)
	if !ok {
		return
	}
	updated, err := fn(c.Request.Context(), bet.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBetResponse(updated))
}

func (h *Handler) CreateDeposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !h.isSelf(c, req.PlayerID) {
		forbidden(c)
		return
	}

	deposit, err := h.wallets.CreateDeposit(c.Request.Context(), wallet.DepositRequest{
		PlayerID:    req.PlayerID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTransactionResponse(deposit))
}

func (h *Handler) ListTransactionsByPlayer(c *gin.Context) {
	page, size := pageParams(c)
	result, err := h.wallets.ListTransactionsByPlayer(c.Request.Context(), c.Param("playerId"), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPageResponse(result, newTransactionResponse))
}

// ownedBet loads the bet named in the path and checks it belongs to the
// caller. On failure the response is already written.
func (h *Handler) ownedBet(c *gin.Context) (*ledger.Bet, bool) {
	bet, err := h.bets.GetBet(c.Request.Context(), c.Param("betId"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if !h.isSelf(c, bet.PlayerID) {
		forbidden(c)
		return nil, false
	}
	return bet, true
}

func (h *Handler) isSelf(c *gin.Context, playerID string) bool {
	claims, ok := auth.ClaimsFrom(c)
	return ok && strings.EqualFold(claims.PlayerID, playerID)
}

// pageParams reads page and page_size, clamping them to usable values.
func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	size, err := strconv.Atoi(c.Query("page_size"))
	if err != nil || size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
