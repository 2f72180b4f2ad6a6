package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playbud/booking/internal/api/http/converter"
	"github.com/playbud/booking/internal/domain"
	"github.com/playbud/booking/internal/service"
)

type GameController struct {
	games    service.GameInteractor
	bookings service.BookingInteractor
}

func NewGameController(games service.GameInteractor, bookings service.BookingInteractor) *GameController {
	return &GameController{games: games, bookings: bookings}
}

func (c *GameController) CreateGame(ctx *gin.Context) {
	var req converter.CreateGameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}
	draft, err := req.Draft()
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	game, err := c.games.CreateGame(ctx.Request.Context(), draft, currentUser(ctx).ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"game": converter.GameToApi(game)})
}

func (c *GameController) ListGames(ctx *gin.Context) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(ctx, "limit must be a positive integer")
			return
		}
		limit = n
	}

	games, err := c.games.ListGames(ctx.Request.Context(), limit, domain.GameStatus(ctx.Query("status")))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"games": converter.GamesToApi(games)})
}

func (c *GameController) GetGame(ctx *gin.Context) {
	id, ok := pathID(ctx, "gameID")
	if !ok {
		return
	}

	game, err := c.games.GetGame(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"game": converter.GameToApi(game)})
}

func (c *GameController) UpdateStatus(ctx *gin.Context) {
	id, ok := pathID(ctx, "gameID")
	if !ok {
		return
	}
	var req converter.UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}

	game, err := c.games.UpdateStatus(ctx.Request.Context(), id, domain.GameStatus(req.Status))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"game": converter.GameToApi(game)})
}

func (c *GameController) SyncParticipants(ctx *gin.Context) {
	id, ok := pathID(ctx, "gameID")
	if !ok {
		return
	}

	ids, err := c.bookings.SyncParticipants(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"participant_user_ids": ids})
}
