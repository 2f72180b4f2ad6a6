package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playbud/booking/internal/api/http/converter"
	"github.com/playbud/booking/internal/domain"
	"github.com/playbud/booking/internal/service"
)

type AdminController struct {
	admin service.AdminInteractor
}

func NewAdminController(admin service.AdminInteractor) *AdminController {
	return &AdminController{admin: admin}
}

func (c *AdminController) ListGames(ctx *gin.Context) {
	games, err := c.admin.ListGames(ctx.Request.Context(), domain.GameStatus(ctx.Query("status")))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"games": converter.GamesToApi(games)})
}

func (c *AdminController) GameDetail(ctx *gin.Context) {
	id, ok := pathID(ctx, "gameID")
	if !ok {
		return
	}

	detail, err := c.admin.GameDetail(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, converter.GameDetailToApi(detail))
}
