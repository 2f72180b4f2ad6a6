package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playbud/booking/internal/api/http/converter"
	"github.com/playbud/booking/internal/service"
)

type UserController struct {
	users    service.UserInteractor
	bookings service.BookingInteractor
	games    service.GameInteractor
}

func NewUserController(users service.UserInteractor, bookings service.BookingInteractor, games service.GameInteractor) *UserController {
	return &UserController{users: users, bookings: bookings, games: games}
}

func (c *UserController) CreateUser(ctx *gin.Context) {
	var req converter.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}

	user, err := c.users.CreateUser(ctx.Request.Context(), req.Name, req.Email)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": user})
}

func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "userID")
	if !ok {
		return
	}

	user, err := c.users.GetUser(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": user})
}

func (c *UserController) MyGames(ctx *gin.Context) {
	user := currentUser(ctx)
	games, err := c.bookings.MyGames(ctx.Request.Context(), user.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"games": converter.MyGamesToApi(games)})
}

func (c *UserController) MyBookings(ctx *gin.Context) {
	user := currentUser(ctx)
	bookings, err := c.bookings.UserBookings(ctx.Request.Context(), user.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (c *UserController) CreatedGames(ctx *gin.Context) {
	user := currentUser(ctx)
	games, err := c.games.ListCreatedGames(ctx.Request.Context(), user.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"games": converter.GamesToApi(games)})
}

func (c *UserController) RegisterOrganizer(ctx *gin.Context) {
	var req converter.RegisterOrganizerRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, "invalid request body")
			return
		}
	}

	organizer, err := c.users.RegisterOrganizer(ctx.Request.Context(), currentUser(ctx).ID, req.Name)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"organizer": converter.OrganizerToApi(organizer)})
}

func (c *UserController) UpdateMe(ctx *gin.Context) {
	var req converter.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body")
		return
	}

	user, err := c.users.UpdateProfile(ctx.Request.Context(), currentUser(ctx).ID, req.Name, req.AvatarURL)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"user": user})
}

func (c *UserController) MyOrganizer(ctx *gin.Context) {
	organizer, err := c.users.MyOrganizer(ctx.Request.Context(), currentUser(ctx).ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"organizer": converter.OrganizerToApi(organizer)})
}
