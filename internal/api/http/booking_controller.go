package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playbud/booking/internal/api/http/converter"
	"github.com/playbud/booking/internal/service"
)

type BookingController struct {
	bookings service.BookingInteractor
}

func NewBookingController(bookings service.BookingInteractor) *BookingController {
	return &BookingController{bookings: bookings}
}

func (c *BookingController) Join(ctx *gin.Context) {
	gameID, ok := pathID(ctx, "gameID")
	if !ok {
		return
	}
	var req converter.JoinRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, "invalid request body")
			return
		}
	}

	booking, err := c.bookings.Join(ctx.Request.Context(), gameID, currentUser(ctx).ID, req.Notes)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"booking": booking})
}

func (c *BookingController) Cancel(ctx *gin.Context) {
	bookingID, ok := pathID(ctx, "bookingID")
	if !ok {
		return
	}

	booking, err := c.bookings.Cancel(ctx.Request.Context(), bookingID, currentUser(ctx).ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (c *BookingController) ListParticipants(ctx *gin.Context) {
	gameID, ok := pathID(ctx, "gameID")
	if !ok {
		return
	}

	participants, err := c.bookings.ListParticipants(ctx.Request.Context(), gameID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"participants": converter.ParticipantsToApi(participants)})
}
