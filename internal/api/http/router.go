package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Controllers struct {
	Users    *UserController
	Games    *GameController
	Bookings *BookingController
	Roster   *RosterController
	Admin    *AdminController
}

func SetupRouter(c Controllers, auth *Authenticator, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	config := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		config.AllowOrigins = allowedOrigins
		config.AllowCredentials = true
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	authed := api.Group("", auth.RequireUser)

	if c.Users != nil {
		users := api.Group("/users")
		users.POST("/create", c.Users.CreateUser)

		me := authed.Group("/users/me")
		me.PATCH("", c.Users.UpdateMe)
		me.GET("/games", c.Users.MyGames)
		me.GET("/bookings", c.Users.MyBookings)
		me.GET("/created-games", c.Users.CreatedGames)

		users.GET("/:userID", c.Users.GetUser)

		authed.POST("/organizers", c.Users.RegisterOrganizer)
		authed.GET("/organizers/me", c.Users.MyOrganizer)
	}

	admin := authed.Group("/admin", auth.RequireAdmin)

	if c.Games != nil {
		games := api.Group("/games")
		games.GET("", c.Games.ListGames)
		games.GET("/:gameID", c.Games.GetGame)
		authed.POST("/games", c.Games.CreateGame)

		admin.PATCH("/games/:gameID/status", c.Games.UpdateStatus)
		admin.POST("/games/:gameID/sync-participants", c.Games.SyncParticipants)
	}

	if c.Admin != nil {
		admin.GET("/games", c.Admin.ListGames)
		admin.GET("/games/:gameID", c.Admin.GameDetail)
	}

	if c.Bookings != nil {
		api.GET("/games/:gameID/participants", c.Bookings.ListParticipants)
		authed.POST("/games/:gameID/join", c.Bookings.Join)
		authed.DELETE("/bookings/:bookingID", c.Bookings.Cancel)
	}

	if c.Roster != nil {
		api.GET("/games/:gameID/live", c.Roster.Live)
	}

	return router
}
