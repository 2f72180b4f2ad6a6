package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
	"github.com/playbud/booking/internal/service"
)

const userKey = "user"

// TokenSource resolves a bearer token to the user id it was issued for.
type TokenSource interface {
	Subject(token string) (uuid.UUID, error)
}

type Authenticator struct {
	tokens TokenSource
	users  service.UserInteractor
	admins map[string]struct{}
	log    *slog.Logger
}

func NewAuthenticator(tokens TokenSource, users service.UserInteractor, adminEmails []string, log *slog.Logger) *Authenticator {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			admins[email] = struct{}{}
		}
	}
	return &Authenticator{tokens: tokens, users: users, admins: admins, log: log}
}

// RequireUser rejects requests without a valid bearer token for an
// existing user and stores that user on the context.
func (a *Authenticator) RequireUser(ctx *gin.Context) {
	header := ctx.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	userID, err := a.tokens.Subject(token)
	if err != nil {
		a.log.Debug("token rejected", slog.String("op", "http.auth.requireUser"), slog.String("error", err.Error()))
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	user, err := a.users.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		writeError(ctx, err)
		return
	}

	ctx.Set(userKey, user)
	ctx.Next()
}

// RequireAdmin must run after RequireUser.
func (a *Authenticator) RequireAdmin(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	if _, ok := a.admins[strings.ToLower(user.Email)]; !ok {
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	ctx.Next()
}

func currentUser(ctx *gin.Context) *domain.User {
	v, ok := ctx.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

func pathID(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		badRequest(ctx, "invalid "+strings.TrimSuffix(name, "ID")+" id")
		return uuid.Nil, false
	}
	return id, true
}
