package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/playbud/booking/internal/auth"
	"github.com/playbud/booking/internal/domain"
	"github.com/playbud/booking/internal/notify"
	"github.com/playbud/booking/internal/repository"
	"github.com/playbud/booking/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSender struct{}

func (nopSender) Send(context.Context, notify.Message) bool { return true }

type testServer struct {
	router *gin.Engine
	tokens *auth.TokenVerifier
	users  *repository.InMemoryUserRepository
	games  *repository.InMemoryGameRepository
	roster *service.RosterHub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.DiscardHandler)

	games := repository.NewInMemoryGameRepository()
	bookings := repository.NewInMemoryBookingRepository(games)
	users := repository.NewInMemoryUserRepository()
	organizers := repository.NewInMemoryOrganizerRepository()
	notifier := service.NewNotifier(nopSender{}, users, organizers,
		repository.NewInMemoryMilestoneRepository(), repository.NewInMemoryReminderRepository(), log)
	roster := service.NewRosterHub(8, log)

	userSvc := service.NewUserService(users, organizers, notifier, log)
	gameSvc := service.NewGameService(games, organizers, notifier, log)
	bookingSvc := service.NewBookingService(games, bookings, users, notifier, roster, log)

	tokens, err := auth.NewTokenVerifier("test-secret")
	require.NoError(t, err)

	router := SetupRouter(Controllers{
		Users:    NewUserController(userSvc, bookingSvc, gameSvc),
		Games:    NewGameController(gameSvc, bookingSvc),
		Bookings: NewBookingController(bookingSvc),
		Roster:   NewRosterController(gameSvc, roster, nil, log),
		Admin:    NewAdminController(service.NewAdminService(gameSvc, bookingSvc, users, organizers, log)),
	}, NewAuthenticator(tokens, userSvc, []string{"Admin@Example.com"}, log), nil)

	return &testServer{router: router, tokens: tokens, users: users, games: games, roster: roster}
}

func (s *testServer) user(t *testing.T, name string) (*domain.User, string) {
	t.Helper()
	u := domain.NewUser(name, strings.ToLower(name)+"@example.com")
	require.NoError(t, s.users.Create(context.Background(), u))
	token, err := s.tokens.Issue(u.ID, time.Hour)
	require.NoError(t, err)
	return u, token
}

func (s *testServer) game(t *testing.T, owner *domain.User, players int) *domain.Game {
	t.Helper()
	start := time.Now().UTC().Add(72 * time.Hour)
	g := domain.NewGame(domain.GameDraft{
		Name:      "Tag Rugby",
		Date:      time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		StartTime: domain.NewTimeOfDay(start.Hour(), 0, 0, 0),
		EndTime:   domain.NewTimeOfDay(23, 0, 0, 0),
		Gender:    "Mixed",
		Players:   players,
		Frequency: "one-off",
	}, owner.ID)
	require.NoError(t, s.games.Create(context.Background(), g))
	return g
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/users/create", "", map[string]string{"name": "Xan", "email": "xan@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	user := decode(t, rec)["user"].(map[string]any)

	rec = s.do(t, http.MethodGet, "/api/users/"+user["id"].(string), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/users/create", "", map[string]string{"name": "Xan", "email": "xan@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "A user with this email already exists.", decode(t, rec)["error"])

	rec = s.do(t, http.MethodPost, "/api/users/create", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinRequiresToken(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.user(t, "Yara")
	game := s.game(t, owner, 4)

	rec := s.do(t, http.MethodPost, "/api/games/"+game.ID.String()+"/join", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/games/"+game.ID.String()+"/join", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ghost, err := s.tokens.Issue(uuid.New(), time.Hour)
	require.NoError(t, err)
	rec = s.do(t, http.MethodPost, "/api/games/"+game.ID.String()+"/join", ghost, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJoinAndCancelFlow(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.user(t, "Zed")
	_, aliceToken := s.user(t, "Alice")
	_, bobToken := s.user(t, "Bob")
	_, carlToken := s.user(t, "Carl")
	game := s.game(t, owner, 2)
	base := "/api/games/" + game.ID.String()

	rec := s.do(t, http.MethodPost, base+"/join", aliceToken, map[string]string{"notes": "bringing a ball"})
	require.Equal(t, http.StatusCreated, rec.Code)
	booking := decode(t, rec)["booking"].(map[string]any)

	rec = s.do(t, http.MethodPost, base+"/join", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You have already joined this game.", decode(t, rec)["error"])

	rec = s.do(t, http.MethodPost, base+"/join", bobToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/join", carlToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "This game is full.", decode(t, rec)["error"])

	rec = s.do(t, http.MethodGet, base+"/participants", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["participants"], 2)

	rec = s.do(t, http.MethodGet, "/api/users/me/games", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["games"], 1)

	rec = s.do(t, http.MethodDelete, "/api/bookings/"+booking["id"].(string), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/bookings/"+booking["id"].(string), aliceToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/bookings/"+booking["id"].(string), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/join", carlToken, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/games/"+uuid.NewString()+"/join", carlToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateGameAndAdminStatus(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "Dana")
	_, adminToken := s.user(t, "Admin")

	date := time.Now().UTC().Add(96 * time.Hour).Format("2006-01-02")
	body := map[string]any{
		"name":       "Sunrise Padel",
		"venue":      "Westway Courts",
		"city_slug":  "london",
		"sport_code": "padel",
		"skill":      "Intermediate",
		"date":       date,
		"start_time": "07:30",
		"end_time":   "09:00",
		"gender":     "Mixed",
		"players":    4,
		"frequency":  "one-off",
	}
	rec := s.do(t, http.MethodPost, "/api/games", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	game := decode(t, rec)["game"].(map[string]any)
	assert.Equal(t, "pending", game["status"])
	assert.Equal(t, "07:30:00", game["start_time"])
	id := game["id"].(string)

	body["players"] = 0
	rec = s.do(t, http.MethodPost, "/api/games", token, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body["players"] = 4
	body["start_time"] = "25:00"
	rec = s.do(t, http.MethodPost, "/api/games", token, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "start_time is invalid", decode(t, rec)["error"])

	status := map[string]string{"status": "confirmed"}
	rec = s.do(t, http.MethodPatch, "/api/admin/games/"+id+"/status", token, status)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/admin/games/"+id+"/status", adminToken, status)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmed", decode(t, rec)["game"].(map[string]any)["status"])

	rec = s.do(t, http.MethodPost, "/api/admin/games/"+id+"/sync-participants", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/games?status=confirmed&limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["games"], 1)

	rec = s.do(t, http.MethodGet, "/api/games?limit=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/me/created-games", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["games"], 1)
}

func TestRegisterOrganizer(t *testing.T) {
	s := newTestServer(t)
	user, token := s.user(t, "Eve")

	rec := s.do(t, http.MethodPost, "/api/organizers", token, map[string]string{"name": "Eve's Runs"})
	require.Equal(t, http.StatusOK, rec.Code)
	organizer := decode(t, rec)["organizer"].(map[string]any)
	assert.Equal(t, user.ID.String(), organizer["user_id"])
	assert.Equal(t, "Eve's Runs", organizer["name"])

	rec = s.do(t, http.MethodPost, "/api/organizers", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, organizer["id"], decode(t, rec)["organizer"].(map[string]any)["id"])
}

func TestMyOrganizerCreatesOnce(t *testing.T) {
	s := newTestServer(t)
	user, token := s.user(t, "Finn")

	rec := s.do(t, http.MethodGet, "/api/organizers/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	organizer := decode(t, rec)["organizer"].(map[string]any)
	assert.Equal(t, user.ID.String(), organizer["user_id"])
	assert.Equal(t, "Finn", organizer["name"])

	rec = s.do(t, http.MethodPost, "/api/organizers", token, map[string]string{"name": "Other"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, organizer["id"], decode(t, rec)["organizer"].(map[string]any)["id"])

	rec = s.do(t, http.MethodGet, "/api/organizers/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateMe(t *testing.T) {
	s := newTestServer(t)
	user, token := s.user(t, "Gus")

	rec := s.do(t, http.MethodPatch, "/api/users/me", token, map[string]string{"avatar_url": "https://cdn.example.com/gus.png"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, "Gus", updated["name"])
	assert.Equal(t, "https://cdn.example.com/gus.png", updated["avatar_url"])

	rec = s.do(t, http.MethodPatch, "/api/users/me", token, map[string]string{"name": "Gustav"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/"+user.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Gustav", decode(t, rec)["user"].(map[string]any)["name"])

	rec = s.do(t, http.MethodPatch, "/api/users/me", token, map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name is required", decode(t, rec)["error"])
}

func TestAdminGameViews(t *testing.T) {
	s := newTestServer(t)
	owner, ownerToken := s.user(t, "Hana")
	player, playerToken := s.user(t, "Ivo")
	_, adminToken := s.user(t, "Admin")

	rec := s.do(t, http.MethodPost, "/api/organizers", ownerToken, map[string]string{"name": "Hana Runs"})
	require.Equal(t, http.StatusOK, rec.Code)
	organiserID := uuid.MustParse(decode(t, rec)["organizer"].(map[string]any)["id"].(string))

	s.game(t, owner, 6)
	start := time.Now().UTC().Add(72 * time.Hour)
	game := domain.NewGame(domain.GameDraft{
		OrganiserID: &organiserID,
		Name:        "Park Run",
		Date:        time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		StartTime:   domain.NewTimeOfDay(start.Hour(), 0, 0, 0),
		EndTime:     domain.NewTimeOfDay(23, 0, 0, 0),
		Gender:      "Mixed",
		Players:     10,
		Frequency:   "recurring",
	}, owner.ID)
	require.NoError(t, s.games.Create(context.Background(), game))

	rec = s.do(t, http.MethodPost, "/api/games/"+game.ID.String()+"/join", playerToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/games", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/games", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["games"], 2)

	rec = s.do(t, http.MethodGet, "/api/admin/games?status=confirmed", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["games"], 0)

	rec = s.do(t, http.MethodGet, "/api/admin/games?status=bogus", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/games/"+game.ID.String(), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	detail := decode(t, rec)
	assert.Equal(t, game.ID.String(), detail["game"].(map[string]any)["id"])

	creator := detail["creator"].(map[string]any)
	assert.Equal(t, owner.ID.String(), creator["id"])
	assert.Equal(t, owner.Email, creator["email"])
	assert.Equal(t, organiserID.String(), creator["organiser_id"])
	assert.Equal(t, "Hana Runs", detail["organizer"].(map[string]any)["name"])

	participants := detail["participants"].([]any)
	require.Len(t, participants, 1)
	assert.Equal(t, player.ID.String(), participants[0].(map[string]any)["user_id"])
	assert.Equal(t, "Ivo", participants[0].(map[string]any)["name"])

	rec = s.do(t, http.MethodGet, "/api/admin/games/"+uuid.NewString(), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{domain.NotFound("Game not found."), http.StatusNotFound, "Game not found."},
		{domain.Validation("bad"), http.StatusBadRequest, "bad"},
		{domain.Permission("no"), http.StatusForbidden, "no"},
		{domain.Unavailable(errors.New("dial tcp")), http.StatusServiceUnavailable, "service temporarily unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(rec)
		writeError(ctx, tt.err)
		assert.Equal(t, tt.status, rec.Code)
		assert.JSONEq(t, `{"error":"`+tt.message+`"}`, rec.Body.String())
	}
}

func TestRosterLiveStreamsJoins(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.user(t, "Finn")
	_, token := s.user(t, "Gia")
	game := s.game(t, owner, 6)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/games/" + game.ID.String() + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.roster.Subscribers(game.ID) == 1 }, time.Second, 10*time.Millisecond)

	rec := s.do(t, http.MethodPost, "/api/games/"+game.ID.String()+"/join", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event domain.RosterEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, domain.RosterEventJoined, event.Type)
	assert.Equal(t, 1, event.Count)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return s.roster.Subscribers(game.ID) == 0 }, time.Second, 10*time.Millisecond)
}

func TestRosterLiveUnknownGame(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/games/"+uuid.NewString()+"/live", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
