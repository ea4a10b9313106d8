// Package server is the thin driving layer over the game core: a REST API
// for commands, a WebSocket endpoint for observers, and a metrics endpoint.
// It renders nothing; clients consume events and snapshots as JSON.
package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rachel-multiverse/rachel-web-sub001/cards"
	"github.com/rachel-multiverse/rachel-web-sub001/engine"
	"github.com/rachel-multiverse/rachel-web-sub001/events"
	"github.com/rachel-multiverse/rachel-web-sub001/game"
	"github.com/rachel-multiverse/rachel-web-sub001/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, implement proper origin checks
	},
}

// Server exposes the game fleet over HTTP and WebSocket
type Server struct {
	sup      *engine.Supervisor
	broker   *events.Broker
	sessions *session.Manager
	monitor  *session.Monitor
	router   *gin.Engine
}

// New wires the server over the shared collaborators
func New(sup *engine.Supervisor, broker *events.Broker, sessions *session.Manager, monitor *session.Monitor) *Server {
	s := &Server{
		sup:      sup,
		broker:   broker,
		sessions: sessions,
		monitor:  monitor,
	}

	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.POST("/games", s.handleCreateGame)
		api.GET("/games", s.handleListGames)
		api.GET("/games/:id", s.handleGetGame)
		api.POST("/games/:id/join", s.handleJoin)
		api.POST("/games/:id/start", s.handleStart)
		api.POST("/games/:id/play", s.handlePlay)
		api.POST("/games/:id/draw", s.handleDraw)
		api.POST("/games/:id/leave", s.handleLeave)
		api.POST("/sessions/:token/heartbeat", s.handleHeartbeat)
	}
	router.GET("/ws", s.handleWebSocket)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router = router
	return s
}

// Start begins serving on the given port
func (s *Server) Start(port string) error {
	log.Printf("Starting server on port %s", port)
	return http.ListenAndServe("0.0.0.0:"+port, s.router)
}

// Handler exposes the router, for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

type createGameRequest struct {
	DeckCount int `json:"deck_count"`
}

type joinRequest struct {
	Name       string `json:"name"`
	UserID     string `json:"user_id"`
	Kind       string `json:"kind"`
	Difficulty string `json:"difficulty"`
}

type playRequest struct {
	PlayerID      string      `json:"player_id"`
	Cards         []cardInput `json:"cards"`
	NominatedSuit string      `json:"nominated_suit"`
}

type cardInput struct {
	Suit string `json:"suit"`
	Rank int    `json:"rank"`
}

type drawRequest struct {
	PlayerID string `json:"player_id"`
	Reason   string `json:"reason"`
}

type leaveRequest struct {
	PlayerID string `json:"player_id"`
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.DeckCount < 1 {
		req.DeckCount = 1
	}

	e := s.sup.CreateGame(req.DeckCount)
	gamesCreated.Inc()
	c.JSON(http.StatusCreated, gin.H{"game_id": e.GameID()})
}

type gameSummary struct {
	ID          string      `json:"id"`
	Status      game.Status `json:"status"`
	PlayerCount int         `json:"player_count"`
	TurnCount   int         `json:"turn_count"`
}

func (s *Server) handleListGames(c *gin.Context) {
	ids := s.sup.Registry().IDs()
	summaries := make([]gameSummary, 0, len(ids))
	for _, id := range ids {
		e, ok := s.sup.Registry().Lookup(id)
		if !ok {
			continue
		}
		state := e.GetState()
		summaries = append(summaries, gameSummary{
			ID:          state.ID,
			Status:      state.Status,
			PlayerCount: len(state.Players),
			TurnCount:   state.TurnCount,
		})
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) handleGetGame(c *gin.Context) {
	e, err := s.sup.Lookup(c.Param("id"))
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, e.GetState())
}

func (s *Server) handleJoin(c *gin.Context) {
	e, err := s.sup.Lookup(c.Param("id"))
	if err != nil {
		writeGameError(c, err)
		return
	}

	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "display name is required"})
		return
	}

	spec := engine.JoinSpec{
		UserID:     req.UserID,
		Name:       req.Name,
		Kind:       game.PlayerKind(req.Kind),
		Difficulty: game.Difficulty(req.Difficulty),
	}
	playerID, err := e.Join(spec)
	if err != nil {
		writeGameError(c, err)
		return
	}

	sess := s.sessions.Create(e.GameID(), playerID, req.Name)
	c.JSON(http.StatusCreated, gin.H{
		"player_id":     playerID,
		"session_token": sess.Token,
	})
}

func (s *Server) handleStart(c *gin.Context) {
	e, err := s.sup.Lookup(c.Param("id"))
	if err != nil {
		writeGameError(c, err)
		return
	}
	if err := e.Start(); err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

func (s *Server) handlePlay(c *gin.Context) {
	e, err := s.sup.Lookup(c.Param("id"))
	if err != nil {
		writeGameError(c, err)
		return
	}

	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	played := make(cards.Cards, 0, len(req.Cards))
	for _, in := range req.Cards {
		played = append(played, cards.Card{Suit: cards.Suit(in.Suit), Rank: cards.Rank(in.Rank)})
	}

	err = e.Play(req.PlayerID, played, cards.Suit(req.NominatedSuit))
	recordMove("play", err)
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleDraw(c *gin.Context) {
	e, err := s.sup.Lookup(c.Param("id"))
	if err != nil {
		writeGameError(c, err)
		return
	}

	var req drawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	reason := game.DrawReason(req.Reason)
	if reason == "" {
		reason = game.DrawCannotPlay
	}

	err = e.Draw(req.PlayerID, reason)
	recordMove("draw", err)
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleLeave(c *gin.Context) {
	e, err := s.sup.Lookup(c.Param("id"))
	if err != nil {
		writeGameError(c, err)
		return
	}

	var req leaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := e.Leave(req.PlayerID); err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleHeartbeat(c *gin.Context) {
	token := c.Param("token")
	if !s.sessions.Heartbeat(token) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown or expired session"})
		return
	}
	s.monitor.Heartbeat(token)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeGameError maps the game error taxonomy onto HTTP statuses
func writeGameError(c *gin.Context, err error) {
	var ge *game.Error
	if !errors.As(err, &ge) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusUnprocessableEntity
	switch ge.Code {
	case game.ErrGameNotFound, game.ErrPlayerNotFound:
		status = http.StatusNotFound
	case game.ErrCannotJoin, game.ErrInvalidStatus, game.ErrCorrupted:
		status = http.StatusConflict
	case game.ErrInvalidState, game.ErrOperationFailed:
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{"error": ge.Error(), "code": string(ge.Code)})
}
