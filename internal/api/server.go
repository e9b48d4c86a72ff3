// Package api exposes the operator surface: roster inspection, manual
// agent creation, the decision log, and a live decision feed.
package api

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"botfarm/internal/config"
	"botfarm/internal/factory"
	"botfarm/internal/models"

	"github.com/gin-gonic/gin"
)

// Engine is the slice of the lifecycle manager the API serves.
type Engine interface {
	Roster() []*models.Agent
	Health() models.EcosystemHealth
	Decisions(limit int) []models.DecisionRecord
	SubscribeDecisions() (<-chan models.DecisionRecord, func())
	CreateAgentManually(ctx context.Context, spec factory.CreationSpec) (*models.Agent, error)
}

// Server is the operator API handler.
type Server struct {
	Router  *gin.Engine
	engine  Engine
	cfg     config.ServerConfig
	started time.Time
}

// NewServer creates the operator API.
func NewServer(engine Engine, cfg config.ServerConfig) *Server {
	router := gin.Default()

	s := &Server{
		Router:  router,
		engine:  engine,
		cfg:     cfg,
		started: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints.
func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime": time.Since(s.started).String()})
	})

	v1 := s.Router.Group("/api/v1")
	{
		v1.GET("/agents", s.ListAgents)
		v1.GET("/agents/:id", s.GetAgent)
		v1.POST("/agents", s.requireAdmin, s.CreateAgent)

		v1.GET("/status", s.GetStatus)
		v1.GET("/decisions", s.GetDecisions)
		v1.GET("/health/ecosystem", s.GetEcosystemHealth)
	}

	s.Router.GET("/ws/decisions", s.StreamDecisions)
}

// requireAdmin guards mutating endpoints with the static operator token.
func (s *Server) requireAdmin(c *gin.Context) {
	if s.cfg.AdminToken == "" || c.GetHeader("Authorization") != "Bearer "+s.cfg.AdminToken {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin token required"})
		return
	}
	c.Next()
}

// AgentView is the wire shape of one roster entry.
type AgentView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	Role        string   `json:"role"`
	Personality string   `json:"personality"`
	Communities []string `json:"communities,omitempty"`
	CreatedAt   string   `json:"created_at"`
	LastActive  string   `json:"last_active,omitempty"`
}

func viewOf(a *models.Agent) AgentView {
	v := AgentView{
		ID:          a.ID,
		Name:        a.Name,
		Status:      string(a.Status),
		Role:        string(a.Personality.Role),
		Personality: a.Personality.Kind,
		Communities: a.AssignedCommunities,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
	if !a.LastActive.IsZero() {
		v.LastActive = a.LastActive.Format(time.RFC3339)
	}
	return v
}

func (s *Server) ListAgents(c *gin.Context) {
	roster := s.engine.Roster()
	sort.Slice(roster, func(i, j int) bool { return roster[i].Name < roster[j].Name })

	status := c.Query("status")
	views := make([]AgentView, 0, len(roster))
	for _, a := range roster {
		if status != "" && string(a.Status) != status {
			continue
		}
		views = append(views, viewOf(a))
	}
	c.JSON(http.StatusOK, gin.H{"agents": views, "count": len(views)})
}

func (s *Server) GetAgent(c *gin.Context) {
	id := c.Param("id")
	for _, a := range s.engine.Roster() {
		if a.ID == id {
			c.JSON(http.StatusOK, viewOf(a))
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
}

// CreateAgentRequest is the operator's manual creation payload.
type CreateAgentRequest struct {
	PersonalityKind string   `json:"personality_kind"`
	Role            string   `json:"role"`
	Communities     []string `json:"communities"`
	Topics          []string `json:"topics"`
	Reason          string   `json:"reason"`
}

func (s *Server) CreateAgent(c *gin.Context) {
	var req CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PersonalityKind == "" && req.Role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "personality_kind or role is required"})
		return
	}
	if req.Reason == "" {
		req.Reason = "manual"
	}

	agent, err := s.engine.CreateAgentManually(c.Request.Context(), factory.CreationSpec{
		Reason:          req.Reason,
		PersonalityKind: req.PersonalityKind,
		Role:            models.AgentRole(req.Role),
		Communities:     req.Communities,
		Topics:          req.Topics,
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, viewOf(agent))
}

func (s *Server) GetStatus(c *gin.Context) {
	health := s.engine.Health()
	byStatus := map[string]int{}
	for _, a := range s.engine.Roster() {
		byStatus[string(a.Status)]++
	}
	c.JSON(http.StatusOK, gin.H{
		"uptime":          time.Since(s.started).String(),
		"agents_total":    health.TotalAgents,
		"agents_active":   health.ActiveAgents,
		"agents_by_state": byStatus,
		"health_score":    health.OverallHealthScore,
	})
}

func (s *Server) GetDecisions(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{"decisions": s.engine.Decisions(limit)})
}

func (s *Server) GetEcosystemHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Health())
}
