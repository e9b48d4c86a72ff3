package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ApiClient talks to the engine's operator API.
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	AdminToken string
}

// NewApiClient creates a new API client
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("BOTFARM_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL:    baseURL,
		AdminToken: os.Getenv("BOTFARM_ADMIN_TOKEN"),
	}

	if !client.ping() {
		fmt.Printf("Warning: engine at %s is not reachable\n", baseURL)
	}

	return client
}

// ping checks if the engine is available
func (c *ApiClient) ping() bool {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Agent is the wire shape of one roster entry.
type Agent struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	Role        string   `json:"role"`
	Personality string   `json:"personality"`
	Communities []string `json:"communities,omitempty"`
	CreatedAt   string   `json:"created_at"`
	LastActive  string   `json:"last_active,omitempty"`
}

// Decision is one entry of the engine's decision log.
type Decision struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	AgentID   string    `json:"agent_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Status summarizes the running engine.
type Status struct {
	Uptime        string         `json:"uptime"`
	AgentsTotal   int            `json:"agents_total"`
	AgentsActive  int            `json:"agents_active"`
	AgentsByState map[string]int `json:"agents_by_state"`
	HealthScore   float64        `json:"health_score"`
}

// EcosystemHealth is the roster-wide summary.
type EcosystemHealth struct {
	TotalAgents        int     `json:"total_agents"`
	ActiveAgents       int     `json:"active_agents"`
	CreationsToday     int     `json:"creations_today"`
	RetirementsToday   int     `json:"retirements_today"`
	CommunitiesCovered int     `json:"communities_covered"`
	OverallHealthScore float64 `json:"overall_health_score"`
}

// GetStatus retrieves the engine status
func (c *ApiClient) GetStatus() (*Status, error) {
	resp, err := c.httpClient.Get(c.BaseURL + "/api/v1/status")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get status with status code: %d", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}

	return &status, nil
}

// GetAgents retrieves the roster with an optional status filter
func (c *ApiClient) GetAgents(status string) ([]Agent, error) {
	url := c.BaseURL + "/api/v1/agents"
	if status != "" {
		url += "?status=" + status
	}

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get agents with status code: %d", resp.StatusCode)
	}

	var payload struct {
		Agents []Agent `json:"agents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return payload.Agents, nil
}

// CreateAgentRequest is the manual creation payload.
type CreateAgentRequest struct {
	PersonalityKind string   `json:"personality_kind,omitempty"`
	Role            string   `json:"role,omitempty"`
	Communities     []string `json:"communities,omitempty"`
	Reason          string   `json:"reason,omitempty"`
}

// CreateAgent asks the engine to build a new agent
func (c *ApiClient) CreateAgent(req CreateAgentRequest) (*Agent, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest("POST", c.BaseURL+"/api/v1/agents", bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.AdminToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to create agent: %s", string(body))
	}

	var agent Agent
	if err := json.NewDecoder(resp.Body).Decode(&agent); err != nil {
		return nil, err
	}

	return &agent, nil
}

// GetDecisions retrieves the most recent decisions
func (c *ApiClient) GetDecisions(limit int) ([]Decision, error) {
	resp, err := c.httpClient.Get(fmt.Sprintf("%s/api/v1/decisions?limit=%d", c.BaseURL, limit))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get decisions with status code: %d", resp.StatusCode)
	}

	var payload struct {
		Decisions []Decision `json:"decisions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return payload.Decisions, nil
}

// GetEcosystemHealth retrieves the roster-wide health summary
func (c *ApiClient) GetEcosystemHealth() (*EcosystemHealth, error) {
	resp, err := c.httpClient.Get(c.BaseURL + "/api/v1/health/ecosystem")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get ecosystem health with status code: %d", resp.StatusCode)
	}

	var health EcosystemHealth
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, err
	}

	return &health, nil
}
