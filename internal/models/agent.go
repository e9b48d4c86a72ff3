package models

import (
	"time"
)

// AgentStatus tracks where an agent is in its lifecycle.
type AgentStatus string

const (
	StatusCreating   AgentStatus = "creating"
	StatusActive     AgentStatus = "active"
	StatusInactive   AgentStatus = "inactive"
	StatusOptimizing AgentStatus = "optimizing"
	StatusRetiring   AgentStatus = "retiring"
	StatusRetired    AgentStatus = "retired"
)

// Terminal reports whether the status admits no further transitions.
func (s AgentStatus) Terminal() bool {
	return s == StatusRetired
}

// AgentRole describes the behavioral archetype an agent plays on the
// platform.
type AgentRole string

const (
	RoleContentCreator AgentRole = "content_creator"
	RoleExpert         AgentRole = "expert"
	RoleFacilitator    AgentRole = "facilitator"
	RoleContrarian     AgentRole = "contrarian"
	RoleSupporter      AgentRole = "supporter"
	RoleModerator      AgentRole = "moderator"
	RoleLurker         AgentRole = "lurker"
)

// Agent represents one managed platform persona.
type Agent struct {
	ID                  string      `json:"id"`
	UserID              int         `json:"user_id"`
	Name                string      `json:"name"`
	Status              AgentStatus `json:"status"`
	Personality         Personality `json:"personality"`
	AssignedCommunities []string    `json:"assigned_communities"`
	CreatedAt           time.Time   `json:"created_at"`
	LastActive          time.Time   `json:"last_active"`
	CreationReason      string      `json:"creation_reason"`
}
