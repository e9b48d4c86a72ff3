package models

import "time"

// InteractionRecord is the immutable log row written after every executed
// action. SuccessMetrics holds a JSON object of outcome counters.
type InteractionRecord struct {
	ID               string     `json:"id" gorm:"primary_key"`
	AgentID          string     `json:"agent_id" gorm:"index"`
	Kind             ActionKind `json:"kind"`
	ContentID        int        `json:"content_id"`
	Community        string     `json:"community" gorm:"index"`
	ResponseText     string     `json:"response_text" gorm:"type:text"`
	QualityScore     float64    `json:"quality_score"`
	VoteScore        int        `json:"vote_score"`
	RepliesGenerated int        `json:"replies_generated"`
	SuccessMetrics   string     `json:"success_metrics" gorm:"type:text"`
	CreatedAt        time.Time  `json:"created_at" gorm:"index"`
}

// MemoryEntry is a distilled lesson an agent keeps after a significant
// interaction. LearnedPreferences and SuccessIndicators hold JSON objects.
type MemoryEntry struct {
	ID                 string    `json:"id" gorm:"primary_key"`
	AgentID            string    `json:"agent_id" gorm:"index"`
	Topic              string    `json:"topic" gorm:"index"`
	Community          string    `json:"community" gorm:"index"`
	Summary            string    `json:"summary" gorm:"type:text"`
	LearnedPreferences string    `json:"learned_preferences" gorm:"type:text"`
	SuccessIndicators  string    `json:"success_indicators" gorm:"type:text"`
	Importance         float64   `json:"importance"`
	CreatedAt          time.Time `json:"created_at" gorm:"index"`
}

// DecisionRecord is one entry in the lifecycle manager's bounded decision
// log, exposed over the operator API.
type DecisionRecord struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	AgentID   string    `json:"agent_id,omitempty"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
