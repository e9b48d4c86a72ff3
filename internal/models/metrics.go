package models

import "time"

// Recommendation is the evaluator's verdict on an agent.
type Recommendation string

const (
	RecommendExcellent       Recommendation = "excellent"
	RecommendContinue        Recommendation = "continue"
	RecommendOptimize        Recommendation = "optimize"
	RecommendMajorAdjustment Recommendation = "major_adjustments"
	RecommendRetire          Recommendation = "retire"
)

// PerformanceMetrics summarizes one agent's activity over an evaluation
// window.
type PerformanceMetrics struct {
	AgentID              string         `json:"agent_id"`
	WindowStart          time.Time      `json:"window_start"`
	WindowEnd            time.Time      `json:"window_end"`
	PostsCreated         int            `json:"posts_created"`
	CommentsMade         int            `json:"comments_made"`
	VotesCast            int            `json:"votes_cast"`
	ConversationsStarted int            `json:"conversations_started"`
	AverageCommentScore  float64        `json:"average_comment_score"`
	AveragePostScore     float64        `json:"average_post_score"`
	ResponseQualityAvg   float64        `json:"response_quality_avg"`
	ConsistencyScore     float64        `json:"consistency_score"`
	ActiveCommunities    []string       `json:"active_communities"`
	OverallScore         float64        `json:"overall_score"`
	Recommendation       Recommendation `json:"recommendation"`
}

// EcosystemHealth is the roster-wide summary the lifecycle manager
// recomputes every cycle.
type EcosystemHealth struct {
	TotalAgents        int       `json:"total_agents"`
	ActiveAgents       int       `json:"active_agents"`
	CreationsToday     int       `json:"creations_today"`
	RetirementsToday   int       `json:"retirements_today"`
	CommunitiesCovered int       `json:"communities_covered"`
	OverallHealthScore float64   `json:"overall_health_score"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// PlatformAnalysis is the analyzer's snapshot of where the platform needs
// attention.
type PlatformAnalysis struct {
	ActivityScores      map[string]float64       `json:"activity_scores"`
	InactiveCommunities []string                 `json:"inactive_communities"`
	ContentGaps         []string                 `json:"content_gaps"`
	FacilitationNeeds   []string                 `json:"facilitation_needs"`
	Recommendations     []CreationRecommendation `json:"recommendations"`
	AnalyzedAt          time.Time                `json:"analyzed_at"`
}

// CreationRecommendation proposes one new agent, ranked by priority.
type CreationRecommendation struct {
	Reason          string    `json:"reason"`
	Priority        int       `json:"priority"`
	Role            AgentRole `json:"role"`
	PersonalityKind string    `json:"personality_kind"`
	Communities     []string  `json:"communities"`
	Topics          []string  `json:"topics,omitempty"`
}
