package lifecycle

import (
	"fmt"

	"botfarm/internal/config"
	"botfarm/internal/memory"
	"botfarm/internal/models"
)

// InsightSource is the slice of the memory store the evaluator reads.
type InsightSource interface {
	PerformanceInsights(agentID string, windowDays int) (*memory.Insights, error)
}

// Evaluator turns an agent's interaction history into a performance score
// and a recommendation.
type Evaluator struct {
	insights InsightSource
	cfg      config.EngineConfig
}

// NewEvaluator returns an evaluator.
func NewEvaluator(insights InsightSource, cfg config.EngineConfig) *Evaluator {
	return &Evaluator{insights: insights, cfg: cfg}
}

// Score component weights. Quality dominates: a quiet agent that writes
// well outranks a prolific one that writes badly.
const (
	weightQuality     = 0.4
	weightEngagement  = 0.3
	weightConsistency = 0.2
	weightActivity    = 0.1
)

// Evaluate scores one agent over the configured window.
func (e *Evaluator) Evaluate(agent *models.Agent) (*models.PerformanceMetrics, error) {
	in, err := e.insights.PerformanceInsights(agent.ID, e.cfg.EvaluationWindowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %s: %w", agent.Name, err)
	}
	return e.score(in), nil
}

func (e *Evaluator) score(in *memory.Insights) *models.PerformanceMetrics {
	m := &models.PerformanceMetrics{
		AgentID:              in.AgentID,
		WindowStart:          in.WindowStart,
		WindowEnd:            in.WindowEnd,
		PostsCreated:         in.PostsCreated,
		CommentsMade:         in.CommentsMade,
		VotesCast:            in.VotesCast,
		ConversationsStarted: in.ConversationsStarted,
		AverageCommentScore:  in.AverageCommentScore,
		AveragePostScore:     in.AveragePostScore,
		ResponseQualityAvg:   in.ResponseQualityAvg,
		ActiveCommunities:    in.ActiveCommunities,
	}

	quality := clamp01(in.ResponseQualityAvg)

	// Vote scores live roughly in [-5, +5]; normalize to [0,1].
	var engagement float64
	var parts int
	if in.CommentsMade > 0 {
		engagement += clamp01((in.AverageCommentScore + 5) / 10)
		parts++
	}
	if in.PostsCreated > 0 {
		engagement += clamp01((in.AveragePostScore + 5) / 10)
		parts++
	}
	if parts > 0 {
		engagement /= float64(parts)
	}

	consistency := clamp01(float64(in.ActiveDays) / float64(e.cfg.EvaluationWindowDays))
	m.ConsistencyScore = consistency

	activity := clamp01(float64(in.CommentsMade) / 20)

	m.OverallScore = quality*weightQuality +
		engagement*weightEngagement +
		consistency*weightConsistency +
		activity*weightActivity
	m.Recommendation = recommend(m.OverallScore)
	return m
}

// recommend maps an overall score onto an action band.
func recommend(score float64) models.Recommendation {
	switch {
	case score >= 0.8:
		return models.RecommendExcellent
	case score >= 0.6:
		return models.RecommendContinue
	case score >= 0.4:
		return models.RecommendOptimize
	case score >= 0.2:
		return models.RecommendMajorAdjustment
	default:
		return models.RecommendRetire
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
