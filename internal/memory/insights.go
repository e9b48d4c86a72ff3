package memory

import (
	"fmt"
	"time"

	"botfarm/internal/models"
)

// Insights aggregates one agent's interaction history over a window. The
// lifecycle evaluator turns these into a performance score.
type Insights struct {
	AgentID              string
	WindowStart          time.Time
	WindowEnd            time.Time
	PostsCreated         int
	CommentsMade         int
	VotesCast            int
	ConversationsStarted int
	AveragePostScore     float64
	AverageCommentScore  float64
	ResponseQualityAvg   float64
	ActiveCommunities    []string
	ActiveDays           int
}

// PerformanceInsights scans the agent's interactions over the trailing
// window and aggregates them in one pass.
func (s *Store) PerformanceInsights(agentID string, windowDays int) (*Insights, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -windowDays)

	var recs []models.InteractionRecord
	err := s.db.Where("agent_id = ? AND created_at >= ?", agentID, start).
		Order("created_at asc").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load interactions: %w", err)
	}

	in := &Insights{AgentID: agentID, WindowStart: start, WindowEnd: end}
	var (
		postScoreSum, commentScoreSum, qualitySum float64
		qualityCount                              int
		communities                               = map[string]struct{}{}
		days                                      = map[string]struct{}{}
	)

	for _, r := range recs {
		switch r.Kind {
		case models.ActionCreatePost:
			in.PostsCreated++
			postScoreSum += float64(r.VoteScore)
		case models.ActionComment, models.ActionReply:
			in.CommentsMade++
			commentScoreSum += float64(r.VoteScore)
		case models.ActionVotePost, models.ActionVoteComment:
			in.VotesCast++
		}
		if r.RepliesGenerated > 0 {
			in.ConversationsStarted++
		}
		if r.ResponseText != "" {
			qualitySum += r.QualityScore
			qualityCount++
		}
		if r.Community != "" {
			communities[r.Community] = struct{}{}
		}
		days[r.CreatedAt.Format("2006-01-02")] = struct{}{}
	}

	if in.PostsCreated > 0 {
		in.AveragePostScore = postScoreSum / float64(in.PostsCreated)
	}
	if in.CommentsMade > 0 {
		in.AverageCommentScore = commentScoreSum / float64(in.CommentsMade)
	}
	if qualityCount > 0 {
		in.ResponseQualityAvg = qualitySum / float64(qualityCount)
	}
	for c := range communities {
		in.ActiveCommunities = append(in.ActiveCommunities, c)
	}
	in.ActiveDays = len(days)
	return in, nil
}
