package lifecycle

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"botfarm/internal/models"
)

// PlatformReader is the slice of the platform client the analyzer needs.
type PlatformReader interface {
	Communities(ctx context.Context) ([]models.Community, error)
	RecentPosts(ctx context.Context, community string, limit int) ([]models.Post, error)
	PostResponses(ctx context.Context, postID int) ([]models.Response, error)
	ActiveUserCount(ctx context.Context, community string) (int, error)
}

// Analyzer surveys the platform and proposes agent creations.
type Analyzer struct {
	platform PlatformReader
}

// NewAnalyzer returns an analyzer.
func NewAnalyzer(platform PlatformReader) *Analyzer {
	return &Analyzer{platform: platform}
}

// Activity score weights and bands.
const (
	postsFullScale    = 10 // recent posts for a "fully active" community
	commentsFullScale = 50
	usersFullScale    = 20
	inactiveBelow     = 0.3
)

// Analyze scores every community and derives ranked creation
// recommendations. Per-community read failures degrade that community's
// score to zero instead of failing the whole analysis.
func (a *Analyzer) Analyze(ctx context.Context, roster []*models.Agent) (*models.PlatformAnalysis, error) {
	communities, err := a.platform.Communities(ctx)
	if err != nil {
		return nil, err
	}

	analysis := &models.PlatformAnalysis{
		ActivityScores: make(map[string]float64, len(communities)),
		AnalyzedAt:     time.Now().UTC(),
	}

	covered := coveredCommunities(roster)

	for _, community := range communities {
		score, comments := a.activityScore(ctx, community.Name)
		analysis.ActivityScores[community.Name] = score

		switch {
		case score < inactiveBelow:
			analysis.InactiveCommunities = append(analysis.InactiveCommunities, community.Name)
			analysis.Recommendations = append(analysis.Recommendations, models.CreationRecommendation{
				Reason:          "inactive community " + community.Name,
				Priority:        8,
				Role:            models.RoleContentCreator,
				PersonalityKind: "creative_storyteller",
				Communities:     []string{community.Name},
			})
		case !covered[strings.ToLower(community.Name)]:
			analysis.ContentGaps = append(analysis.ContentGaps, community.Name)
			analysis.Recommendations = append(analysis.Recommendations, models.CreationRecommendation{
				Reason:          "no expertise coverage in " + community.Name,
				Priority:        7,
				Role:            models.RoleExpert,
				PersonalityKind: "tech_expert",
				Communities:     []string{community.Name},
				Topics:          []string{community.Name},
			})
		case comments > 0 && score >= inactiveBelow && comments < postsFullScale:
			// Posts exist but conversations stall.
			analysis.FacilitationNeeds = append(analysis.FacilitationNeeds, community.Name)
			analysis.Recommendations = append(analysis.Recommendations, models.CreationRecommendation{
				Reason:          "threads in " + community.Name + " need facilitation",
				Priority:        6,
				Role:            models.RoleFacilitator,
				PersonalityKind: "helpful_moderator",
				Communities:     []string{community.Name},
			})
		}
	}

	sort.SliceStable(analysis.Recommendations, func(i, j int) bool {
		return analysis.Recommendations[i].Priority > analysis.Recommendations[j].Priority
	})
	return analysis, nil
}

// activityScore blends recent posting, commenting, and active-user volume.
// Returns the score and the raw comment count.
func (a *Analyzer) activityScore(ctx context.Context, community string) (float64, int) {
	posts, err := a.platform.RecentPosts(ctx, community, postsFullScale)
	if err != nil {
		log.Printf("Analyzer could not read posts for %s: %v", community, err)
		return 0, 0
	}

	comments := 0
	for i, p := range posts {
		if i >= 3 {
			break // sampling the newest few is enough for a trend
		}
		responses, err := a.platform.PostResponses(ctx, p.ID)
		if err != nil {
			continue
		}
		comments += len(responses)
	}

	users, err := a.platform.ActiveUserCount(ctx, community)
	if err != nil {
		users = 0
	}

	score := clamp01(float64(len(posts))/postsFullScale)*0.4 +
		clamp01(float64(comments)/commentsFullScale)*0.4 +
		clamp01(float64(users)/usersFullScale)*0.2
	return score, comments
}

func coveredCommunities(roster []*models.Agent) map[string]bool {
	covered := make(map[string]bool)
	for _, agent := range roster {
		if agent.Status == models.StatusRetired || agent.Status == models.StatusRetiring {
			continue
		}
		for _, c := range agent.AssignedCommunities {
			covered[strings.ToLower(c)] = true
		}
		for _, c := range agent.Personality.PreferredCommunities {
			covered[strings.ToLower(c)] = true
		}
	}
	return covered
}
