package lifecycle

import (
	"context"
	"testing"

	"botfarm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	communities []models.Community
	posts       map[string][]models.Post
	responses   map[int][]models.Response
	users       map[string]int
}

func (f *fakeReader) Communities(ctx context.Context) ([]models.Community, error) {
	return f.communities, nil
}

func (f *fakeReader) RecentPosts(ctx context.Context, community string, limit int) ([]models.Post, error) {
	posts := f.posts[community]
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (f *fakeReader) PostResponses(ctx context.Context, postID int) ([]models.Response, error) {
	return f.responses[postID], nil
}

func (f *fakeReader) ActiveUserCount(ctx context.Context, community string) (int, error) {
	return f.users[community], nil
}

func postsFor(community string, n, firstID int) []models.Post {
	out := make([]models.Post, n)
	for i := range out {
		out[i] = models.Post{ID: firstID + i, Community: community}
	}
	return out
}

func responsesFor(postID, n int) []models.Response {
	out := make([]models.Response, n)
	for i := range out {
		out[i] = models.Response{ID: 1000 + postID*100 + i, PostID: postID}
	}
	return out
}

func TestAnalyzeFlagsDeadCommunity(t *testing.T) {
	reader := &fakeReader{
		communities: []models.Community{{Name: "ghosttown"}},
		posts:       map[string][]models.Post{},
		users:       map[string]int{},
	}
	a := NewAnalyzer(reader)

	analysis, err := a.Analyze(context.Background(), nil)
	require.NoError(t, err)

	assert.Contains(t, analysis.InactiveCommunities, "ghosttown")
	require.Len(t, analysis.Recommendations, 1)
	rec := analysis.Recommendations[0]
	assert.Equal(t, 8, rec.Priority)
	assert.Equal(t, models.RoleContentCreator, rec.Role)
	assert.Equal(t, "creative_storyteller", rec.PersonalityKind)
	assert.Equal(t, []string{"ghosttown"}, rec.Communities)
}

func TestAnalyzeFlagsUncoveredCommunity(t *testing.T) {
	reader := &fakeReader{
		communities: []models.Community{{Name: "golang"}},
		posts:       map[string][]models.Post{"golang": postsFor("golang", 10, 1)},
		responses: map[int][]models.Response{
			1: responsesFor(1, 17),
			2: responsesFor(2, 17),
			3: responsesFor(3, 16),
		},
		users: map[string]int{"golang": 20},
	}
	a := NewAnalyzer(reader)

	roster := []*models.Agent{{
		Status:              models.StatusActive,
		AssignedCommunities: []string{"general"},
	}}
	analysis, err := a.Analyze(context.Background(), roster)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, analysis.ActivityScores["golang"], 1e-9)
	assert.Contains(t, analysis.ContentGaps, "golang")
	require.Len(t, analysis.Recommendations, 1)
	rec := analysis.Recommendations[0]
	assert.Equal(t, 7, rec.Priority)
	assert.Equal(t, models.RoleExpert, rec.Role)
	assert.Equal(t, "tech_expert", rec.PersonalityKind)
}

func TestAnalyzeCoverageIgnoresRetiringAgents(t *testing.T) {
	reader := &fakeReader{
		communities: []models.Community{{Name: "golang"}},
		posts:       map[string][]models.Post{"golang": postsFor("golang", 10, 1)},
		responses: map[int][]models.Response{
			1: responsesFor(1, 25),
			2: responsesFor(2, 25),
		},
		users: map[string]int{"golang": 20},
	}
	a := NewAnalyzer(reader)

	roster := []*models.Agent{{
		Status:              models.StatusRetiring,
		AssignedCommunities: []string{"golang"},
	}}
	analysis, err := a.Analyze(context.Background(), roster)
	require.NoError(t, err)

	assert.Contains(t, analysis.ContentGaps, "golang")
}

func TestAnalyzeFlagsFacilitationNeed(t *testing.T) {
	reader := &fakeReader{
		communities: []models.Community{{Name: "philosophy"}},
		posts:       map[string][]models.Post{"philosophy": postsFor("philosophy", 10, 1)},
		responses:   map[int][]models.Response{1: responsesFor(1, 5)},
		users:       map[string]int{"philosophy": 20},
	}
	a := NewAnalyzer(reader)

	roster := []*models.Agent{{
		Status:              models.StatusActive,
		AssignedCommunities: []string{"philosophy"},
	}}
	analysis, err := a.Analyze(context.Background(), roster)
	require.NoError(t, err)

	assert.Contains(t, analysis.FacilitationNeeds, "philosophy")
	require.Len(t, analysis.Recommendations, 1)
	rec := analysis.Recommendations[0]
	assert.Equal(t, 6, rec.Priority)
	assert.Equal(t, "helpful_moderator", rec.PersonalityKind)
}

func TestAnalyzeSortsRecommendationsByPriority(t *testing.T) {
	reader := &fakeReader{
		communities: []models.Community{
			{Name: "slowlane"},  // facilitation, priority 6
			{Name: "ghosttown"}, // inactive, priority 8
			{Name: "frontier"},  // uncovered, priority 7
		},
		posts: map[string][]models.Post{
			"slowlane": postsFor("slowlane", 10, 1),
			"frontier": postsFor("frontier", 10, 20),
		},
		responses: map[int][]models.Response{
			1:  responsesFor(1, 5),
			20: responsesFor(20, 25),
			21: responsesFor(21, 25),
		},
		users: map[string]int{"slowlane": 20, "frontier": 20},
	}
	a := NewAnalyzer(reader)

	roster := []*models.Agent{{
		Status:              models.StatusActive,
		AssignedCommunities: []string{"slowlane"},
	}}
	analysis, err := a.Analyze(context.Background(), roster)
	require.NoError(t, err)

	require.Len(t, analysis.Recommendations, 3)
	assert.Equal(t, 8, analysis.Recommendations[0].Priority)
	assert.Equal(t, 7, analysis.Recommendations[1].Priority)
	assert.Equal(t, 6, analysis.Recommendations[2].Priority)
}
