package decision

import (
	"testing"

	"botfarm/internal/config"
	"botfarm/internal/models"
	"botfarm/internal/rng"
)

type stubRand struct {
	f float64
	n int
}

func (r stubRand) Float64() float64 { return r.f }
func (r stubRand) IntN(n int) int {
	if r.n >= n {
		return n - 1
	}
	return r.n
}

func testAgent() *models.Agent {
	return &models.Agent{
		ID:     "agent-1",
		UserID: 42,
		Name:   "test_agent",
		Status: models.StatusActive,
		Personality: models.Personality{
			ActionWeights: map[models.ActionKind]float64{
				models.ActionCreatePost:  0.2,
				models.ActionComment:     0.5,
				models.ActionVotePost:    0.3,
				models.ActionVoteComment: 0.3,
				models.ActionReply:       0.4,
			},
			UpvoteTendency:       0.7,
			DownvoteTendency:     0.1,
			PreferredCommunities: []string{"golang"},
		},
	}
}

func newEngine(r rng.Rand) *Engine {
	return New(config.Default().Decision, r)
}

func TestDecideEmptyPlatformFallsBackToCreate(t *testing.T) {
	e := newEngine(stubRand{f: 0.5})
	got := e.Decide(testAgent(), &models.PlatformState{})
	if got == nil {
		t.Fatal("Decide(empty feed) = nil, want create_post")
	}
	if got.Kind != models.ActionCreatePost {
		t.Errorf("Decide(empty feed).Kind = %s, want create_post", got.Kind)
	}
	if got.Community != "golang" {
		t.Errorf("Decide(empty feed).Community = %q, want golang", got.Community)
	}
}

func TestDecideNothingPossibleReturnsNil(t *testing.T) {
	e := newEngine(stubRand{})
	agent := testAgent()
	agent.Personality.PreferredCommunities = nil
	agent.AssignedCommunities = nil

	if got := e.Decide(agent, &models.PlatformState{}); got != nil {
		t.Errorf("Decide(no candidates) = %+v, want nil", got)
	}
}

func TestDecideNeverTargetsOwnContent(t *testing.T) {
	agent := testAgent()
	state := &models.PlatformState{
		FocalPost: &models.Post{ID: 7, AuthorID: agent.UserID, Community: "golang"},
		Responses: []models.Response{
			{ID: 11, PostID: 7, AuthorID: agent.UserID},
		},
		PendingReplies: []models.Response{
			{ID: 12, PostID: 7, AuthorID: agent.UserID},
		},
	}

	r := rng.New(1)
	for i := 0; i < 200; i++ {
		got := newEngine(r).Decide(agent, state)
		if got == nil {
			continue
		}
		if got.Kind != models.ActionCreatePost {
			t.Fatalf("draw %d picked %s on own content, want create_post only", i, got.Kind)
		}
	}
}

func TestDecideBlocksSecondTopLevelResponse(t *testing.T) {
	agent := testAgent()
	state := &models.PlatformState{
		FocalPost:    &models.Post{ID: 7, AuthorID: 99, Community: "golang"},
		Responses:    []models.Response{{ID: 11, PostID: 7, AuthorID: 99}},
		HasResponded: true,
	}

	r := rng.New(2)
	for i := 0; i < 500; i++ {
		got := newEngine(r).Decide(agent, state)
		if got == nil {
			continue
		}
		if got.Kind == models.ActionComment {
			t.Fatalf("draw %d produced a second top-level response", i)
		}
	}
}

func TestDecideNeverRepliesTwiceToSameResponse(t *testing.T) {
	agent := testAgent()
	agent.Personality.ActionWeights = map[models.ActionKind]float64{
		models.ActionReply: 1,
	}
	agent.Personality.PreferredCommunities = nil
	state := &models.PlatformState{
		FocalPost:    &models.Post{ID: 7, AuthorID: 99, Community: "golang"},
		Responses:    []models.Response{{ID: 11, PostID: 7, AuthorID: 99}},
		HasResponded: true,
		RepliedTo:    map[int]bool{11: true},
	}

	r := rng.New(4)
	for i := 0; i < 500; i++ {
		got := newEngine(r).Decide(agent, state)
		if got != nil && got.Kind == models.ActionReply {
			t.Fatalf("draw %d replied again to response %d", i, got.TargetID)
		}
	}
}

func TestDecidePendingReplyDominates(t *testing.T) {
	agent := testAgent()
	state := &models.PlatformState{
		PendingReplies: []models.Response{{ID: 31, PostID: 7, AuthorID: 99}},
	}

	r := rng.New(3)
	e := newEngine(r)
	replies := 0
	const draws = 1000
	for i := 0; i < draws; i++ {
		got := e.Decide(agent, state)
		if got != nil && got.Kind == models.ActionReply && got.TargetID == 31 {
			replies++
		}
	}
	// Reply weight 0.4*1000 against create weight 0.2*300 leaves the
	// pending reply with ~87% of the mass; anything under 80% means the
	// boost is broken.
	if replies < draws*80/100 {
		t.Errorf("pending reply chosen %d/%d times, want >= 80%%", replies, draws)
	}
}

func TestDecideSoloFirstCommentOutweighsContested(t *testing.T) {
	agent := testAgent()
	e := newEngine(stubRand{f: 0})

	solo := &models.PlatformState{FocalPost: &models.Post{ID: 7, AuthorID: 99, Community: "golang"}}
	contested := &models.PlatformState{
		FocalPost: &models.Post{ID: 7, AuthorID: 99, Community: "golang"},
		Responses: []models.Response{{ID: 11, PostID: 7, AuthorID: 98}},
	}

	soloW := weightOf(e, agent, solo, models.ActionComment)
	contestedW := weightOf(e, agent, contested, models.ActionComment)
	if soloW <= contestedW {
		t.Errorf("solo first-comment weight %v, want above contested %v", soloW, contestedW)
	}
}

// weightOf sums the lottery weight of a kind in the candidate set.
func weightOf(e *Engine, agent *models.Agent, state *models.PlatformState, kind models.ActionKind) float64 {
	var total float64
	for _, c := range e.collect(agent, state) {
		if c.action.Kind == kind {
			total += c.weight
		}
	}
	return total
}

func TestVoteDirectionFollowsTendencies(t *testing.T) {
	agent := testAgent()
	agent.Personality.UpvoteTendency = 1
	agent.Personality.DownvoteTendency = 0
	agent.Personality.ActionWeights = map[models.ActionKind]float64{
		models.ActionVotePost: 1,
	}
	agent.Personality.PreferredCommunities = nil

	state := &models.PlatformState{
		FocalPost: &models.Post{ID: 7, AuthorID: 99, Community: "golang"},
	}

	e := newEngine(stubRand{f: 0.99})
	got := e.Decide(agent, state)
	if got == nil || got.Kind != models.ActionVotePost {
		t.Fatalf("Decide = %+v, want vote_post", got)
	}
	if got.Direction != models.VoteUp {
		t.Errorf("Direction = %d, want upvote with pure upvote tendency", got.Direction)
	}
}

func TestVoteDirectionCoinFlipOnZeroTendencies(t *testing.T) {
	e := newEngine(stubRand{f: 0.7})
	p := &models.Personality{}
	if got := e.voteDirection(p); got != models.VoteDown {
		t.Errorf("voteDirection(zero tendencies, draw 0.7) = %d, want downvote", got)
	}
	e = newEngine(stubRand{f: 0.2})
	if got := e.voteDirection(p); got != models.VoteUp {
		t.Errorf("voteDirection(zero tendencies, draw 0.2) = %d, want upvote", got)
	}
}
