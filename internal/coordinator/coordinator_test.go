package coordinator

import (
	"testing"
	"time"

	"botfarm/internal/config"
	"botfarm/internal/models"
	"botfarm/internal/rng"
	"botfarm/internal/timing"
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

func testCoordinator(cfg config.CoordinatorConfig, r rng.Rand) *Coordinator {
	return New(cfg, timing.New(config.Default().Timing), r)
}

func activeAgent(id string, userID int, role models.AgentRole, communities ...string) *models.Agent {
	return &models.Agent{
		ID:     id,
		UserID: userID,
		Name:   id,
		Status: models.StatusActive,
		Personality: models.Personality{
			Role:                 role,
			PreferredCommunities: communities,
		},
		AssignedCommunities: communities,
	}
}

func contentEvent(id int, community string) models.Event {
	return models.Event{
		Kind:      models.EventNewContent,
		ContentID: id,
		Community: community,
		AuthorID:  1,
		Body:      "a fresh discussion thread",
		CreatedAt: time.Now(),
	}
}

func TestCoordinateRespectsPerContentCap(t *testing.T) {
	cfg := config.Default().Coordinator
	c := testCoordinator(cfg, stubRand{f: 0})
	now := time.Now()

	// The content already got its quota of responses this hour.
	c.RecordResponse(5, now.Add(-10*time.Minute))
	c.RecordResponse(5, now.Add(-5*time.Minute))

	roster := []*models.Agent{activeAgent("a1", 10, models.RoleSupporter, "golang")}
	got := c.Coordinate(roster, []models.Event{contentEvent(5, "golang")}, now)

	for _, s := range got {
		if s.Action.TargetID == 5 {
			t.Errorf("scheduled %s against capped content 5", s.Action.Kind)
		}
	}
}

func TestCoordinateCapExpiresWithWindow(t *testing.T) {
	cfg := config.Default().Coordinator
	c := testCoordinator(cfg, stubRand{f: 0})
	now := time.Now()

	// Same two responses, but outside the rolling window.
	c.RecordResponse(5, now.Add(-2*time.Hour))
	c.RecordResponse(5, now.Add(-90*time.Minute))

	roster := []*models.Agent{activeAgent("a1", 10, models.RoleSupporter, "golang")}
	got := c.Coordinate(roster, []models.Event{contentEvent(5, "golang")}, now)

	found := false
	for _, s := range got {
		if s.Action.TargetID == 5 {
			found = true
		}
	}
	if !found {
		t.Error("stale ledger entries still blocked scheduling")
	}
}

func TestCoordinateChargesAdmissionsAgainstCap(t *testing.T) {
	cfg := config.Default().Coordinator
	cfg.MaxResponsesPerContent = 2
	cfg.MaxSelectedForContent = 4
	c := testCoordinator(cfg, stubRand{f: 0})
	now := time.Now()

	roster := []*models.Agent{
		activeAgent("a1", 10, models.RoleSupporter, "golang"),
		activeAgent("a2", 11, models.RoleSupporter, "golang"),
		activeAgent("a3", 12, models.RoleSupporter, "golang"),
		activeAgent("a4", 13, models.RoleSupporter, "golang"),
	}
	ev := []models.Event{contentEvent(5, "golang")}

	count := func(got []models.ScheduledAction) int {
		n := 0
		for _, s := range got {
			if s.Action.TargetID == 5 {
				n++
			}
		}
		return n
	}

	// A single cycle cannot admit past the cap even with selection room.
	first := count(c.Coordinate(roster, ev, now))
	if first > cfg.MaxResponsesPerContent {
		t.Fatalf("one cycle admitted %d responses to content 5, cap is %d",
			first, cfg.MaxResponsesPerContent)
	}

	// Nothing from the first cycle has executed yet; the next cycle must
	// still see the content as saturated.
	second := count(c.Coordinate(roster, ev, now.Add(time.Minute)))
	if first+second > cfg.MaxResponsesPerContent {
		t.Errorf("adjacent cycles admitted %d+%d responses, cap is %d",
			first, second, cfg.MaxResponsesPerContent)
	}
}

func TestCoordinateNeverSelectsEventAuthor(t *testing.T) {
	cfg := config.Default().Coordinator
	c := testCoordinator(cfg, stubRand{f: 0})

	author := activeAgent("author", 1, models.RoleSupporter, "golang")
	got := c.Coordinate([]*models.Agent{author}, []models.Event{contentEvent(5, "golang")}, time.Now())

	for _, s := range got {
		if s.AgentID == "author" && s.Action.Kind != models.ActionCreatePost {
			t.Errorf("author scheduled to respond to its own content: %+v", s)
		}
	}
}

func TestCoordinatePerAgentBudget(t *testing.T) {
	cfg := config.Default().Coordinator
	c := testCoordinator(cfg, stubRand{f: 0})

	roster := []*models.Agent{activeAgent("a1", 10, models.RoleSupporter, "golang")}
	events := []models.Event{
		contentEvent(1, "golang"), contentEvent(2, "golang"),
		contentEvent(3, "golang"), contentEvent(4, "golang"),
		contentEvent(5, "golang"),
	}

	got := c.Coordinate(roster, events, time.Now())
	if len(got) > cfg.MaxActionsPerAgent {
		t.Errorf("agent scheduled %d times, cap is %d", len(got), cfg.MaxActionsPerAgent)
	}
}

func TestCoordinateSelectionLimits(t *testing.T) {
	cfg := config.Default().Coordinator
	c := testCoordinator(cfg, stubRand{f: 0})

	roster := []*models.Agent{
		activeAgent("a1", 10, models.RoleSupporter, "golang"),
		activeAgent("a2", 11, models.RoleSupporter, "golang"),
		activeAgent("a3", 12, models.RoleSupporter, "golang"),
		activeAgent("a4", 13, models.RoleSupporter, "golang"),
	}

	got := c.Coordinate(roster, []models.Event{contentEvent(1, "golang")}, time.Now())
	if len(got) > cfg.MaxSelectedForContent {
		t.Errorf("%d agents on one new post, cap is %d", len(got), cfg.MaxSelectedForContent)
	}

	response := models.Event{
		Kind: models.EventNewResponse, ContentID: 2, Community: "golang",
		AuthorID: 1, Body: "a reply", CreatedAt: time.Now(),
	}
	got = c.Coordinate(roster, []models.Event{response}, time.Now())
	if len(got) > cfg.MaxSelectedForResponse {
		t.Errorf("%d agents on one response, cap is %d", len(got), cfg.MaxSelectedForResponse)
	}
}

func TestCoordinateDamperGatesExecution(t *testing.T) {
	cfg := config.Default().Coordinator
	cfg.ExecutionRate = 0

	c := testCoordinator(cfg, stubRand{f: 0.5})
	roster := []*models.Agent{activeAgent("a1", 10, models.RoleSupporter, "golang")}
	got := c.Coordinate(roster, []models.Event{contentEvent(1, "golang")}, time.Now())

	for _, s := range got {
		if s.Reason == "event response" {
			t.Error("zero execution rate still scheduled an event response")
		}
	}
}

func TestCoordinatePrioritizesRepliesOverComments(t *testing.T) {
	cfg := config.Default().Coordinator
	c := testCoordinator(cfg, stubRand{f: 0})

	roster := []*models.Agent{
		activeAgent("a1", 10, models.RoleSupporter, "golang"),
		activeAgent("a2", 11, models.RoleSupporter, "golang"),
	}
	events := []models.Event{
		contentEvent(1, "golang"),
		{Kind: models.EventNewResponse, ContentID: 2, Community: "golang", AuthorID: 1, Body: "r", CreatedAt: time.Now()},
	}

	got := c.Coordinate(roster, events, time.Now())
	if len(got) < 2 {
		t.Fatalf("expected both events scheduled, got %d actions", len(got))
	}
	if got[0].Action.Kind != models.ActionReply {
		t.Errorf("first scheduled action = %s, want reply (highest priority)", got[0].Action.Kind)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Priority > got[i-1].Priority {
			t.Errorf("priorities out of order at %d: %d after %d", i, got[i].Priority, got[i-1].Priority)
		}
	}
}

func TestOrganicCreationByRole(t *testing.T) {
	cfg := config.Default().Coordinator
	c := testCoordinator(cfg, stubRand{f: 0})

	roster := []*models.Agent{
		activeAgent("creator", 10, models.RoleContentCreator, "golang"),
		activeAgent("lurker", 11, models.RoleLurker, "golang"),
	}
	got := c.Coordinate(roster, nil, time.Now())

	byAgent := map[string]bool{}
	for _, s := range got {
		if s.Action.Kind == models.ActionCreatePost {
			byAgent[s.AgentID] = true
		}
	}
	if !byAgent["creator"] {
		t.Error("content creator never given an organic post slot")
	}
	if byAgent["lurker"] {
		t.Error("lurker handed an organic post slot")
	}
}

func TestInterestScoreSignals(t *testing.T) {
	ev := models.Event{
		Kind: models.EventNewContent, Community: "databases",
		Title: "Tuning postgres indexes", Body: "query planner details",
	}

	expert := activeAgent("e", 1, models.RoleExpert, "databases")
	expert.Personality.ExpertiseTopics = []string{"postgres"}
	neutral := activeAgent("n", 2, models.RoleSupporter)
	averse := activeAgent("v", 3, models.RoleSupporter)
	averse.Personality.AvoidedCommunities = []string{"databases"}
	averse.Personality.AvoidanceTopics = []string{"postgres tuning"}

	if s := InterestScore(expert, ev); s < 7 {
		t.Errorf("expert in preferred community scored %d, want >= 7", s)
	}
	if s := InterestScore(neutral, ev); s != 0 {
		t.Errorf("uninvolved agent scored %d, want 0", s)
	}
	if s := InterestScore(averse, ev); s >= 0 {
		t.Errorf("averse agent scored %d, want negative", s)
	}
}
