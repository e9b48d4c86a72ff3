// Package lifecycle is the engine's orchestrator: it observes the
// platform, fans agent decisions out, executes scheduled actions, scores
// agents, and grows or shrinks the roster.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"botfarm/internal/config"
	"botfarm/internal/coordinator"
	"botfarm/internal/decision"
	"botfarm/internal/factory"
	"botfarm/internal/generation"
	"botfarm/internal/memory"
	"botfarm/internal/models"
	"botfarm/internal/monitoring"
	"botfarm/internal/rng"
	"botfarm/internal/timing"

	"github.com/google/uuid"
)

// PlatformAPI is everything the manager needs from the platform client.
type PlatformAPI interface {
	PlatformReader
	GetPost(ctx context.Context, postID int) (*models.Post, error)
	PendingReplies(ctx context.Context, userID int) ([]models.Response, error)
	UserResponsesOnPost(ctx context.Context, userID, postID int) ([]models.Response, error)
	CreatePost(ctx context.Context, userID int, community, title, body string) (*models.Post, error)
	CreateComment(ctx context.Context, userID, postID int, body string) (*models.Response, error)
	CreateReply(ctx context.Context, userID, responseID int, body string) (*models.Response, error)
	VotePost(ctx context.Context, userID, postID int, direction models.VoteDirection) error
	VoteComment(ctx context.Context, userID, responseID int, direction models.VoteDirection) error
	DeactivateUser(ctx context.Context, userID int) error
}

// Generator is the slice of the generation engine the manager needs.
type Generator interface {
	GenerateComment(ctx context.Context, agent *models.Agent, post *models.Post) (*generation.Result, error)
	GenerateReply(ctx context.Context, agent *models.Agent, post *models.Post, chain []models.Response) (*generation.Result, error)
	GeneratePost(ctx context.Context, agent *models.Agent, community string) (*generation.Result, error)
}

// Manager runs the control loop.
type Manager struct {
	cfg       *config.Config
	platform  PlatformAPI
	store     *memory.Store
	decider   *decision.Engine
	coord     *coordinator.Coordinator
	tm        *timing.Model
	gen       Generator
	factory   *factory.Factory
	analyzer  *Analyzer
	evaluator *Evaluator
	metrics   *monitoring.Collector
	r         rng.Rand

	mu     sync.RWMutex
	roster map[string]*models.Agent

	decisionMu sync.Mutex
	decisions  []models.DecisionRecord
	subs       map[int]chan models.DecisionRecord
	nextSub    int

	day              string
	creationsToday   int
	retirementsToday int
	health           models.EcosystemHealth
	lastCycle        time.Time
	lastCleanup      time.Time
}

// NewManager wires the control loop together.
func NewManager(cfg *config.Config, platform PlatformAPI, store *memory.Store, gen Generator, fac *factory.Factory, metrics *monitoring.Collector, r rng.Rand) *Manager {
	tm := timing.New(cfg.Timing)
	return &Manager{
		cfg:       cfg,
		platform:  platform,
		store:     store,
		decider:   decision.New(cfg.Decision, r),
		coord:     coordinator.New(cfg.Coordinator, tm, r),
		tm:        tm,
		gen:       gen,
		factory:   fac,
		analyzer:  NewAnalyzer(platform),
		evaluator: NewEvaluator(store, cfg.Engine),
		metrics:   metrics,
		r:         r,
		roster:    make(map[string]*models.Agent),
		subs:      make(map[int]chan models.DecisionRecord),
		day:       time.Now().UTC().Format("2006-01-02"),
		lastCycle: time.Now().UTC(),
	}
}

// Run executes cycles until the context is canceled, then performs the
// cooperative shutdown: every non-retired agent is marked inactive so a
// later start resumes cleanly. Cycles never overlap.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Engine.CycleInterval.Std())
	defer ticker.Stop()

	log.Printf("Lifecycle manager running, cycle interval %s", m.cfg.Engine.CycleInterval.Std())
	for {
		if err := m.RunCycle(ctx); err != nil {
			log.Printf("Cycle failed: %v", err)
		}
		select {
		case <-ctx.Done():
			m.shutdown()
			return
		case <-ticker.C:
		}
	}
}

// RunCycle executes one full pass: observe, coordinate, decide, act,
// evaluate, create, recompute health.
func (m *Manager) RunCycle(ctx context.Context) error {
	started := time.Now()
	now := started.UTC()
	m.rollDay(now)
	m.activateCreating()

	events, err := m.gatherEvents(ctx)
	if err != nil {
		log.Printf("Event gathering degraded: %v", err)
	}

	roster := m.activeAgents()
	scheduled := m.coord.Coordinate(roster, events, now)
	for _, s := range scheduled {
		m.metrics.RecordScheduled(string(s.Action.Kind))
	}

	scheduled = append(scheduled, m.decideAll(ctx, roster, now)...)
	sort.SliceStable(scheduled, func(i, j int) bool {
		return scheduled[i].Priority > scheduled[j].Priority
	})

	m.execute(ctx, scheduled)

	if err := m.evaluateRoster(ctx); err != nil {
		log.Printf("Evaluation degraded: %v", err)
	}
	if err := m.createAgents(ctx); err != nil {
		log.Printf("Creation degraded: %v", err)
	}

	m.recomputeHealth(now)
	m.maybeCleanup(now)

	m.lastCycle = now
	m.metrics.RecordCycle(time.Since(started).Seconds())
	return ctx.Err()
}

// rollDay resets the daily creation and retirement counters at the
// calendar-day boundary.
func (m *Manager) rollDay(now time.Time) {
	day := now.Format("2006-01-02")
	m.mu.Lock()
	defer m.mu.Unlock()
	if day != m.day {
		log.Printf("New day %s: %d creations, %d retirements yesterday",
			day, m.creationsToday, m.retirementsToday)
		m.day = day
		m.creationsToday = 0
		m.retirementsToday = 0
	}
}

// activateCreating promotes freshly built agents into circulation.
func (m *Manager) activateCreating() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, agent := range m.roster {
		if agent.Status == models.StatusCreating {
			agent.Status = models.StatusActive
		}
	}
}

// gatherEvents pulls content newer than the previous cycle into the
// coordinator's event stream.
func (m *Manager) gatherEvents(ctx context.Context) ([]models.Event, error) {
	posts, err := m.platform.RecentPosts(ctx, "", 20)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent posts: %w", err)
	}

	ownUsers := m.ownUserIDs()
	var events []models.Event
	for i, p := range posts {
		if p.CreatedAt.After(m.lastCycle) {
			events = append(events, models.Event{
				Kind:      models.EventNewContent,
				ContentID: p.ID,
				Community: p.Community,
				AuthorID:  p.AuthorID,
				Title:     p.Title,
				Body:      p.Body,
				CreatedAt: p.CreatedAt,
			})
		}
		if i >= 5 {
			continue // responses only for the newest few posts
		}
		responses, rerr := m.platform.PostResponses(ctx, p.ID)
		if rerr != nil {
			continue
		}
		for _, r := range responses {
			// Agent-authored responses are handled by the reply backlog,
			// not re-broadcast as events.
			if !r.CreatedAt.After(m.lastCycle) || ownUsers[r.AuthorID] {
				continue
			}
			events = append(events, models.Event{
				Kind:      models.EventNewResponse,
				ContentID: r.ID,
				PostID:    p.ID,
				Community: p.Community,
				AuthorID:  r.AuthorID,
				Body:      r.Body,
				CreatedAt: r.CreatedAt,
			})
		}
	}
	return events, nil
}

// decideAll fans per-agent decisions across a bounded worker pool. Each
// agent first clears the activity gate, then gets an independent platform
// snapshot and one decision. Failures are logged and skipped.
func (m *Manager) decideAll(ctx context.Context, roster []*models.Agent, now time.Time) []models.ScheduledAction {
	sem := make(chan struct{}, m.cfg.Engine.DecisionWorkers)
	var wg sync.WaitGroup
	var outMu sync.Mutex
	var out []models.ScheduledAction

	for _, agent := range roster {
		if !m.tm.ActivityGate(agent.Status, agent.Personality.ActivityLevel, agent.LastActive, now, m.r) {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(agent *models.Agent) {
			defer wg.Done()
			defer func() { <-sem }()

			state, err := m.snapshotFor(ctx, agent)
			if err != nil {
				log.Printf("Snapshot failed for %s: %v", agent.Name, err)
				return
			}
			intended := m.decider.Decide(agent, state)
			if intended == nil {
				return
			}
			action := models.ScheduledAction{
				ID:       uuid.NewString(),
				AgentID:  agent.ID,
				Action:   *intended,
				Priority: priorityFor(intended.Kind),
				Delay:    m.tm.ReadingDelay(snapshotLength(state), agent.Personality.Pace, m.r),
				Reason:   "autonomous decision",
			}
			// Autonomous responses count against the per-content cap the
			// moment they are scheduled, same as coordinated ones.
			if intended.Kind == models.ActionComment || intended.Kind == models.ActionReply {
				m.coord.RecordResponse(intended.PostID, now)
			}
			m.metrics.RecordScheduled(string(intended.Kind))

			outMu.Lock()
			out = append(out, action)
			outMu.Unlock()
		}(agent)
	}
	wg.Wait()
	return out
}

func priorityFor(kind models.ActionKind) int {
	switch kind {
	case models.ActionReply:
		return 7
	case models.ActionComment:
		return 6
	case models.ActionVotePost, models.ActionVoteComment:
		return 5
	default:
		return 4
	}
}

// snapshotFor assembles the read-only platform state one agent decides
// from: its focal post, the responses there, its reply backlog, and what
// it has already answered.
func (m *Manager) snapshotFor(ctx context.Context, agent *models.Agent) (*models.PlatformState, error) {
	state := &models.PlatformState{}

	community := ""
	if n := len(agent.Personality.PreferredCommunities); n > 0 {
		community = agent.Personality.PreferredCommunities[m.r.IntN(n)]
	} else if n := len(agent.AssignedCommunities); n > 0 {
		community = agent.AssignedCommunities[m.r.IntN(n)]
	}

	posts, err := m.platform.RecentPosts(ctx, community, 5)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return state, nil
	}
	focal := posts[m.r.IntN(len(posts))]
	state.FocalPost = &focal

	responses, err := m.platform.PostResponses(ctx, focal.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range responses {
		if r.ParentID == 0 {
			state.Responses = append(state.Responses, r)
		}
	}

	own, err := m.platform.UserResponsesOnPost(ctx, agent.UserID, focal.ID)
	if err == nil {
		for _, r := range own {
			if r.ParentID == 0 {
				state.HasResponded = true
				continue
			}
			if state.RepliedTo == nil {
				state.RepliedTo = make(map[int]bool)
			}
			state.RepliedTo[r.ParentID] = true
		}
	}

	pending, err := m.platform.PendingReplies(ctx, agent.UserID)
	if err == nil {
		for _, r := range pending {
			if r.PostID == focal.ID {
				state.PendingReplies = append(state.PendingReplies, r)
			}
		}
	}
	return state, nil
}

func snapshotLength(state *models.PlatformState) int {
	if state.FocalPost == nil {
		return 0
	}
	n := len(state.FocalPost.Body)
	for _, r := range state.Responses {
		n += len(r.Body)
	}
	return n
}

// evaluateRoster scores active agents and applies lifecycle transitions:
// retirement below the retirement threshold, one optimization pass below
// the optimization threshold. Retired is terminal.
func (m *Manager) evaluateRoster(ctx context.Context) error {
	for _, agent := range m.activeAgents() {
		// Young agents have not had a fair window yet.
		if time.Since(agent.CreatedAt) < 24*time.Hour {
			continue
		}
		perf, err := m.evaluator.Evaluate(agent)
		if err != nil {
			log.Printf("Could not evaluate %s: %v", agent.Name, err)
			continue
		}

		switch {
		case perf.OverallScore < m.cfg.Engine.RetirementThreshold:
			m.retire(ctx, agent, perf)
		case perf.OverallScore < m.cfg.Engine.OptimizationThreshold:
			m.optimize(agent, perf)
		}
	}
	return nil
}

// retire walks an agent through Retiring to the terminal Retired state,
// deactivating its platform account. Content stays up.
func (m *Manager) retire(ctx context.Context, agent *models.Agent, perf *models.PerformanceMetrics) {
	m.mu.Lock()
	if agent.Status.Terminal() {
		m.mu.Unlock()
		return
	}
	agent.Status = models.StatusRetiring
	m.mu.Unlock()

	if err := m.platform.DeactivateUser(ctx, agent.UserID); err != nil {
		// Retry next cycle; the agent stays in Retiring and does nothing.
		log.Printf("Deactivation failed for %s, will retry: %v", agent.Name, err)
		return
	}

	m.mu.Lock()
	agent.Status = models.StatusRetired
	m.retirementsToday++
	m.mu.Unlock()
	m.recordDecision("retire", agent.ID,
		fmt.Sprintf("score %.2f below retirement threshold", perf.OverallScore))
}

// optimize nudges an underperforming agent's personality and returns it
// to active duty: action kinds that score negatively get their lottery
// weight reduced.
func (m *Manager) optimize(agent *models.Agent, perf *models.PerformanceMetrics) {
	m.mu.Lock()
	agent.Status = models.StatusOptimizing
	if perf.AveragePostScore < 0 {
		agent.Personality.ActionWeights[models.ActionCreatePost] *= 0.5
	}
	if perf.AverageCommentScore < 0 {
		agent.Personality.ActionWeights[models.ActionComment] *= 0.7
		agent.Personality.ActionWeights[models.ActionReply] *= 0.7
	}
	if perf.ResponseQualityAvg > 0 && perf.ResponseQualityAvg < 0.5 {
		agent.Personality.Pace = models.PaceThoughtful
	}
	agent.Status = models.StatusActive
	m.mu.Unlock()
	m.recordDecision("optimize", agent.ID,
		fmt.Sprintf("score %.2f, adjusted behavior weights", perf.OverallScore))
}

// createAgents turns top analyzer recommendations into new roster members,
// bounded by the population cap, per-cycle cap, daily cap, and minimum
// priority.
func (m *Manager) createAgents(ctx context.Context) error {
	m.mu.RLock()
	population := 0
	for _, a := range m.roster {
		if !a.Status.Terminal() {
			population++
		}
	}
	creationsToday := m.creationsToday
	m.mu.RUnlock()

	budget := m.cfg.Engine.CreationsPerCycle
	if remaining := m.cfg.Engine.DailyCreationCap - creationsToday; remaining < budget {
		budget = remaining
	}
	if remaining := m.cfg.Engine.MaxManagedAgents - population; remaining < budget {
		budget = remaining
	}
	if budget <= 0 {
		return nil
	}

	analysis, err := m.analyzer.Analyze(ctx, m.rosterSlice())
	if err != nil {
		return fmt.Errorf("platform analysis failed: %w", err)
	}
	recs := analysis.Recommendations

	// A roster under the floor gets a population-balance recommendation
	// even when the analyzer found nothing urgent.
	if population < m.cfg.Engine.MinManagedAgents {
		recs = append(recs, models.CreationRecommendation{
			Reason:          "population below minimum",
			Priority:        m.cfg.Engine.MinCreationPriority,
			Role:            models.RoleSupporter,
			PersonalityKind: "casual_contributor",
		})
	}

	for _, rec := range recs {
		if budget == 0 {
			break
		}
		if rec.Priority < m.cfg.Engine.MinCreationPriority {
			continue
		}
		agent, err := m.factory.CreateAgent(ctx, factory.FromRecommendation(rec), m.takenNames())
		if err != nil {
			log.Printf("Creation failed (%s): %v", rec.Reason, err)
			continue
		}
		m.AddAgent(agent)
		budget--
		m.mu.Lock()
		m.creationsToday++
		m.mu.Unlock()
		m.recordDecision("create", agent.ID, rec.Reason)
	}
	return nil
}

// recomputeHealth refreshes the ecosystem summary.
func (m *Manager) recomputeHealth(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var active, total int
	communities := map[string]struct{}{}
	for _, a := range m.roster {
		total++
		if a.Status == models.StatusActive {
			active++
		}
		if !a.Status.Terminal() {
			for _, c := range a.AssignedCommunities {
				communities[c] = struct{}{}
			}
		}
	}

	score := 0.5
	if active >= m.cfg.Engine.MinManagedAgents && active <= m.cfg.Engine.MaxManagedAgents {
		score += 0.2
	}
	if len(communities) > 5 {
		score += 0.1
	}
	if m.creationsToday >= m.retirementsToday {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}

	m.health = models.EcosystemHealth{
		TotalAgents:        total,
		ActiveAgents:       active,
		CreationsToday:     m.creationsToday,
		RetirementsToday:   m.retirementsToday,
		CommunitiesCovered: len(communities),
		OverallHealthScore: score,
		UpdatedAt:          now,
	}
	m.metrics.SetRoster(total, active)
	m.metrics.SetHealth(score)
}

// maybeCleanup prunes memory once a day.
func (m *Manager) maybeCleanup(now time.Time) {
	if now.Sub(m.lastCleanup) < 24*time.Hour {
		return
	}
	if err := m.store.Cleanup(now); err != nil {
		log.Printf("Memory cleanup failed: %v", err)
		return
	}
	m.lastCleanup = now
}

// shutdown marks every non-retired agent inactive. Retired stays retired.
func (m *Manager) shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, agent := range m.roster {
		if !agent.Status.Terminal() {
			agent.Status = models.StatusInactive
		}
	}
	log.Println("Lifecycle manager stopped, roster parked")
}

// AddAgent inserts an agent into the roster.
func (m *Manager) AddAgent(agent *models.Agent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roster[agent.ID] = agent
}

// Roster returns a copy of all managed agents.
func (m *Manager) Roster() []*models.Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Agent, 0, len(m.roster))
	for _, a := range m.roster {
		cp := *a
		out = append(out, &cp)
	}
	return out
}

func (m *Manager) rosterSlice() []*models.Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Agent, 0, len(m.roster))
	for _, a := range m.roster {
		out = append(out, a)
	}
	return out
}

func (m *Manager) activeAgents() []*models.Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Agent
	for _, a := range m.roster {
		if a.Status == models.StatusActive {
			out = append(out, a)
		}
	}
	return out
}

func (m *Manager) agentByID(id string) *models.Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roster[id]
}

func (m *Manager) takenNames() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make(map[string]bool, len(m.roster))
	for _, a := range m.roster {
		names[a.Name] = true
	}
	return names
}

func (m *Manager) ownUserIDs() map[int]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make(map[int]bool, len(m.roster))
	for _, a := range m.roster {
		ids[a.UserID] = true
	}
	return ids
}

// Health returns the latest ecosystem summary.
func (m *Manager) Health() models.EcosystemHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.health
}

// CreateAgentManually builds an agent from an operator-supplied spec,
// outside the analyzer path but inside the daily cap.
func (m *Manager) CreateAgentManually(ctx context.Context, spec factory.CreationSpec) (*models.Agent, error) {
	m.mu.RLock()
	overCap := m.creationsToday >= m.cfg.Engine.DailyCreationCap
	m.mu.RUnlock()
	if overCap {
		return nil, fmt.Errorf("daily creation cap reached")
	}

	agent, err := m.factory.CreateAgent(ctx, spec, m.takenNames())
	if err != nil {
		return nil, err
	}
	m.AddAgent(agent)
	m.mu.Lock()
	m.creationsToday++
	m.mu.Unlock()
	m.recordDecision("create", agent.ID, "operator request: "+spec.Reason)
	return agent, nil
}
