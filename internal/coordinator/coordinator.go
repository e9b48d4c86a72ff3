// Package coordinator admits, prioritizes, and schedules agent responses to
// platform events, keeping any one piece of content from being swarmed.
package coordinator

import (
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"botfarm/internal/config"
	"botfarm/internal/models"
	"botfarm/internal/rng"
	"botfarm/internal/timing"

	"github.com/google/uuid"
)

// Priorities by situation. Replies to an agent's own content outrank
// top-level responses, which outrank organic posting.
const (
	priorityReply   = 7
	priorityComment = 6
	priorityOrganic = 4
)

// Coordinator selects which agents engage with which events. Coordinate
// runs single-threaded; the interaction ledger is locked because executed
// actions are reported back from worker goroutines.
type Coordinator struct {
	cfg    config.CoordinatorConfig
	timing *timing.Model
	r      rng.Rand

	mu           sync.Mutex
	interactions map[int][]time.Time // contentID -> response times inside the window
}

// New returns a coordinator.
func New(cfg config.CoordinatorConfig, tm *timing.Model, r rng.Rand) *Coordinator {
	return &Coordinator{
		cfg:          cfg,
		timing:       tm,
		r:            r,
		interactions: make(map[int][]time.Time),
	}
}

// Coordinate maps this cycle's events to scheduled actions. For each event
// it scores every eligible agent's interest, keeps the top few, applies
// the selection chance, and then runs the execution damper so the roster
// never responds in lockstep. Returned actions are sorted by priority,
// highest first.
func (c *Coordinator) Coordinate(roster []*models.Agent, events []models.Event, now time.Time) []models.ScheduledAction {
	c.pruneLedger(now)

	var scheduled []models.ScheduledAction
	perAgent := make(map[string]int)

	for _, ev := range events {
		if c.responsesInWindow(ev.ContentID, now) >= c.cfg.MaxResponsesPerContent {
			continue
		}

		selected := c.selectAgents(roster, ev, perAgent)
		for _, agent := range selected {
			if c.r.Float64() >= c.cfg.ExecutionRate {
				continue
			}
			if !c.admit(ev.ContentID, now) {
				break
			}
			action := c.actionFor(agent, ev)
			delay := c.timing.ReadingDelay(len(ev.Body), agent.Personality.Pace, c.r)
			priority := priorityComment
			if ev.Kind == models.EventNewResponse {
				priority = priorityReply
				delay /= 2
			}
			scheduled = append(scheduled, models.ScheduledAction{
				ID:       uuid.NewString(),
				AgentID:  agent.ID,
				Action:   action,
				Priority: priority,
				Delay:    delay,
				Reason:   "event response",
			})
			perAgent[agent.ID]++
		}
	}

	scheduled = append(scheduled, c.organicCreations(roster, perAgent)...)

	sort.SliceStable(scheduled, func(i, j int) bool {
		return scheduled[i].Priority > scheduled[j].Priority
	})
	return scheduled
}

// selectAgents ranks agents by interest in the event and keeps the top few
// that clear the interest bar, each further subject to the selection
// chance.
func (c *Coordinator) selectAgents(roster []*models.Agent, ev models.Event, perAgent map[string]int) []*models.Agent {
	type scored struct {
		agent *models.Agent
		score int
	}
	var candidates []scored

	for _, agent := range roster {
		if agent.Status != models.StatusActive {
			continue
		}
		if agent.UserID == ev.AuthorID {
			continue
		}
		if perAgent[agent.ID] >= c.cfg.MaxActionsPerAgent {
			continue
		}
		score := InterestScore(agent, ev)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, scored{agent, score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	limit := c.cfg.MaxSelectedForContent
	if ev.Kind == models.EventNewResponse {
		limit = c.cfg.MaxSelectedForResponse
	}

	var out []*models.Agent
	for _, cand := range candidates {
		if len(out) >= limit {
			break
		}
		if c.r.Float64() < c.cfg.SelectionChance {
			out = append(out, cand.agent)
		}
	}
	return out
}

// InterestScore rates how much an event matters to an agent. Community
// affinity, topical expertise, curiosity, and role fit add; avoidance
// subtracts.
func InterestScore(agent *models.Agent, ev models.Event) int {
	p := &agent.Personality
	score := 0

	if contains(p.PreferredCommunities, ev.Community) {
		score += 3
	} else if contains(agent.AssignedCommunities, ev.Community) {
		score += 2
	}
	if contains(p.AvoidedCommunities, ev.Community) {
		score -= 2
	}

	text := strings.ToLower(ev.Title + " " + ev.Body)
	if topicMatch(p.ExpertiseTopics, ev.Community, text) {
		score += 2
	} else if keywordMatch(p.ExpertiseTopics, text) {
		score++
	}
	if keywordMatch(p.CuriosityTopics, text) {
		score++
	}
	if keywordMatch(p.AvoidanceTopics, text) {
		score -= 2
	}

	switch p.Role {
	case models.RoleFacilitator, models.RoleExpert:
		score += 2
	case models.RoleContrarian:
		// Contrarians seek out settled threads.
		if ev.Kind == models.EventNewResponse {
			score++
		}
	}
	return score
}

// topicMatch is a strong signal: the topic names the community or appears
// verbatim in the text.
func topicMatch(topics []string, community, text string) bool {
	for _, topic := range topics {
		lt := strings.ToLower(topic)
		if lt == strings.ToLower(community) || strings.Contains(text, lt) {
			return true
		}
	}
	return false
}

// keywordMatch is the weaker signal: any word of a topic phrase appears.
func keywordMatch(topics []string, text string) bool {
	for _, topic := range topics {
		for _, word := range strings.Fields(strings.ToLower(topic)) {
			if len(word) > 3 && strings.Contains(text, word) {
				return true
			}
		}
	}
	return false
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}

func (c *Coordinator) actionFor(agent *models.Agent, ev models.Event) models.IntendedAction {
	if ev.Kind == models.EventNewResponse {
		return models.IntendedAction{
			Kind:     models.ActionReply,
			TargetID: ev.ContentID,
			PostID:   ev.PostID,
		}
	}
	return models.IntendedAction{
		Kind:      models.ActionComment,
		TargetID:  ev.ContentID,
		PostID:    ev.ContentID,
		Community: ev.Community,
	}
}

// organicCreations gives content-creating roles a shot at posting fresh
// material independent of the event stream.
func (c *Coordinator) organicCreations(roster []*models.Agent, perAgent map[string]int) []models.ScheduledAction {
	var out []models.ScheduledAction
	for _, agent := range roster {
		if agent.Status != models.StatusActive {
			continue
		}
		if perAgent[agent.ID] >= c.cfg.MaxActionsPerAgent {
			continue
		}

		var chance float64
		switch agent.Personality.Role {
		case models.RoleContentCreator:
			chance = 0.3
		case models.RoleExpert:
			chance = 0.2
		case models.RoleFacilitator:
			chance = 0.1
		default:
			continue
		}
		if c.r.Float64() >= chance {
			continue
		}

		community := ""
		if n := len(agent.Personality.PreferredCommunities); n > 0 {
			community = agent.Personality.PreferredCommunities[c.r.IntN(n)]
		} else if n := len(agent.AssignedCommunities); n > 0 {
			community = agent.AssignedCommunities[c.r.IntN(n)]
		}
		if community == "" {
			continue
		}

		delay := time.Duration(5+c.r.IntN(26)) * time.Minute
		out = append(out, models.ScheduledAction{
			ID:      uuid.NewString(),
			AgentID: agent.ID,
			Action: models.IntendedAction{
				Kind:      models.ActionCreatePost,
				Community: community,
			},
			Priority: priorityOrganic,
			Delay:    delay,
			Reason:   "organic creation",
		})
		perAgent[agent.ID]++
	}
	return out
}

// RecordResponse charges a response scheduled outside the coordinator
// against the per-content cap for the rolling window.
func (c *Coordinator) RecordResponse(contentID int, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interactions[contentID] = append(c.interactions[contentID], at)
}

// admit charges one scheduled response against the content's window cap,
// reporting whether capacity remained. Admissions count at scheduling
// time, so adjacent cycles cannot oversubscribe a content id with actions
// that have not executed yet.
func (c *Coordinator) admit(contentID int, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := now.Add(-c.cfg.InteractionWindow.Std())
	var n int
	for _, at := range c.interactions[contentID] {
		if at.After(cutoff) {
			n++
		}
	}
	if n >= c.cfg.MaxResponsesPerContent {
		return false
	}
	c.interactions[contentID] = append(c.interactions[contentID], now)
	return true
}

func (c *Coordinator) responsesInWindow(contentID int, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := now.Add(-c.cfg.InteractionWindow.Std())
	var n int
	for _, at := range c.interactions[contentID] {
		if at.After(cutoff) {
			n++
		}
	}
	return n
}

// pruneLedger drops ledger entries older than a day so the map stays
// bounded.
func (c *Coordinator) pruneLedger(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := now.Add(-24 * time.Hour)
	for id, times := range c.interactions {
		kept := times[:0]
		for _, at := range times {
			if at.After(cutoff) {
				kept = append(kept, at)
			}
		}
		if len(kept) == 0 {
			delete(c.interactions, id)
			continue
		}
		c.interactions[id] = kept
	}
	if len(c.interactions) > 10000 {
		log.Printf("Coordinator ledger unusually large: %d entries", len(c.interactions))
	}
}
