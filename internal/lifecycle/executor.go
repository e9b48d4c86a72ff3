package lifecycle

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"botfarm/internal/generation"
	"botfarm/internal/memory"
	"botfarm/internal/models"

	"github.com/google/uuid"
)

const (
	executorWorkers = 8
	replyChainDepth = 6
)

// execute runs scheduled actions concurrently under a bounded semaphore.
// Each action first sleeps its human-pacing delay (capped at the cycle
// interval so a slow reader cannot push work into the next cycle), then
// performs the platform call. Failures are logged, counted, and dropped.
func (m *Manager) execute(ctx context.Context, scheduled []models.ScheduledAction) {
	sem := make(chan struct{}, executorWorkers)
	var wg sync.WaitGroup

	for _, s := range scheduled {
		agent := m.agentByID(s.AgentID)
		if agent == nil || agent.Status != models.StatusActive {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(s models.ScheduledAction, agent *models.Agent) {
			defer wg.Done()
			defer func() { <-sem }()

			delay := s.Delay
			if ceiling := m.cfg.Engine.CycleInterval.Std(); delay > ceiling {
				delay = ceiling
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}

			err := m.executeAction(ctx, agent, s)
			m.metrics.RecordExecuted(string(s.Action.Kind), err)
			if err != nil {
				log.Printf("Action %s by %s failed: %v", s.Action.Kind, agent.Name, err)
				return
			}

			m.mu.Lock()
			agent.LastActive = time.Now().UTC()
			m.mu.Unlock()
			m.recordDecision(string(s.Action.Kind), agent.ID, s.Reason)
		}(s, agent)
	}
	wg.Wait()
}

func (m *Manager) executeAction(ctx context.Context, agent *models.Agent, s models.ScheduledAction) error {
	a := s.Action
	switch a.Kind {
	case models.ActionComment:
		return m.executeComment(ctx, agent, a)
	case models.ActionReply:
		return m.executeReply(ctx, agent, a)
	case models.ActionVotePost:
		if err := m.platform.VotePost(ctx, agent.UserID, a.TargetID, a.Direction); err != nil {
			return fmt.Errorf("failed to vote on post %d: %w", a.TargetID, err)
		}
		m.learn(agent.ID, memory.Outcome{
			Kind:      a.Kind,
			ContentID: a.TargetID,
			Community: a.Community,
		})
		return nil
	case models.ActionVoteComment:
		if err := m.platform.VoteComment(ctx, agent.UserID, a.TargetID, a.Direction); err != nil {
			return fmt.Errorf("failed to vote on response %d: %w", a.TargetID, err)
		}
		m.learn(agent.ID, memory.Outcome{
			Kind:      a.Kind,
			ContentID: a.TargetID,
			Community: a.Community,
		})
		return nil
	case models.ActionCreatePost:
		return m.executeCreatePost(ctx, agent, a)
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
}

func (m *Manager) executeComment(ctx context.Context, agent *models.Agent, a models.IntendedAction) error {
	post, err := m.platform.GetPost(ctx, a.TargetID)
	if err != nil {
		return fmt.Errorf("failed to load post %d: %w", a.TargetID, err)
	}

	result, err := m.gen.GenerateComment(ctx, agent, post)
	if err != nil {
		return fmt.Errorf("comment generation failed: %w", err)
	}
	resp, err := m.platform.CreateComment(ctx, agent.UserID, post.ID, result.Text)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	if result.Fallback {
		m.metrics.RecordFallback()
	}

	m.learn(agent.ID, memory.Outcome{
		Kind:         a.Kind,
		ContentID:    resp.ID,
		Community:    post.Community,
		Topic:        post.Title,
		ResponseText: result.Text,
		QualityScore: result.Score,
	})
	return nil
}

func (m *Manager) executeReply(ctx context.Context, agent *models.Agent, a models.IntendedAction) error {
	post, err := m.platform.GetPost(ctx, a.PostID)
	if err != nil {
		return fmt.Errorf("failed to load post %d: %w", a.PostID, err)
	}
	responses, err := m.platform.PostResponses(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("failed to load responses on post %d: %w", post.ID, err)
	}

	byID := make(map[int]models.Response, len(responses))
	for _, r := range responses {
		byID[r.ID] = r
	}
	target, ok := byID[a.TargetID]
	if !ok {
		return fmt.Errorf("response %d vanished from post %d", a.TargetID, post.ID)
	}
	chain := generation.BuildReplyChain(target, func(id int) (models.Response, bool) {
		r, ok := byID[id]
		return r, ok
	}, replyChainDepth)

	result, err := m.gen.GenerateReply(ctx, agent, post, chain)
	if err != nil {
		return fmt.Errorf("reply generation failed: %w", err)
	}
	resp, err := m.platform.CreateReply(ctx, agent.UserID, a.TargetID, result.Text)
	if err != nil {
		return fmt.Errorf("failed to create reply: %w", err)
	}
	if result.Fallback {
		m.metrics.RecordFallback()
	}

	m.learn(agent.ID, memory.Outcome{
		Kind:         a.Kind,
		ContentID:    resp.ID,
		Community:    post.Community,
		Topic:        post.Title,
		ResponseText: result.Text,
		QualityScore: result.Score,
	})
	return nil
}

func (m *Manager) executeCreatePost(ctx context.Context, agent *models.Agent, a models.IntendedAction) error {
	result, err := m.gen.GeneratePost(ctx, agent, a.Community)
	if err != nil {
		return fmt.Errorf("post generation failed: %w", err)
	}
	post, err := m.platform.CreatePost(ctx, agent.UserID, a.Community, result.Title, result.Text)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	if result.Fallback {
		m.metrics.RecordFallback()
	}

	m.learn(agent.ID, memory.Outcome{
		Kind:         a.Kind,
		ContentID:    post.ID,
		Community:    a.Community,
		Topic:        result.Title,
		ResponseText: result.Text,
		QualityScore: result.Score,
	})
	return nil
}

// learn records the interaction outcome. A completed platform action
// stands even when the memory write fails; the agent just learns nothing
// from it.
func (m *Manager) learn(agentID string, out memory.Outcome) {
	if err := m.store.Learn(agentID, out); err != nil {
		log.Printf("Memory write failed for agent %s: %v", agentID, err)
	}
}

// recordDecision appends to the bounded in-memory log and notifies feed
// subscribers. Slow subscribers are skipped, never blocked on.
func (m *Manager) recordDecision(kind, agentID, reason string) {
	rec := models.DecisionRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		AgentID:   agentID,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}

	m.decisionMu.Lock()
	m.decisions = append(m.decisions, rec)
	if limit := m.cfg.Engine.DecisionLogCap; limit > 0 && len(m.decisions) > limit {
		m.decisions = append([]models.DecisionRecord(nil), m.decisions[len(m.decisions)-limit/2:]...)
	}
	for _, ch := range m.subs {
		select {
		case ch <- rec:
		default:
		}
	}
	m.decisionMu.Unlock()
}

// Decisions returns the most recent records, newest first.
func (m *Manager) Decisions(limit int) []models.DecisionRecord {
	m.decisionMu.Lock()
	defer m.decisionMu.Unlock()
	if limit <= 0 || limit > len(m.decisions) {
		limit = len(m.decisions)
	}
	out := make([]models.DecisionRecord, 0, limit)
	for i := len(m.decisions) - 1; i >= len(m.decisions)-limit; i-- {
		out = append(out, m.decisions[i])
	}
	return out
}

// SubscribeDecisions returns a channel of live decision records and an
// unsubscribe function.
func (m *Manager) SubscribeDecisions() (<-chan models.DecisionRecord, func()) {
	m.decisionMu.Lock()
	defer m.decisionMu.Unlock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan models.DecisionRecord, 64)
	m.subs[id] = ch
	return ch, func() {
		m.decisionMu.Lock()
		defer m.decisionMu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
}
