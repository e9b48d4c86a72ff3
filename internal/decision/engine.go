// Package decision turns one agent's personality and a platform snapshot
// into at most one intended action. Decisions are pure: no I/O, no side
// effects, randomness injected.
package decision

import (
	"log"

	"botfarm/internal/config"
	"botfarm/internal/models"
	"botfarm/internal/rng"
)

// Engine runs the weighted action lottery.
type Engine struct {
	cfg config.DecisionConfig
	r   rng.Rand
}

// New returns a decision engine.
func New(cfg config.DecisionConfig, r rng.Rand) *Engine {
	return &Engine{cfg: cfg, r: r}
}

// candidate is one weighted entry in the lottery multiset.
type candidate struct {
	action models.IntendedAction
	weight float64
}

// Decide picks the agent's next action, or nil when nothing on the platform
// warrants one. Unanswered replies to the agent's own content dominate the
// draw; everything else competes at personality weight times a situational
// multiplier. Hard gates run before weighting: an agent never answers its
// own content, never responds twice at top level on the same item, never
// replies again to a response it already answered, and never acts on
// targets that do not exist in the snapshot.
func (e *Engine) Decide(agent *models.Agent, state *models.PlatformState) *models.IntendedAction {
	cands := e.collect(agent, state)
	if len(cands) == 0 {
		if state.FocalPost != nil {
			log.Printf("Decision for %s produced an empty candidate set", agent.Name)
		}
		return nil
	}

	var total float64
	for _, c := range cands {
		total += c.weight
	}
	if total <= 0 {
		return nil
	}

	draw := e.r.Float64() * total
	for _, c := range cands {
		draw -= c.weight
		if draw < 0 {
			picked := c.action
			if picked.Kind == models.ActionVotePost || picked.Kind == models.ActionVoteComment {
				picked.Direction = e.voteDirection(&agent.Personality)
			}
			return &picked
		}
	}
	// Unreachable when weights are finite; keep the draw honest anyway.
	picked := cands[len(cands)-1].action
	return &picked
}

func (e *Engine) collect(agent *models.Agent, state *models.PlatformState) []candidate {
	var cands []candidate
	p := &agent.Personality

	// Pending replies come first and dwarf everything else. Backlog is
	// restricted to the focal item; replies elsewhere wait their turn.
	for _, pending := range state.PendingReplies {
		if pending.AuthorID == agent.UserID {
			continue
		}
		cands = append(cands, candidate{
			action: models.IntendedAction{
				Kind:     models.ActionReply,
				TargetID: pending.ID,
				PostID:   pending.PostID,
			},
			weight: p.Weight(models.ActionReply) * e.cfg.PendingReplyBoost,
		})
	}

	focal := state.FocalPost
	if focal != nil && focal.AuthorID != agent.UserID {
		community := focal.Community

		// First top-level response on the item. Blocked outright once the
		// agent has responded; boosted harder when nobody has.
		if !state.HasResponded {
			boost := e.cfg.FirstCommentBoost
			if len(othersResponses(state.Responses, agent.UserID)) == 0 {
				boost = e.cfg.SoloFirstCommentBoost
			}
			cands = append(cands, candidate{
				action: models.IntendedAction{
					Kind:      models.ActionComment,
					TargetID:  focal.ID,
					PostID:    focal.ID,
					Community: community,
				},
				weight: p.Weight(models.ActionComment) * boost,
			})
		}

		cands = append(cands, candidate{
			action: models.IntendedAction{
				Kind:     models.ActionVotePost,
				TargetID: focal.ID,
				PostID:   focal.ID,
			},
			weight: p.Weight(models.ActionVotePost) * e.cfg.PostVoteBoost,
		})

		// Engagement with other people's responses. Once the agent has
		// commented it leans into the thread it joined.
		voteBoost := e.cfg.CommentVoteBoost
		replyBoost := e.cfg.ReplyBoost
		if state.HasResponded {
			voteBoost = e.cfg.EngagedCommentVote
			replyBoost = e.cfg.EngagedReplyBoost
		}
		for _, resp := range othersResponses(state.Responses, agent.UserID) {
			cands = append(cands, candidate{
				action: models.IntendedAction{
					Kind:     models.ActionVoteComment,
					TargetID: resp.ID,
					PostID:   focal.ID,
				},
				weight: p.Weight(models.ActionVoteComment) * voteBoost,
			})
			// One reply per response; answered threads wait for the other
			// side to come back.
			if state.RepliedTo[resp.ID] {
				continue
			}
			cands = append(cands, candidate{
				action: models.IntendedAction{
					Kind:     models.ActionReply,
					TargetID: resp.ID,
					PostID:   focal.ID,
				},
				weight: p.Weight(models.ActionReply) * replyBoost,
			})
		}
	}

	// Fresh content. Suppressed while a focal item is in front of the
	// agent, strong when the feed is empty.
	createBoost := e.cfg.CreateWithoutFocal
	if focal != nil {
		createBoost = e.cfg.CreateWithFocalBoost
	}
	if community := e.pickCommunity(agent); community != "" {
		cands = append(cands, candidate{
			action: models.IntendedAction{
				Kind:      models.ActionCreatePost,
				Community: community,
			},
			weight: p.Weight(models.ActionCreatePost) * createBoost,
		})
	}

	// Zero-weight entries can never win; drop them so an all-zero
	// personality yields an empty set rather than a degenerate draw.
	filtered := cands[:0]
	for _, c := range cands {
		if c.weight > 0 {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// othersResponses filters out the agent's own top-level responses.
func othersResponses(responses []models.Response, userID int) []models.Response {
	var out []models.Response
	for _, r := range responses {
		if r.AuthorID != userID {
			out = append(out, r)
		}
	}
	return out
}

// pickCommunity chooses where a new post would go: a random preferred
// community, falling back to an assigned one.
func (e *Engine) pickCommunity(agent *models.Agent) string {
	if n := len(agent.Personality.PreferredCommunities); n > 0 {
		return agent.Personality.PreferredCommunities[e.r.IntN(n)]
	}
	if n := len(agent.AssignedCommunities); n > 0 {
		return agent.AssignedCommunities[e.r.IntN(n)]
	}
	return ""
}

// voteDirection draws up or down from the personality's normalized
// tendencies, falling back to a coin flip when both are zero.
func (e *Engine) voteDirection(p *models.Personality) models.VoteDirection {
	up, down := p.UpvoteTendency, p.DownvoteTendency
	total := up + down
	if total <= 0 {
		if e.r.Float64() < 0.5 {
			return models.VoteUp
		}
		return models.VoteDown
	}
	if e.r.Float64() < up/total {
		return models.VoteUp
	}
	return models.VoteDown
}
