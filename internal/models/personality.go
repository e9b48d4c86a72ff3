package models

// ActivityLevel controls how often an agent clears the activity gate.
type ActivityLevel string

const (
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
)

// Pace controls reading and typing speed.
type Pace string

const (
	PaceQuick      Pace = "quick"
	PaceNormal     Pace = "normal"
	PaceThoughtful Pace = "thoughtful"
	PaceSlow       Pace = "slow"
)

// Personality defines an agent's behavioral profile: what it tends to do,
// where it hangs out, and how it writes.
type Personality struct {
	Kind          string                 `json:"kind"`
	Role          AgentRole              `json:"role"`
	ActionWeights map[ActionKind]float64 `json:"action_weights"`
	ActivityLevel ActivityLevel          `json:"activity_level"`
	Pace          Pace                   `json:"pace"`

	UpvoteTendency   float64 `json:"upvote_tendency"`
	DownvoteTendency float64 `json:"downvote_tendency"`

	PreferredCommunities []string `json:"preferred_communities"`
	AvoidedCommunities   []string `json:"avoided_communities"`
	ExpertiseTopics      []string `json:"expertise_topics"`
	CuriosityTopics      []string `json:"curiosity_topics"`
	AvoidanceTopics      []string `json:"avoidance_topics"`

	// Prompt-facing style fields.
	Description        string   `json:"description"`
	Tone               string   `json:"tone"`
	CommunicationStyle string   `json:"communication_style"`
	BehaviorPatterns   []string `json:"behavior_patterns"`
	DisagreementStyle  string   `json:"disagreement_style"`
	Guidelines         []string `json:"guidelines"`
}

// NormalizeWeights scales all action weights down proportionally when their
// sum exceeds ceiling. Relative proportions are preserved; weights are never
// clipped individually. A non-positive sum leaves the map untouched.
func (p *Personality) NormalizeWeights(ceiling float64) {
	var sum float64
	for _, w := range p.ActionWeights {
		sum += w
	}
	if sum <= ceiling || sum <= 0 {
		return
	}
	scale := ceiling / sum
	for k, w := range p.ActionWeights {
		p.ActionWeights[k] = w * scale
	}
}

// Weight returns the personality's base weight for an action kind, zero if
// unset.
func (p *Personality) Weight(kind ActionKind) float64 {
	if p.ActionWeights == nil {
		return 0
	}
	return p.ActionWeights[kind]
}
