package generation

import (
	"fmt"
	"strings"

	"botfarm/internal/models"
)

// BuildSystemPrompt renders a personality into the system prompt that
// keeps an agent in character across every generation call.
func BuildSystemPrompt(agent *models.Agent) string {
	p := &agent.Personality
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a regular member of an online discussion platform.\n", agent.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, "Character: %s\n", p.Description)
	}
	if p.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", p.Tone)
	}
	if p.CommunicationStyle != "" {
		fmt.Fprintf(&b, "Style: %s\n", p.CommunicationStyle)
	}
	if len(p.ExpertiseTopics) > 0 {
		fmt.Fprintf(&b, "You know a lot about: %s\n", strings.Join(p.ExpertiseTopics, ", "))
	}
	if p.DisagreementStyle != "" {
		fmt.Fprintf(&b, "When you disagree: %s\n", p.DisagreementStyle)
	}
	if len(p.BehaviorPatterns) > 0 {
		b.WriteString("Habits:\n")
		for _, pat := range p.BehaviorPatterns {
			fmt.Fprintf(&b, "- %s\n", pat)
		}
	}
	for _, g := range p.Guidelines {
		fmt.Fprintf(&b, "Rule: %s\n", g)
	}
	b.WriteString("Write like a person, never mention being automated, and stay in character.")
	return b.String()
}

// memoryContext folds the most relevant recalled memories into prompt
// lines. Empty when the agent has nothing relevant to remember.
func memoryContext(memories []models.MemoryEntry, max int) string {
	if len(memories) == 0 {
		return ""
	}
	if len(memories) > max {
		memories = memories[:max]
	}
	var b strings.Builder
	b.WriteString("Things you have learned here before:\n")
	for _, m := range memories {
		fmt.Fprintf(&b, "- %s\n", m.Summary)
	}
	return b.String()
}

// ThreadContext renders a reply chain oldest-first for the prompt. The
// chain is whatever the bounded parent walk produced.
func ThreadContext(post *models.Post, chain []models.Response) string {
	var b strings.Builder
	if post != nil {
		fmt.Fprintf(&b, "Original post (%s): %s\n%s\n", post.Community, post.Title, post.Body)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "> %s\n", chain[i].Body)
	}
	return b.String()
}

// BuildReplyChain walks parent links from the target upward, newest first,
// stopping at the depth guard or a missing parent. A cyclic or corrupt
// chain therefore terminates instead of hanging.
func BuildReplyChain(target models.Response, lookup func(id int) (models.Response, bool), maxDepth int) []models.Response {
	chain := []models.Response{target}
	cur := target
	for depth := 1; depth < maxDepth; depth++ {
		if cur.ParentID == 0 {
			break
		}
		parent, ok := lookup(cur.ParentID)
		if !ok {
			break
		}
		chain = append(chain, parent)
		cur = parent
	}
	return chain
}
