// Package quality scores generated text and detects self-repetition before
// anything reaches the platform.
package quality

import (
	"strings"

	"botfarm/internal/config"
)

// Context is what the scorer knows about the situation a response answers.
type Context struct {
	Topic     string
	Community string
	Keywords  []string
}

// Scorer assigns a heuristic quality score in [0,1] to generated text.
type Scorer struct {
	cfg config.QualityConfig
}

// NewScorer returns a scorer with the given tuning.
func NewScorer(cfg config.QualityConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// weak openings that signal a low-effort response.
var weakOpenings = []string{"ok", "okay", "yes", "no", "maybe"}

// disallowed substrings that zero out a response regardless of its other
// qualities.
var disallowed = []string{
	"as an ai", "as a language model", "i cannot", "i'm just a bot",
	"[insert", "lorem ipsum",
}

// Score rates a response. The score starts at 0.5 and moves by fixed
// deltas for length, substance, relevance, structure, internal repetition,
// and disallowed content; the result is clamped to [0,1].
func (s *Scorer) Score(response string, ctx Context) float64 {
	score := 0.5
	trimmed := strings.TrimSpace(response)
	wordCount := len(strings.Fields(trimmed))

	// Length band.
	switch {
	case wordCount >= 10 && wordCount <= 200:
		score += 0.1
	case wordCount < 5:
		score -= 0.2
	case wordCount > 300:
		score -= 0.1
	}

	if hasSubstance(trimmed) {
		score += 0.2
	}
	if s.relevant(trimmed, ctx) {
		score += 0.2
	}
	if wellStructured(trimmed) {
		score += 0.1
	}
	if repetitiveWithin(trimmed) {
		score -= 0.2
	}
	if containsDisallowed(trimmed) {
		score -= 0.5
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// MinAcceptable returns the score below which a response should be
// improved or discarded.
func (s *Scorer) MinAcceptable() float64 {
	return s.cfg.MinAcceptableScore
}

// hasSubstance checks for multiple sentences with reasonable average
// length and a non-throwaway opening.
func hasSubstance(text string) bool {
	sentences := splitSentences(text)
	if len(sentences) < 2 {
		return false
	}
	var total int
	for _, sent := range sentences {
		total += len(strings.Fields(sent))
	}
	if float64(total)/float64(len(sentences)) <= 5 {
		return false
	}
	first := strings.ToLower(strings.TrimLeft(text, " \t"))
	for _, w := range weakOpenings {
		if strings.HasPrefix(first, w+" ") || strings.HasPrefix(first, w+",") || strings.HasPrefix(first, w+".") {
			return false
		}
	}
	return true
}

// relevant checks whether the response touches the topic or any context
// keyword.
func (s *Scorer) relevant(text string, ctx Context) bool {
	lower := strings.ToLower(text)
	if ctx.Topic != "" && strings.Contains(lower, strings.ToLower(ctx.Topic)) {
		return true
	}
	for _, kw := range ctx.Keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// wellStructured wants sentence punctuation and a capitalized start.
func wellStructured(text string) bool {
	if text == "" {
		return false
	}
	if !strings.ContainsAny(text, ".!?") {
		return false
	}
	first := rune(text[0])
	return first >= 'A' && first <= 'Z'
}

// repetitiveWithin flags text whose unique-word ratio falls under 0.6 once
// it is long enough for the ratio to mean anything.
func repetitiveWithin(text string) bool {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) < 10 {
		return false
	}
	unique := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		unique[f] = struct{}{}
	}
	return float64(len(unique))/float64(len(fields)) < 0.6
}

func containsDisallowed(text string) bool {
	lower := strings.ToLower(text)
	for _, d := range disallowed {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// IsRepetitive reports whether candidate overlaps too heavily with any of
// the agent's recent outputs, along with the highest similarity seen.
// Similarity is Jaccard overlap of lowercased word sets.
func (s *Scorer) IsRepetitive(recent []string, candidate string) (bool, float64) {
	candSet := wordSet(candidate)
	if len(candSet) == 0 {
		return false, 0
	}
	var worst float64
	for _, prev := range recent {
		sim := jaccard(candSet, wordSet(prev))
		if sim > worst {
			worst = sim
		}
	}
	return worst >= s.cfg.RepetitionThreshold, worst
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(text)) {
		set[strings.Trim(f, ".,!?;:\"'()")] = struct{}{}
	}
	delete(set, "")
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var inter int
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
