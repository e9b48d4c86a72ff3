package quality

import (
	"strings"
	"testing"

	"botfarm/internal/config"
)

func newScorer() *Scorer {
	return NewScorer(config.Default().Quality)
}

func TestScoreRewardsSubstantiveRelevantText(t *testing.T) {
	s := newScorer()
	ctx := Context{Topic: "databases", Keywords: []string{"indexing"}}
	text := "Indexing strategy matters more than most people expect here. " +
		"For read-heavy workloads on databases a covering index can remove " +
		"the table lookup entirely, which changed our latency profile completely."

	got := s.Score(text, ctx)
	if got < 0.9 {
		t.Errorf("Score(substantive) = %v, want >= 0.9", got)
	}
}

func TestScorePenalizesTinyResponses(t *testing.T) {
	s := newScorer()
	got := s.Score("ok sure", Context{})
	if got >= 0.5 {
		t.Errorf("Score(tiny) = %v, want < 0.5", got)
	}
}

func TestScoreZeroesDisallowedContent(t *testing.T) {
	s := newScorer()
	text := "As an AI I think this is a really interesting question about testing. " +
		"There are several angles worth exploring in more depth here."
	got := s.Score(text, Context{Topic: "testing"})
	if got > 0.6 {
		t.Errorf("Score(disallowed) = %v, want heavy penalty", got)
	}
}

func TestScorePenalizesInternalRepetition(t *testing.T) {
	s := newScorer()
	text := strings.Repeat("great point great point ", 5)
	plain := "This raises a number of separate questions worth answering individually today."
	if s.Score(text, Context{}) >= s.Score(plain, Context{}) {
		t.Error("repetitive text did not score below varied text")
	}
}

func TestScoreClampedToUnitInterval(t *testing.T) {
	s := newScorer()
	got := s.Score("as an ai no", Context{})
	if got < 0 || got > 1 {
		t.Errorf("Score out of range: %v", got)
	}
}

func TestIsRepetitiveAgainstRecentOutputs(t *testing.T) {
	s := newScorer()
	recent := []string{
		"I think the maintainers made the right call on this release schedule",
		"Completely unrelated musing about gardening in early spring",
	}

	dup, sim := s.IsRepetitive(recent, "I think the maintainers made the right call on this release schedule")
	if !dup {
		t.Errorf("IsRepetitive(exact duplicate) = false (sim %v), want true", sim)
	}

	fresh, _ := s.IsRepetitive(recent, "The benchmark numbers in that thread looked suspicious to me")
	if fresh {
		t.Error("IsRepetitive(fresh text) = true, want false")
	}
}

func TestIsRepetitiveEmptyCandidate(t *testing.T) {
	s := newScorer()
	dup, sim := s.IsRepetitive([]string{"anything at all"}, "   ")
	if dup || sim != 0 {
		t.Errorf("IsRepetitive(empty) = (%v, %v), want (false, 0)", dup, sim)
	}
}
