package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"botfarm/internal/config"
	"botfarm/internal/models"
	"botfarm/internal/quality"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedLLM returns canned outputs in order.
type scriptedLLM struct {
	outputs []string
	calls   int
	err     error
}

func (m *scriptedLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := m.outputs[m.calls%len(m.outputs)]
	m.calls++
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: out}},
	}, nil
}

func (m *scriptedLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, nil)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

type stubMemory struct {
	memories []models.MemoryEntry
	recent   []string
}

func (s *stubMemory) Recall(agentID, topic, community string) ([]models.MemoryEntry, error) {
	return s.memories, nil
}

func (s *stubMemory) RecentResponses(agentID string, n int) ([]string, error) {
	return s.recent, nil
}

type stubRand struct{}

func (stubRand) Float64() float64 { return 0 }
func (stubRand) IntN(n int) int   { return 0 }

func testEngine(llm llms.Model, mem Recaller) *Engine {
	cfg := config.Default()
	return New(llm, quality.NewScorer(cfg.Quality), mem, cfg.LLM, cfg.Quality, stubRand{})
}

func testGenAgent() *models.Agent {
	return &models.Agent{
		ID:   "agent-1",
		Name: "pixel_lark",
		Personality: models.Personality{
			Description: "curious and friendly",
			Tone:        "casual",
		},
	}
}

func testPost() *models.Post {
	return &models.Post{
		ID: 7, Community: "golang", Title: "testing frameworks",
		Body: "Which testing frameworks do people actually use in production?",
	}
}

func TestGenerateCommentHappyPath(t *testing.T) {
	good := "Testing frameworks are mostly a style choice in my experience. " +
		"We settled on the standard library plus a small assertion helper and never regretted it."
	llm := &scriptedLLM{outputs: []string{good}}
	e := testEngine(llm, &stubMemory{})

	res, err := e.GenerateComment(context.Background(), testGenAgent(), testPost())
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, good, res.Text)
	assert.Greater(t, res.Score, 0.5)
	assert.Equal(t, 1, llm.calls, "good output should not trigger a rewrite")
}

func TestGenerateFallsBackOnModelError(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("rate limit")}
	e := testEngine(llm, &stubMemory{})

	res, err := e.GenerateComment(context.Background(), testGenAgent(), testPost())
	require.NoError(t, err, "model failure is soft, not an error")
	assert.True(t, res.Fallback)
	assert.NotEmpty(t, res.Text)
}

func TestWeakOutputGetsOneRewrite(t *testing.T) {
	improved := "Good question about testing frameworks honestly. " +
		"The ecosystem churns, but the standard library has stayed dependable for us across releases."
	llm := &scriptedLLM{outputs: []string{"no", improved}}
	e := testEngine(llm, &stubMemory{})

	res, err := e.GenerateComment(context.Background(), testGenAgent(), testPost())
	require.NoError(t, err)
	assert.Equal(t, improved, res.Text, "strictly better rewrite should be kept")
	assert.Equal(t, 2, llm.calls)
}

func TestRewriteDiscardedWhenNotBetter(t *testing.T) {
	llm := &scriptedLLM{outputs: []string{"no", "ok"}}
	e := testEngine(llm, &stubMemory{})

	res, err := e.GenerateComment(context.Background(), testGenAgent(), testPost())
	require.NoError(t, err)
	assert.Equal(t, "no", res.Text, "rewrite that fails to improve is dropped")
	assert.Equal(t, 2, llm.calls, "only one rewrite attempt allowed")
}

func TestRepetitiveOutputReplacedWithFallback(t *testing.T) {
	phrase := "The standard library testing package covers everything most projects genuinely need today."
	llm := &scriptedLLM{outputs: []string{phrase}}
	e := testEngine(llm, &stubMemory{recent: []string{phrase}})

	res, err := e.GenerateComment(context.Background(), testGenAgent(), testPost())
	require.NoError(t, err)
	assert.True(t, res.Fallback, "near-duplicate of a recent output must not ship")
	assert.NotEqual(t, phrase, res.Text)
}

func TestGeneratePostParsesTitle(t *testing.T) {
	llm := &scriptedLLM{outputs: []string{
		"TITLE: What changed your mind about code review?\n" +
			"I used to think reviews were pure overhead. A production incident cured me of that, " +
			"and now I want to hear what flipped it for other people.",
	}}
	e := testEngine(llm, &stubMemory{})

	res, err := e.GeneratePost(context.Background(), testGenAgent(), "golang")
	require.NoError(t, err)
	assert.Equal(t, "What changed your mind about code review?", res.Title)
	assert.NotContains(t, res.Text, "TITLE:")
}

func TestBuildSystemPromptCarriesPersona(t *testing.T) {
	agent := testGenAgent()
	prompt := BuildSystemPrompt(agent)
	assert.Contains(t, prompt, agent.Name)
	assert.Contains(t, prompt, "curious and friendly")
	assert.Contains(t, prompt, "stay in character")
}

func TestBuildReplyChainBounded(t *testing.T) {
	// Responses 1..20 form a deep chain via ParentID.
	byID := map[int]models.Response{}
	for i := 1; i <= 20; i++ {
		byID[i] = models.Response{ID: i, ParentID: i - 1, Body: "msg"}
	}
	lookup := func(id int) (models.Response, bool) {
		r, ok := byID[id]
		return r, ok
	}

	chain := BuildReplyChain(byID[20], lookup, maxChainDepth)
	assert.Len(t, chain, maxChainDepth, "walk must stop at the depth guard")
}

func TestBuildReplyChainSurvivesCycles(t *testing.T) {
	a := models.Response{ID: 1, ParentID: 2, Body: "a"}
	b := models.Response{ID: 2, ParentID: 1, Body: "b"}
	lookup := func(id int) (models.Response, bool) {
		switch id {
		case 1:
			return a, true
		case 2:
			return b, true
		}
		return models.Response{}, false
	}

	chain := BuildReplyChain(a, lookup, maxChainDepth)
	assert.LessOrEqual(t, len(chain), maxChainDepth)
}

func TestThreadContextOrdersOldestFirst(t *testing.T) {
	post := testPost()
	chain := []models.Response{
		{ID: 3, Body: "newest"},
		{ID: 2, Body: "middle"},
		{ID: 1, Body: "oldest"},
	}
	ctx := ThreadContext(post, chain)
	if strings.Index(ctx, "oldest") > strings.Index(ctx, "newest") {
		t.Error("thread context should render oldest response first")
	}
	assert.Contains(t, ctx, post.Title)
}
