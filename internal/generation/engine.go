// Package generation produces agent text: posts, comments, and replies,
// run through the quality gate before anything is returned.
package generation

import (
	"context"
	"fmt"
	"log"
	"strings"

	"botfarm/internal/config"
	"botfarm/internal/models"
	"botfarm/internal/quality"
	"botfarm/internal/rng"

	"github.com/tmc/langchaingo/llms"
)

// maxChainDepth bounds the parent walk when building reply context.
const maxChainDepth = 6

// memoryLines is how many recalled memories make it into a prompt.
const memoryLines = 3

// Recaller is the slice of the memory store the engine needs.
type Recaller interface {
	Recall(agentID, topic, community string) ([]models.MemoryEntry, error)
	RecentResponses(agentID string, n int) ([]string, error)
}

// Engine generates in-character text.
type Engine struct {
	llm    llms.Model
	scorer *quality.Scorer
	memory Recaller
	cfg    config.LLMConfig
	qcfg   config.QualityConfig
	r      rng.Rand
}

// New returns a generation engine.
func New(llm llms.Model, scorer *quality.Scorer, memory Recaller, cfg config.LLMConfig, qcfg config.QualityConfig, r rng.Rand) *Engine {
	return &Engine{llm: llm, scorer: scorer, memory: memory, cfg: cfg, qcfg: qcfg, r: r}
}

// fallbacks keep an agent minimally responsive when generation fails
// outright.
var fallbacks = []string{
	"Interesting take, I need to think about this one.",
	"Not sure I agree, but you make a fair point.",
	"Thanks for sharing this, hadn't seen it before.",
	"Following this thread, curious where it goes.",
}

func (e *Engine) fallback() string {
	return fallbacks[e.r.IntN(len(fallbacks))]
}

// Result carries generated text plus the quality score it earned.
type Result struct {
	Text     string
	Title    string
	Score    float64
	Fallback bool
}

// GenerateComment produces a top-level response to a post.
func (e *Engine) GenerateComment(ctx context.Context, agent *models.Agent, post *models.Post) (*Result, error) {
	prompt := fmt.Sprintf(
		"%s\nA post in %s titled %q says:\n%s\n\nWrite your comment. Just the comment text, no preamble.",
		e.recallBlock(agent, post.Title, post.Community), post.Community, post.Title, post.Body)
	return e.generate(ctx, agent, prompt, quality.Context{
		Topic:     post.Title,
		Community: post.Community,
		Keywords:  strings.Fields(post.Title),
	})
}

// GenerateReply produces an answer inside a thread. chain is the bounded
// parent context, newest first.
func (e *Engine) GenerateReply(ctx context.Context, agent *models.Agent, post *models.Post, chain []models.Response) (*Result, error) {
	topic := ""
	community := ""
	if post != nil {
		topic = post.Title
		community = post.Community
	}
	prompt := fmt.Sprintf(
		"%sThe conversation so far:\n%s\nWrite your reply to the last message. Just the reply text.",
		e.recallBlock(agent, topic, community), ThreadContext(post, chain))
	return e.generate(ctx, agent, prompt, quality.Context{
		Topic:     topic,
		Community: community,
		Keywords:  chainKeywords(chain),
	})
}

// GeneratePost produces fresh content for a community. The model is asked
// for a TITLE: line followed by the body.
func (e *Engine) GeneratePost(ctx context.Context, agent *models.Agent, community string) (*Result, error) {
	prompt := fmt.Sprintf(
		"%sWrite a new post for the %s community, something you would genuinely want to discuss.\n"+
			"Format:\nTITLE: <one line>\n<post body>",
		e.recallBlock(agent, "", community), community)

	res, err := e.generate(ctx, agent, prompt, quality.Context{Community: community})
	if err != nil {
		return nil, err
	}
	res.Title, res.Text = splitTitled(res.Text)
	if res.Title == "" {
		res.Title = firstLine(res.Text)
	}
	return res, nil
}

// generate runs one model call plus the quality pipeline: score, at most
// one improvement pass kept only if it scores strictly better, then the
// repetition check against the agent's recent outputs.
func (e *Engine) generate(ctx context.Context, agent *models.Agent, prompt string, qctx quality.Context) (*Result, error) {
	text, err := e.complete(ctx, agent, prompt)
	if err != nil {
		log.Printf("Generation failed for %s, using fallback: %v", agent.Name, err)
		return &Result{Text: e.fallback(), Score: 0, Fallback: true}, nil
	}

	score := e.scorer.Score(text, qctx)
	if score < e.scorer.MinAcceptable() {
		improved, ierr := e.complete(ctx, agent,
			prompt+"\n\nYour previous attempt was weak:\n"+text+
				"\nRewrite it: more specific, more natural, same voice.")
		if ierr == nil {
			if iscore := e.scorer.Score(improved, qctx); iscore > score {
				text, score = improved, iscore
			}
		}
	}

	recent, rerr := e.memory.RecentResponses(agent.ID, e.qcfg.RecentOutputs)
	if rerr != nil {
		log.Printf("Could not load recent outputs for %s: %v", agent.Name, rerr)
	} else if dup, sim := e.scorer.IsRepetitive(recent, text); dup {
		log.Printf("Discarding repetitive output from %s (similarity %.2f)", agent.Name, sim)
		return &Result{Text: e.fallback(), Score: 0, Fallback: true}, nil
	}

	return &Result{Text: text, Score: score}, nil
}

func (e *Engine) complete(ctx context.Context, agent *models.Agent, prompt string) (string, error) {
	full := BuildSystemPrompt(agent) + "\n\n" + prompt
	out, err := llms.GenerateFromSinglePrompt(ctx, e.llm, full,
		llms.WithTemperature(e.cfg.Temperature),
		llms.WithMaxTokens(e.cfg.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("model returned empty output")
	}
	return out, nil
}

func (e *Engine) recallBlock(agent *models.Agent, topic, community string) string {
	memories, err := e.memory.Recall(agent.ID, topic, community)
	if err != nil {
		log.Printf("Recall failed for %s: %v", agent.Name, err)
		return ""
	}
	block := memoryContext(memories, memoryLines)
	if block == "" {
		return ""
	}
	return block + "\n"
}

func splitTitled(text string) (title, body string) {
	lines := strings.SplitN(text, "\n", 2)
	first := strings.TrimSpace(lines[0])
	if strings.HasPrefix(strings.ToUpper(first), "TITLE:") {
		title = strings.TrimSpace(first[len("TITLE:"):])
		if len(lines) > 1 {
			body = strings.TrimSpace(lines[1])
		}
		return title, body
	}
	return "", text
}

func firstLine(text string) string {
	line := strings.SplitN(strings.TrimSpace(text), "\n", 2)[0]
	if len(line) > 80 {
		line = line[:80]
	}
	return line
}

func chainKeywords(chain []models.Response) []string {
	if len(chain) == 0 {
		return nil
	}
	words := strings.Fields(chain[0].Body)
	if len(words) > 8 {
		words = words[:8]
	}
	return words
}
