package monitoring

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)
	return rec.Body.String()
}

func TestCollector_RecordsCyclesAndActions(t *testing.T) {
	c := NewCollector()

	c.RecordCycle(12.5)
	c.RecordScheduled("comment")
	c.RecordExecuted("comment", nil)
	c.RecordExecuted("reply", errors.New("timeout"))

	body := scrape(t, c)

	if !strings.Contains(body, "engine_cycles_total 1") {
		t.Error("cycle counter not exported")
	}
	if !strings.Contains(body, `engine_actions_scheduled_total{kind="comment"} 1`) {
		t.Error("scheduled counter not exported")
	}
	if !strings.Contains(body, `engine_actions_executed_total{kind="reply",outcome="error"} 1`) {
		t.Error("failed execution not labeled as error")
	}
}

func TestCollector_Gauges(t *testing.T) {
	c := NewCollector()

	c.SetRoster(12, 9)
	c.SetHealth(0.75)
	c.RecordFallback()

	body := scrape(t, c)

	if !strings.Contains(body, "engine_roster_size 12") {
		t.Error("roster gauge not exported")
	}
	if !strings.Contains(body, "engine_active_agents 9") {
		t.Error("active agents gauge not exported")
	}
	if !strings.Contains(body, "engine_ecosystem_health 0.75") {
		t.Error("health gauge not exported")
	}
	if !strings.Contains(body, "engine_generation_fallbacks_total 1") {
		t.Error("fallback counter not exported")
	}
}
