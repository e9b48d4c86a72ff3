// Package personality holds the behavioral templates agents are built from
// and the registry that serves them.
package personality

import (
	"fmt"
	"sort"
	"sync"

	"botfarm/internal/models"
)

// Provider serves personality templates by kind.
type Provider interface {
	// Lookup returns a fresh copy of the named template.
	Lookup(kind string) (models.Personality, error)
	// Kinds lists the available template names, sorted.
	Kinds() []string
}

// Registry is the default Provider backed by an in-process template map.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]models.Personality
}

// NewRegistry returns a registry preloaded with the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]models.Personality)}
	for kind, tmpl := range builtins {
		r.templates[kind] = tmpl
	}
	return r
}

// Register adds or replaces a template.
func (r *Registry) Register(kind string, tmpl models.Personality) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tmpl.Kind = kind
	r.templates[kind] = tmpl
}

// Lookup returns a deep copy so callers can customize without mutating the
// shared template.
func (r *Registry) Lookup(kind string) (models.Personality, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[kind]
	if !ok {
		return models.Personality{}, fmt.Errorf("unknown personality kind %q", kind)
	}
	return clone(tmpl), nil
}

// Kinds lists registered template names.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.templates))
	for k := range r.templates {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// ForRole returns the template kinds whose role matches, used when a
// creation recommendation names a role rather than a specific template.
func (r *Registry) ForRole(role models.AgentRole) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var kinds []string
	for k, tmpl := range r.templates {
		if tmpl.Role == role {
			kinds = append(kinds, k)
		}
	}
	sort.Strings(kinds)
	return kinds
}

func clone(p models.Personality) models.Personality {
	out := p
	out.ActionWeights = make(map[models.ActionKind]float64, len(p.ActionWeights))
	for k, v := range p.ActionWeights {
		out.ActionWeights[k] = v
	}
	out.PreferredCommunities = append([]string(nil), p.PreferredCommunities...)
	out.AvoidedCommunities = append([]string(nil), p.AvoidedCommunities...)
	out.ExpertiseTopics = append([]string(nil), p.ExpertiseTopics...)
	out.CuriosityTopics = append([]string(nil), p.CuriosityTopics...)
	out.AvoidanceTopics = append([]string(nil), p.AvoidanceTopics...)
	out.BehaviorPatterns = append([]string(nil), p.BehaviorPatterns...)
	out.Guidelines = append([]string(nil), p.Guidelines...)
	return out
}

// Overrides customize a template at creation time. Nil or empty fields
// leave the template value in place.
type Overrides struct {
	Communities   []string
	Topics        []string
	ActivityLevel models.ActivityLevel
}

// WeightCeiling caps the total action-weight mass a personality brings to
// the decision lottery. The built-in templates sit well under it; it
// exists so a registered or customized template cannot drown out the
// situational boosts.
const WeightCeiling = 3.0

// Customize applies overrides to a template copy. The result is always
// weight-normalized.
func Customize(tmpl models.Personality, ov Overrides) models.Personality {
	if len(ov.Communities) > 0 {
		tmpl.PreferredCommunities = append([]string(nil), ov.Communities...)
	}
	if len(ov.Topics) > 0 {
		tmpl.ExpertiseTopics = append(tmpl.ExpertiseTopics, ov.Topics...)
	}
	if ov.ActivityLevel != "" {
		tmpl.ActivityLevel = ov.ActivityLevel
	}
	tmpl.NormalizeWeights(WeightCeiling)
	return tmpl
}
