// Package factory assembles new agents: personality, unique handle, and a
// provisioned platform account.
package factory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"botfarm/internal/models"
	"botfarm/internal/personality"
	"botfarm/internal/rng"

	"github.com/google/uuid"
)

// AccountProvisioner is the slice of the platform client the factory
// needs.
type AccountProvisioner interface {
	CreateAgentUser(ctx context.Context, name string) (int, error)
}

// Factory builds agents from creation specs.
type Factory struct {
	provider personality.Provider
	registry *personality.Registry
	accounts AccountProvisioner
	r        rng.Rand
}

// New returns a factory. registry may equal provider; it is used for
// role-to-template resolution when a spec names only a role.
func New(registry *personality.Registry, accounts AccountProvisioner, r rng.Rand) *Factory {
	return &Factory{provider: registry, registry: registry, accounts: accounts, r: r}
}

// CreationSpec is everything needed to build one agent.
type CreationSpec struct {
	Reason          string
	PersonalityKind string
	Role            models.AgentRole
	Communities     []string
	Topics          []string
	ActivityLevel   models.ActivityLevel
}

// FromRecommendation converts an analyzer recommendation into a concrete
// spec.
func FromRecommendation(rec models.CreationRecommendation) CreationSpec {
	return CreationSpec{
		Reason:          rec.Reason,
		PersonalityKind: rec.PersonalityKind,
		Role:            rec.Role,
		Communities:     rec.Communities,
		Topics:          rec.Topics,
	}
}

// CreateAgent builds the agent and provisions its platform account. On any
// failure it returns an error and no agent exists anywhere; the caller's
// creation budget is only charged for successes.
func (f *Factory) CreateAgent(ctx context.Context, spec CreationSpec, takenNames map[string]bool) (*models.Agent, error) {
	kind := spec.PersonalityKind
	if kind == "" {
		kinds := f.registry.ForRole(spec.Role)
		if len(kinds) == 0 {
			return nil, fmt.Errorf("no personality template for role %q", spec.Role)
		}
		kind = kinds[f.r.IntN(len(kinds))]
	}

	tmpl, err := f.provider.Lookup(kind)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve personality: %w", err)
	}
	p := personality.Customize(tmpl, personality.Overrides{
		Communities:   spec.Communities,
		Topics:        spec.Topics,
		ActivityLevel: spec.ActivityLevel,
	})

	name := personality.GenerateName(p.Role, lowered(takenNames), f.r)
	userID, err := f.accounts.CreateAgentUser(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to provision account for %s: %w", name, err)
	}

	agent := &models.Agent{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Name:                name,
		Status:              models.StatusCreating,
		Personality:         p,
		AssignedCommunities: append([]string(nil), spec.Communities...),
		CreatedAt:           time.Now().UTC(),
		LastActive:          time.Now().UTC(),
		CreationReason:      spec.Reason,
	}
	log.Printf("Created agent %s (%s) for: %s", name, kind, spec.Reason)
	return agent, nil
}

func lowered(names map[string]bool) map[string]bool {
	out := make(map[string]bool, len(names))
	for n, v := range names {
		out[strings.ToLower(n)] = v
	}
	return out
}
