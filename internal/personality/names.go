package personality

import (
	"fmt"
	"strings"

	"botfarm/internal/models"
	"botfarm/internal/rng"

	"github.com/google/uuid"
)

// Name component pools, keyed loosely by role flavor.
var (
	namePrefixes = map[models.AgentRole][]string{
		models.RoleExpert:         {"dev", "arch", "sys", "proto", "stack"},
		models.RoleContentCreator: {"story", "ink", "echo", "drift", "nova"},
		models.RoleContrarian:     {"counter", "flip", "devil", "edge"},
		models.RoleFacilitator:    {"bridge", "anchor", "harbor", "relay"},
		models.RoleSupporter:      {"sunny", "easy", "mellow", "glad"},
	}
	defaultPrefixes = []string{"quiet", "wander", "north", "pixel", "cobalt"}
	nameSuffixes    = []string{"fox", "lark", "pine", "river", "smith", "wright", "holt", "vale"}
)

// GenerateName produces a platform handle for a new agent, avoiding names
// in the taken set. After a few collisions it falls back to a uuid tail,
// which cannot collide in practice.
func GenerateName(role models.AgentRole, taken map[string]bool, r rng.Rand) string {
	prefixes, ok := namePrefixes[role]
	if !ok {
		prefixes = defaultPrefixes
	}

	for attempt := 0; attempt < 10; attempt++ {
		name := fmt.Sprintf("%s_%s%d",
			prefixes[r.IntN(len(prefixes))],
			nameSuffixes[r.IntN(len(nameSuffixes))],
			r.IntN(100))
		if !taken[strings.ToLower(name)] {
			return name
		}
	}
	return fmt.Sprintf("agent_%s", uuid.NewString()[:8])
}
