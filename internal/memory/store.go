// Package memory persists agent interaction history and the distilled
// memories agents recall when composing responses.
package memory

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"botfarm/internal/config"
	"botfarm/internal/models"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// Store is the durable memory layer. Reads are safe concurrently; writes
// for the same agent are serialized through a per-agent lock so importance
// accrual never races with itself.
type Store struct {
	db  *gorm.DB
	cfg config.MemoryConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open connects to the configured database and migrates the schema.
func Open(dbCfg config.DatabaseConfig, memCfg config.MemoryConfig) (*Store, error) {
	db, err := gorm.Open(dbCfg.Driver, dbCfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.InteractionRecord{}, &models.MemoryEntry{}).Error; err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{
		db:    db,
		cfg:   memCfg,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) agentLock(agentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[agentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[agentID] = l
	}
	return l
}

// Outcome is what the caller observed after an action executed.
type Outcome struct {
	Kind             models.ActionKind
	ContentID        int
	Community        string
	Topic            string
	ResponseText     string
	QualityScore     float64
	VoteScore        int
	RepliesGenerated int
	Metrics          map[string]float64
}

// Learn records the interaction and, when the outcome is significant,
// creates or reinforces a memory entry. The interaction record is always
// written; memory accrual only happens for outcomes worth remembering.
func (s *Store) Learn(agentID string, out Outcome) error {
	lock := s.agentLock(agentID)
	lock.Lock()
	defer lock.Unlock()

	metricsJSON, _ := json.Marshal(out.Metrics)
	rec := models.InteractionRecord{
		ID:               uuid.NewString(),
		AgentID:          agentID,
		Kind:             out.Kind,
		ContentID:        out.ContentID,
		Community:        out.Community,
		ResponseText:     out.ResponseText,
		QualityScore:     out.QualityScore,
		VoteScore:        out.VoteScore,
		RepliesGenerated: out.RepliesGenerated,
		SuccessMetrics:   string(metricsJSON),
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}

	if !significant(out) {
		return nil
	}
	return s.accrue(agentID, out)
}

// significant decides whether an outcome deserves a memory: strong votes
// either way, sparked conversation, or notably good or bad quality.
func significant(out Outcome) bool {
	if out.VoteScore > 2 || out.VoteScore < -1 {
		return true
	}
	if out.RepliesGenerated > 1 {
		return true
	}
	if out.QualityScore > 0.8 || out.QualityScore < 0.4 {
		return true
	}
	return false
}

// importanceFor computes the importance contribution of one outcome:
// 0.5 base, +0.3 strongly positive reception, +0.2 sparked conversation,
// +0.2 high quality, +0.1 for a negative outcome (mistakes are worth
// remembering too), capped at 1.0.
func importanceFor(out Outcome) float64 {
	imp := 0.5
	if out.VoteScore > 2 {
		imp += 0.3
	}
	if out.RepliesGenerated > 1 {
		imp += 0.2
	}
	if out.QualityScore > 0.8 {
		imp += 0.2
	}
	if out.VoteScore < -1 || out.QualityScore < 0.4 {
		imp += 0.1
	}
	if imp > 1.0 {
		imp = 1.0
	}
	return imp
}

// accrue merges the outcome into an existing memory for the same agent,
// topic, and community, or starts a new one. Importance only ever grows.
func (s *Store) accrue(agentID string, out Outcome) error {
	topic := out.Topic
	if topic == "" {
		topic = extractTopic(out.ResponseText)
	}
	delta := importanceFor(out)

	var existing models.MemoryEntry
	err := s.db.Where("agent_id = ? AND topic = ? AND community = ?",
		agentID, topic, out.Community).First(&existing).Error

	switch {
	case err == nil:
		imp := existing.Importance + delta*0.5
		if imp > 1.0 {
			imp = 1.0
		}
		if imp < existing.Importance {
			imp = existing.Importance
		}
		updates := map[string]interface{}{
			"importance": imp,
			"summary":    summarize(out),
		}
		return s.db.Model(&existing).Updates(updates).Error
	case gorm.IsRecordNotFoundError(err):
		prefs, _ := json.Marshal(map[string]float64{"quality": out.QualityScore})
		indicators, _ := json.Marshal(out.Metrics)
		entry := models.MemoryEntry{
			ID:                 uuid.NewString(),
			AgentID:            agentID,
			Topic:              topic,
			Community:          out.Community,
			Summary:            summarize(out),
			LearnedPreferences: string(prefs),
			SuccessIndicators:  string(indicators),
			Importance:         delta,
			CreatedAt:          time.Now().UTC(),
		}
		return s.db.Create(&entry).Error
	default:
		return fmt.Errorf("failed to look up memory: %w", err)
	}
}

func summarize(out Outcome) string {
	verdict := "landed flat"
	if out.VoteScore > 2 || out.RepliesGenerated > 1 {
		verdict = "resonated"
	} else if out.VoteScore < -1 {
		verdict = "was poorly received"
	}
	return fmt.Sprintf("%s in %s %s (score %d, %d replies)",
		out.Kind, out.Community, verdict, out.VoteScore, out.RepliesGenerated)
}

// extractTopic picks the longest non-stopword as a crude topic key.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "that": {}, "this": {}, "with": {}, "have": {},
	"from": {}, "about": {}, "would": {}, "there": {}, "their": {},
	"which": {}, "because": {}, "really": {}, "think": {},
}

func extractTopic(text string) string {
	var best string
	for _, f := range strings.Fields(strings.ToLower(text)) {
		f = strings.Trim(f, ".,!?;:\"'()")
		if _, stop := stopwords[f]; stop {
			continue
		}
		if len(f) > len(best) {
			best = f
		}
	}
	if best == "" {
		return "general"
	}
	return best
}

// Recall returns the agent's most relevant memories for a topic and
// community: topic matches and community matches merged, deduplicated by
// id, ordered by importance descending then recency descending.
func (s *Store) Recall(agentID, topic, community string) ([]models.MemoryEntry, error) {
	limit := s.cfg.RecallLimit
	if limit <= 0 {
		limit = 10
	}

	var byTopic, byCommunity []models.MemoryEntry
	if topic != "" {
		if err := s.db.Where("agent_id = ? AND topic LIKE ?", agentID, "%"+topic+"%").
			Limit(limit).Find(&byTopic).Error; err != nil {
			return nil, fmt.Errorf("failed to recall by topic: %w", err)
		}
	}
	if community != "" {
		if err := s.db.Where("agent_id = ? AND community = ?", agentID, community).
			Limit(limit).Find(&byCommunity).Error; err != nil {
			return nil, fmt.Errorf("failed to recall by community: %w", err)
		}
	}

	seen := make(map[string]struct{})
	merged := make([]models.MemoryEntry, 0, len(byTopic)+len(byCommunity))
	for _, e := range append(byTopic, byCommunity...) {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		merged = append(merged, e)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Importance != merged[j].Importance {
			return merged[i].Importance > merged[j].Importance
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// RecentResponses returns the text of the agent's last n generated
// responses, newest first. Vote actions carry no text and are skipped.
func (s *Store) RecentResponses(agentID string, n int) ([]string, error) {
	var recs []models.InteractionRecord
	err := s.db.Where("agent_id = ? AND response_text <> ''", agentID).
		Order("created_at desc").Limit(n).Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent responses: %w", err)
	}
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ResponseText)
	}
	return out, nil
}

// Cleanup deletes interaction records older than the retention window and
// low-importance memories of the same age. Important memories survive
// regardless of age.
func (s *Store) Cleanup(now time.Time) error {
	cutoff := now.AddDate(0, 0, -s.cfg.RetentionDays)

	res := s.db.Where("created_at < ?", cutoff).Delete(&models.InteractionRecord{})
	if res.Error != nil {
		return fmt.Errorf("failed to prune interactions: %w", res.Error)
	}
	pruned := res.RowsAffected

	res = s.db.Where("created_at < ? AND importance < ?", cutoff, s.cfg.KeepImportance).
		Delete(&models.MemoryEntry{})
	if res.Error != nil {
		return fmt.Errorf("failed to prune memories: %w", res.Error)
	}
	if pruned+res.RowsAffected > 0 {
		log.Printf("Memory cleanup removed %d interactions, %d memories", pruned, res.RowsAffected)
	}
	return nil
}
