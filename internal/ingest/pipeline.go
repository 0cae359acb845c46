package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/models"
)

// GrantSink receives normalized grants from a scan. The store
// implements it; the CLI also uses an in-memory sink for one-off scans.
type GrantSink interface {
	UpsertGrant(ctx context.Context, grant models.Grant) error
}

// ScanStats summarizes one scan run.
type ScanStats struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Sources    int           `json:"sources"`
	Found      int           `json:"found"`
	Saved      int           `json:"saved"`
	Duplicates int           `json:"duplicates"`
	Errors     int           `json:"errors"`
}

// Scanner runs every configured source and feeds the deduplicated
// results into a sink.
type Scanner struct {
	sources []Source
	sink    GrantSink
	logger  *zap.Logger
}

func NewScanner(sources []Source, sink GrantSink, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		sources: sources,
		sink:    sink,
		logger:  logger.Named("scanner"),
	}
}

// Scan fetches from all sources sequentially. A failing source is
// counted and skipped so one broken site cannot sink the whole run.
// Grants are deduplicated by ID across sources, first seen wins.
func (s *Scanner) Scan(ctx context.Context) (ScanStats, error) {
	stats := ScanStats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Sources:   len(s.sources),
	}
	log := s.logger.With(zap.String("run_id", stats.RunID))
	log.Info("scan started", zap.Int("sources", len(s.sources)))

	seen := make(map[string]struct{})

	for _, source := range s.sources {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		grants, err := source.Fetch(ctx)
		if err != nil {
			log.Error("source failed",
				zap.String("source", source.Name()),
				zap.Error(err))
			stats.Errors++
			continue
		}
		stats.Found += len(grants)

		saved := 0
		for _, grant := range grants {
			if grant.ID == "" || grant.Title == "" {
				continue
			}
			if _, dup := seen[grant.ID]; dup {
				stats.Duplicates++
				continue
			}
			seen[grant.ID] = struct{}{}

			if err := s.sink.UpsertGrant(ctx, grant); err != nil {
				log.Warn("save failed",
					zap.String("grant_id", grant.ID),
					zap.Error(err))
				stats.Errors++
				continue
			}
			saved++
		}
		stats.Saved += saved

		log.Info("source complete",
			zap.String("source", source.Name()),
			zap.Int("found", len(grants)),
			zap.Int("saved", saved))
	}

	stats.Duration = time.Since(stats.StartedAt)
	log.Info("scan complete",
		zap.Int("found", stats.Found),
		zap.Int("saved", stats.Saved),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("errors", stats.Errors),
		zap.Duration("duration", stats.Duration))

	return stats, nil
}

// MemorySink collects grants in memory, used by the CLI when scanning
// without a database.
type MemorySink struct {
	Grants []models.Grant
}

func (m *MemorySink) UpsertGrant(_ context.Context, grant models.Grant) error {
	m.Grants = append(m.Grants, grant)
	return nil
}
