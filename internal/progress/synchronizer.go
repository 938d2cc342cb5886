package progress

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shydevcorp/codejeet/pkg/logger"
)

// Entry is one persisted (slug, completed) pair for a user.
type Entry struct {
	QuestionSlug string
	Completed    bool
	CompletedAt  *time.Time
}

// Store is the user_progress storage surface. Upserts key on
// (userID, questionSlug); a completed=false entry still writes a row.
type Store interface {
	CompletedSlugs(ctx context.Context, userID string) ([]string, error)
	UpsertProgress(ctx context.Context, userID string, entry Entry) error
	BatchUpsertProgress(ctx context.Context, userID string, entries []Entry) error
}

// Synchronizer reconciles client-held progress maps with the authoritative
// server copy. Reads are fail-soft, writes fail-loud (spelled out per method).
type Synchronizer struct {
	store Store
	now   func() time.Time
}

func NewSynchronizer(store Store) *Synchronizer {
	return &Synchronizer{store: store, now: time.Now}
}

// Get returns the slugs the user has completed, as slug -> true. Only
// completed slugs are represented. A storage failure is logged and surfaces
// as an empty map, never an error.
func (s *Synchronizer) Get(ctx context.Context, userID string) map[string]bool {
	slugs, err := s.store.CompletedSlugs(ctx, userID)
	if err != nil {
		logger.Error("Failed to fetch user progress",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return map[string]bool{}
	}

	progress := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		progress[slug] = true
	}
	return progress
}

// Set upserts a single progress row. completed=false clears completed_at but
// keeps the row. Storage errors propagate.
func (s *Synchronizer) Set(ctx context.Context, userID, questionSlug string, completed bool) error {
	entry := Entry{QuestionSlug: questionSlug, Completed: completed}
	if completed {
		now := s.now()
		entry.CompletedAt = &now
	}

	if err := s.store.UpsertProgress(ctx, userID, entry); err != nil {
		return fmt.Errorf("failed to update progress for %q: %w", questionSlug, err)
	}
	return nil
}

// Sync merges local into the server copy with local-wins semantics: every key
// in local overwrites the server value, keys only on the server survive. All
// local entries are persisted in one batch upsert and the merged map is
// returned for the client to re-cache. Fetch and persist errors propagate;
// the caller falls back to its pre-sync snapshot.
func (s *Synchronizer) Sync(ctx context.Context, userID string, local map[string]bool) (map[string]bool, error) {
	slugs, err := s.store.CompletedSlugs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch server progress: %w", err)
	}

	merged := make(map[string]bool, len(slugs)+len(local))
	for _, slug := range slugs {
		merged[slug] = true
	}
	for slug, completed := range local {
		merged[slug] = completed
	}

	if len(local) > 0 {
		now := s.now()
		entries := make([]Entry, 0, len(local))
		for slug, completed := range local {
			entry := Entry{QuestionSlug: slug, Completed: completed}
			if completed {
				entry.CompletedAt = &now
			}
			entries = append(entries, entry)
		}

		if err := s.store.BatchUpsertProgress(ctx, userID, entries); err != nil {
			return nil, fmt.Errorf("failed to persist synced progress: %w", err)
		}
	}

	logger.Debug("Progress synced",
		zap.String("user_id", userID),
		zap.Int("local_entries", len(local)),
		zap.Int("merged_entries", len(merged)),
	)
	return merged, nil
}
