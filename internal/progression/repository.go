package progression

import (
	"context"

	"github.com/prepquest/prepquest-server/internal/domain"
)

// LocalStore persists the full progression state on the device/host. It is
// the durable source of truth for the running session; every mutation is
// followed by a Save.
type LocalStore interface {
	// Load returns the persisted state, or nil when nothing was saved yet.
	Load(ctx context.Context) (*domain.ProgressionState, error)
	Save(ctx context.Context, state domain.ProgressionState) error
	Close() error
}

// RemoteStore is the reconciliation collaborator: a row store with upsert and
// equality-filtered select, keyed by identity. All writes are
// last-writer-wins; nothing here is transactional across the three resources.
type RemoteStore interface {
	// Scalar progression record, one row per identity.
	UpsertRecord(ctx context.Context, record domain.ProgressionRecord) error
	// GetRecord returns nil when the identity has no remote record.
	GetRecord(ctx context.Context, identity string) (*domain.ProgressionRecord, error)

	// Completion rows, keyed by (identity, quest, date).
	UpsertCompletions(ctx context.Context, identity string, completions []domain.QuestCompletion) error
	ListCompletions(ctx context.Context, identity string) ([]domain.QuestCompletion, error)

	// Badge rows, keyed by (identity, badge).
	UpsertBadges(ctx context.Context, identity string, badgeIDs []string) error
	ListBadges(ctx context.Context, identity string) ([]string, error)

	// DeleteAll removes every row for the identity across all three resources.
	DeleteAll(ctx context.Context, identity string) error
}
