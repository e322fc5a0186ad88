package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

// PostgresLedgerStore implements store.LedgerStore on notification_ledger.
// The table's primary key is the whole claim key, so the insert is the
// arbiter between concurrent sweeps.
type PostgresLedgerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLedgerStore creates a new PostgresLedgerStore.
func NewPostgresLedgerStore(db store.DBTX, logger *slog.Logger) *PostgresLedgerStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLedgerStore{
		db:     db,
		logger: logger.With(slog.String("component", "ledger_store")),
	}
}

// Ensure PostgresLedgerStore implements store.LedgerStore interface
var _ store.LedgerStore = (*PostgresLedgerStore)(nil)

// TryClaim implements store.LedgerStore.TryClaim. It reports true only for
// the caller whose insert created the row.
func (s *PostgresLedgerStore) TryClaim(ctx context.Context, key domain.LedgerKey, at time.Time) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := key.Validate(); err != nil {
		return false, err
	}

	query := `
		INSERT INTO notification_ledger (entity_type, entity_id, condition, day, claimed_at)
		VALUES ($1, $2, $3, $4::date, $5)
		ON CONFLICT DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		string(key.EntityType),
		key.EntityID,
		string(key.Condition),
		key.Day.String(),
		at.UTC(),
	)
	if err != nil {
		log.Error("failed to claim ledger key",
			slog.String("error", err.Error()),
			slog.String("key", key.String()))
		return false, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, MapError(err)
	}

	claimed := n == 1
	log.Debug("ledger claim",
		slog.String("key", key.String()),
		slog.Bool("claimed", claimed))
	return claimed, nil
}
