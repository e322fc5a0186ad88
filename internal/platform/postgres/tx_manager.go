package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

// TxManager implements store.TxManager over a *sql.DB.
type TxManager struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTxManager creates a TxManager. If logger is nil, a default logger will be used.
func NewTxManager(db *sql.DB, logger *slog.Logger) *TxManager {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TxManager{db: db, logger: logger}
}

// Ensure TxManager implements store.TxManager interface
var _ store.TxManager = (*TxManager)(nil)

// Stores implements store.TxManager.Stores.
func (m *TxManager) Stores() store.Stores {
	return NewStores(m.db, m.logger)
}

// WithinTx implements store.TxManager.WithinTx.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	ctx = logger.WithLogger(ctx, logger.FromContextOrDefault(ctx, m.logger))
	return store.RunInTransaction(ctx, m.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, NewStores(tx, m.logger))
	})
}

// NewStores binds every Postgres store to db, which may be a pool or a transaction.
func NewStores(db store.DBTX, logger *slog.Logger) store.Stores {
	return store.Stores{
		Tasks:         NewPostgresTaskStore(db, logger),
		History:       NewPostgresTaskHistoryStore(db, logger),
		Projects:      NewPostgresProjectStore(db, logger),
		Invites:       NewPostgresInviteStore(db, logger),
		Notifications: NewPostgresNotificationStore(db, logger),
		Ledger:        NewPostgresLedgerStore(db, logger),
	}
}
