package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/openshelf/circulate/circulation"
	"github.com/openshelf/circulate/postgresengine/internal/adapters"
)

var json = jsoniter.ConfigFastest

// Configuration errors.
var (
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrEmptyTableName        = errors.New("table name must not be empty")
)

const (
	defaultTitlesTable    = "titles"
	defaultLoansTable     = "loans"
	defaultHoldsTable     = "holds"
	defaultChangeLogTable = "circulation_log"

	logMsgBuildQueryFailed   = "failed to build query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database execution failed"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgBeginTxFailed      = "failed to begin transaction"
	logMsgCommitTxFailed     = "failed to commit transaction"
	logMsgRollbackTxFailed   = "failed to roll back transaction"
	logMsgVersionConflict    = "optimistic version check failed"
	logMsgChangeCommitted    = "change set committed"
	logMsgSQLExecuted        = "executed sql for: "
	logAttrError             = "error"
	logAttrQuery             = "query"
	logAttrTitleID           = "title_id"
	logAttrVersion           = "version"
	logAttrDurationMS        = "duration_ms"

	colID              = "id"
	colTotalCopies     = "total_copies"
	colAvailableCopies = "available_copies"
	colStatus          = "status"
	colVersion         = "version"
	colTitleID         = "title_id"
	colHolderID        = "holder_id"
	colLoanDate        = "loan_date"
	colDueDate         = "due_date"
	colReturnDate      = "return_date"
	colRenewalCount    = "renewal_count"
	colNotes           = "notes"
	colRequestedAt     = "requested_at"
	colExpiryDate      = "expiry_date"
	colQueuePosition   = "queue_position"
	colRecordedAt      = "recorded_at"
	colPayload         = "payload"

	dialectPostgres = "postgres"
	castTimestamp   = "?::timestamp with time zone"
	castJsonb       = "?::jsonb"
)

type sqlQueryString = string

// Logger interface for SQL query logging, operational metrics, warnings, and
// error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// logDebug, logInfo, logWarn and logError prefer the context-aware methods
// when the configured logger also implements circulation.ContextualLogger, so
// trace correlation survives into the SQL layer. All of them are nil-safe.
func (s Store) logDebug(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}

	if contextual, ok := s.logger.(circulation.ContextualLogger); ok {
		contextual.DebugContext(ctx, msg, args...)
		return
	}

	s.logger.Debug(msg, args...)
}

func (s Store) logInfo(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}

	if contextual, ok := s.logger.(circulation.ContextualLogger); ok {
		contextual.InfoContext(ctx, msg, args...)
		return
	}

	s.logger.Info(msg, args...)
}

func (s Store) logWarn(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}

	if contextual, ok := s.logger.(circulation.ContextualLogger); ok {
		contextual.WarnContext(ctx, msg, args...)
		return
	}

	s.logger.Warn(msg, args...)
}

func (s Store) logError(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}

	if contextual, ok := s.logger.(circulation.ContextualLogger); ok {
		contextual.ErrorContext(ctx, msg, args...)
		return
	}

	s.logger.Error(msg, args...)
}

// TableNames holds the table names the store reads and writes.
type TableNames struct {
	Titles    string
	Loans     string
	Holds     string
	ChangeLog string
}

func defaultTableNames() TableNames {
	return TableNames{
		Titles:    defaultTitlesTable,
		Loans:     defaultLoansTable,
		Holds:     defaultHoldsTable,
		ChangeLog: defaultChangeLogTable,
	}
}

// Store is the PostgreSQL record store for circulation records. It leverages
// a database adapter and supports customizable logging and table naming.
type Store struct {
	db     adapters.DBAdapter
	tables TableNames
	logger Logger
}

// Option defines a functional option for configuring the Store.
type Option func(*Store) error

// WithTableNames sets custom table names for the Store.
func WithTableNames(tables TableNames) Option {
	return func(s *Store) error {
		if tables.Titles == "" || tables.Loans == "" || tables.Holds == "" || tables.ChangeLog == "" {
			return ErrEmptyTableName
		}

		s.tables = tables

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's
// configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: commit outcomes and conflicts (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional
// configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional
// configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional
// configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (Store, error) {
	store := Store{
		db:     db,
		tables: defaultTableNames(),
	}

	for _, option := range options {
		if err := option(&store); err != nil {
			return Store{}, err
		}
	}

	return store, nil
}

// CommitTitleChange applies a change set in one transaction. The title row is
// updated first, guarded by the optimistic version check; zero rows affected
// aborts the transaction with circulation.ErrConflict and nothing else is
// written. A JSON payload of the change set goes to the change-log table in
// the same transaction.
func (s Store) CommitTitleChange(
	ctx context.Context,
	expectedVersion uint,
	changes circulation.ChangeSet,
) error {

	if changes.Title == nil {
		return fmt.Errorf("%w: change set without title record", circulation.ErrInvalidState)
	}

	start := time.Now()

	tx, beginErr := s.db.Begin(ctx)
	if beginErr != nil {
		s.logError(ctx, logMsgBeginTxFailed, logAttrError, beginErr.Error())
		return beginErr
	}

	if commitErr := s.applyChangeSet(ctx, tx, expectedVersion, changes); commitErr != nil {
		s.rollback(ctx, tx)
		return commitErr
	}

	if txErr := tx.Commit(ctx); txErr != nil {
		s.logError(ctx, logMsgCommitTxFailed, logAttrError, txErr.Error())
		return txErr
	}

	s.logInfo(ctx, logMsgChangeCommitted,
		logAttrTitleID, changes.Title.ID.String(),
		logAttrVersion, expectedVersion+1,
		logAttrDurationMS, float64(time.Since(start).Nanoseconds())/1e6)

	return nil
}

// applyChangeSet executes every statement of the change set on the transaction.
func (s Store) applyChangeSet(
	ctx context.Context,
	tx adapters.DBTx,
	expectedVersion uint,
	changes circulation.ChangeSet,
) error {

	if err := s.updateTitleWithVersionCheck(ctx, tx, expectedVersion, *changes.Title); err != nil {
		return err
	}

	if changes.NewLoan != nil {
		sqlQuery, buildErr := s.buildInsertLoan(*changes.NewLoan)
		if err := s.buildAndExecOne(ctx, tx, sqlQuery, buildErr); err != nil {
			return err
		}
	}

	for _, loan := range changes.UpdatedLoans {
		sqlQuery, buildErr := s.buildUpdateLoan(loan)
		if err := s.buildAndExecOne(ctx, tx, sqlQuery, buildErr); err != nil {
			return err
		}
	}

	if changes.NewHold != nil {
		sqlQuery, buildErr := s.buildInsertHold(*changes.NewHold)
		if err := s.buildAndExecOne(ctx, tx, sqlQuery, buildErr); err != nil {
			return err
		}
	}

	for _, hold := range changes.UpdatedHolds {
		sqlQuery, buildErr := s.buildUpdateHold(hold)
		if err := s.buildAndExecOne(ctx, tx, sqlQuery, buildErr); err != nil {
			return err
		}
	}

	return s.insertChangeLog(ctx, tx, expectedVersion+1, changes)
}

// updateTitleWithVersionCheck performs the guarded title update that
// serializes all concurrent mutations of one title.
func (s Store) updateTitleWithVersionCheck(
	ctx context.Context,
	tx adapters.DBTx,
	expectedVersion uint,
	title circulation.Title,
) error {

	sqlQuery, _, buildErr := goqu.Dialect(dialectPostgres).
		Update(s.tables.Titles).
		Set(goqu.Record{
			colTotalCopies:     title.TotalCopies,
			colAvailableCopies: title.AvailableCopies,
			colStatus:          string(title.Status),
			colVersion:         expectedVersion + 1,
		}).
		Where(
			goqu.C(colID).Eq(title.ID.String()),
			goqu.C(colVersion).Eq(expectedVersion),
		).
		ToSQL()
	if buildErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, logAttrError, buildErr.Error())
		return buildErr
	}

	result, execErr := s.execOnTx(ctx, tx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	rowsAffected, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		s.logError(ctx, logMsgRowsAffectedFailed, logAttrError, rowsErr.Error())
		return rowsErr
	}

	if rowsAffected == 0 {
		s.logInfo(ctx, logMsgVersionConflict,
			logAttrTitleID, title.ID.String(),
			logAttrVersion, expectedVersion)

		return fmt.Errorf("%w: title %s at version %d was modified concurrently",
			circulation.ErrConflict, title.ID, expectedVersion)
	}

	return nil
}

// insertChangeLog writes the audit payload of the commit.
func (s Store) insertChangeLog(
	ctx context.Context,
	tx adapters.DBTx,
	newVersion uint,
	changes circulation.ChangeSet,
) error {

	payload, marshalErr := json.Marshal(changes)
	if marshalErr != nil {
		return marshalErr
	}

	sqlQuery, _, buildErr := goqu.Dialect(dialectPostgres).
		Insert(s.tables.ChangeLog).
		Rows(goqu.Record{
			colTitleID:    changes.Title.ID.String(),
			colVersion:    newVersion,
			colRecordedAt: goqu.L(castTimestamp, time.Now().UTC().Format(time.RFC3339Nano)),
			colPayload:    goqu.L(castJsonb, string(payload)),
		}).
		ToSQL()
	if buildErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, logAttrError, buildErr.Error())
		return buildErr
	}

	if err := s.execOne(ctx, tx, sqlQuery); err != nil {
		return err
	}

	return nil
}

// buildAndExecOne folds statement building and execution so the change-set
// loop stays flat.
func (s Store) buildAndExecOne(ctx context.Context, tx adapters.DBTx, sqlQuery sqlQueryString, buildErr error) error {
	if buildErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, logAttrError, buildErr.Error())
		return buildErr
	}

	return s.execOne(ctx, tx, sqlQuery)
}

// execOne executes a statement on the transaction and verifies it touched at
// least one row, so a lost update inside a change set cannot pass silently.
func (s Store) execOne(ctx context.Context, tx adapters.DBTx, sqlQuery sqlQueryString) error {
	result, execErr := s.execOnTx(ctx, tx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	rowsAffected, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		s.logError(ctx, logMsgRowsAffectedFailed, logAttrError, rowsErr.Error())
		return rowsErr
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: change set statement touched no rows", circulation.ErrNotFound)
	}

	return nil
}

func (s Store) execOnTx(ctx context.Context, tx adapters.DBTx, sqlQuery sqlQueryString) (adapters.DBResult, error) {
	start := time.Now()
	result, execErr := tx.Exec(ctx, sqlQuery)
	s.logQueryWithDuration(ctx, sqlQuery, "exec", time.Since(start))

	if execErr != nil {
		s.logError(ctx, logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		return nil, execErr
	}

	return result, nil
}

func (s Store) rollback(ctx context.Context, tx adapters.DBTx) {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		s.logWarn(ctx, logMsgRollbackTxFailed, logAttrError, rollbackErr.Error())
	}
}

// logQueryWithDuration logs the SQL statement at debug level with its timing.
func (s Store) logQueryWithDuration(ctx context.Context, sqlQuery sqlQueryString, action string, duration time.Duration) {
	s.logDebug(ctx, logMsgSQLExecuted+action,
		logAttrQuery, sqlQuery,
		logAttrDurationMS, float64(duration.Nanoseconds())/1e6)
}
