package identity

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/garagehub/dispatch/concurrent"
	"github.com/garagehub/dispatch/errors"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	_ "github.com/jackc/pgx/v5/stdlib"
	pkgerrors "github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	queryFind = `SELECT id, kind, name, password_hash, authorisations
		FROM identities WHERE kind = $1 AND id = $2`

	queryFindByName = `SELECT id, kind, name, password_hash, authorisations
		FROM identities WHERE kind = $1 AND name = $2`

	queryCreate = `INSERT INTO identities (kind, name, password_hash, authorisations)
		VALUES ($1, $2, $3, $4) RETURNING id`

	queryUpdatePassword = `UPDATE identities SET password_hash = $3
		WHERE kind = $1 AND id = $2`
)

// Row is a single result row
type Row interface {
	Scan(dest ...interface{}) error
}

// Querier runs queries against the database
type Querier interface {
	QueryRow(ctx context.Context, query string, args ...interface{}) Row
	Exec(ctx context.Context, query string, args ...interface{}) (int64, error)
}

type sqlQuerier struct {
	db *sql.DB
}

func (q sqlQuerier) QueryRow(ctx context.Context, query string, args ...interface{}) Row {
	return q.db.QueryRowContext(ctx, query, args...)
}

func (q sqlQuerier) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// retriable returns true for postgres errors that are expected to go
// away when the operation is attempted again
func retriable(err error) bool {
	var pgErr *pgconn.PgError
	if !pkgerrors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.TransactionRollback,
		pgerrcode.SerializationFailure,
		pgerrcode.DeadlockDetected,
		pgerrcode.CannotConnectNow:
		return true
	default:
		return false
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return pkgerrors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// PostgresProps are the properties used to create a PostgresStore
type PostgresProps struct {
	Querier     Querier
	RetryConfig concurrent.RetryConfig
}

// PostgresStore is a Store backed by the identities table
type PostgresStore struct {
	querier     Querier
	retryConfig concurrent.RetryConfig
}

var defaultRetryConfig = concurrent.RetryConfig{
	BaseTimeout:     50 * time.Millisecond,
	BaseExp:         2,
	MaxRetryTimeout: time.Second,
	Attempts:        3,
	Random:          true,
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(props PostgresProps) *PostgresStore {
	if props.Querier == nil {
		panic("querier must be set")
	}

	retryConfig := props.RetryConfig
	if retryConfig.Attempts == 0 && !retryConfig.UnlimitedAttempts {
		retryConfig = defaultRetryConfig
	}

	return &PostgresStore{
		querier:     props.Querier,
		retryConfig: retryConfig,
	}
}

// OpenPostgres connects to the database, applies the pending
// migrations and returns the store and the underlying connection pool
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, *sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(err, "failed to open database")
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, pkgerrors.Wrap(err, "failed to reach database")
	}

	return NewPostgresStore(PostgresProps{Querier: sqlQuerier{db: db}}), db, nil
}

// Migrate applies the pending migrations to the database
func Migrate(db *sql.DB) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return pkgerrors.Wrap(err, "failed to load migrations")
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create migration")
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return pkgerrors.Wrap(err, "failed to apply migrations")
	}

	return nil
}

// retry runs fn until it succeeds or fails with an error that cannot
// be recovered by trying again
func (s *PostgresStore) retry(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	v, err := concurrent.RetryWithConfig(ctx, concurrent.SupplierFunc(func() (interface{}, error) {
		v, err := fn()
		if err != nil && !retriable(err) {
			return nil, concurrent.ErrCannotRecover{Cause: err}
		}

		return v, err
	}), s.retryConfig)

	if e, ok := err.(concurrent.ErrMaxAttemptsReached); ok {
		return nil, e.Last()
	}

	return v, err
}

// scan reads an identity from a row. pgtype.Map caches scan plans and
// is not safe for concurrent use, so one is created per row
func (s *PostgresStore) scan(row Row) (*Identity, error) {
	var (
		identity       Identity
		kind           string
		authorisations []string
	)

	if err := row.Scan(
		&identity.ID,
		&kind,
		&identity.Name,
		&identity.PasswordHash,
		pgtype.NewMap().SQLScanner(&authorisations),
	); err != nil {
		return nil, err
	}

	identity.Kind = Kind(kind)
	identity.Authorisations = authorisations
	return &identity, nil
}

func (s *PostgresStore) find(ctx context.Context, query string, args ...interface{}) (*Identity, error) {
	v, err := s.retry(ctx, func() (interface{}, error) {
		identity, err := s.scan(s.querier.QueryRow(ctx, query, args...))
		if err == sql.ErrNoRows {
			return (*Identity)(nil), nil
		}

		return identity, err
	})

	if err != nil {
		return nil, errors.New(errors.ErrIdentityStore, err)
	}

	return v.(*Identity), nil
}

// Find is the implementation of Store for PostgresStore
func (s *PostgresStore) Find(ctx context.Context, kind Kind, id int64) (*Identity, error) {
	return s.find(ctx, queryFind, string(kind), id)
}

// FindByPrincipalName is the implementation of Store for PostgresStore
func (s *PostgresStore) FindByPrincipalName(ctx context.Context, kind Kind, name string) (*Identity, error) {
	return s.find(ctx, queryFindByName, string(kind), name)
}

// Create is the implementation of Store for PostgresStore
func (s *PostgresStore) Create(ctx context.Context, props CreateProps) (*Identity, error) {
	authorisations := props.Authorisations
	if authorisations == nil {
		authorisations = []string{}
	}

	v, err := s.retry(ctx, func() (interface{}, error) {
		var id int64
		err := s.querier.QueryRow(ctx, queryCreate,
			string(props.Kind), props.Name, props.PasswordHash, authorisations).Scan(&id)
		return id, err
	})

	switch {
	case err == nil:
	case isUniqueViolation(err):
		return nil, errors.NewWithReason(errors.ErrConflict,
			fmt.Sprintf("%s %s already exists", props.Kind, props.Name))
	default:
		return nil, errors.New(errors.ErrIdentityStore, err)
	}

	return &Identity{
		ID:             v.(int64),
		Kind:           props.Kind,
		Name:           props.Name,
		PasswordHash:   props.PasswordHash,
		Authorisations: authorisations,
	}, nil
}

// UpdatePassword is the implementation of Store for PostgresStore
func (s *PostgresStore) UpdatePassword(ctx context.Context, kind Kind, id int64, passwordHash []byte) error {
	v, err := s.retry(ctx, func() (interface{}, error) {
		return s.querier.Exec(ctx, queryUpdatePassword, string(kind), id, passwordHash)
	})
	if err != nil {
		return errors.New(errors.ErrIdentityStore, err)
	}

	if v.(int64) == 0 {
		return errors.NewWithReason(errors.ErrNotFound, fmt.Sprintf("%s %d does not exist", kind, id))
	}

	return nil
}
