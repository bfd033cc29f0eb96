package checkout

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrSubmissionNotFound = errors.New("submission not found")

type SubmissionStatus string

const (
	// SubmissionPending: sent, outcome unknown. A retry of the same payload reuses the key.
	SubmissionPending   SubmissionStatus = "PENDING"
	SubmissionSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionFailed    SubmissionStatus = "FAILED"
)

// Submission is one order attempt and the idempotency key it was sent with.
type Submission struct {
	IdempotencyKey string
	Fingerprint    string
	Status         SubmissionStatus
	ItemKeys       []string
	OrderID        string
	Failure        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Ledger interface {
	FindPending(ctx context.Context, fingerprint string) (*Submission, error)
	GetSubmission(ctx context.Context, key string) (*Submission, error)
	CreateSubmission(ctx context.Context, s *Submission) error
	MarkSubmitted(ctx context.Context, key, orderID string) error
	MarkFailed(ctx context.Context, key, reason string) error
	Close() error
}

// Repository is the SQL ledger. Driver is "sqlite" or "postgres".
type Repository struct {
	db     *sql.DB
	driver string
}

func NewRepository(driver, dsn string) (*Repository, error) {
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Repository{db: db, driver: driver}, nil
}

func (r *Repository) RunMigrations() error {
	var (
		driver database.Driver
		err    error
	)
	switch r.driver {
	case "postgres":
		driver, err = postgres.WithInstance(r.db, &postgres.Config{MigrationsTable: "storefront_schema_migrations"})
	default:
		driver, err = sqlite.WithInstance(r.db, &sqlite.Config{MigrationsTable: "storefront_schema_migrations"})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, r.driver, driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

const submissionColumns = `idempotency_key, fingerprint, status, item_keys, order_id, failure, created_at, updated_at`

func (r *Repository) FindPending(ctx context.Context, fingerprint string) (*Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM order_submissions
	          WHERE fingerprint = $1 AND status = $2
	          ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, fingerprint, SubmissionPending))
}

func (r *Repository) GetSubmission(ctx context.Context, key string) (*Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM order_submissions WHERE idempotency_key = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, key))
}

func (r *Repository) CreateSubmission(ctx context.Context, s *Submission) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Status == "" {
		s.Status = SubmissionPending
	}

	query := `INSERT INTO order_submissions (` + submissionColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		s.IdempotencyKey,
		s.Fingerprint,
		string(s.Status),
		strings.Join(s.ItemKeys, ","),
		nullString(s.OrderID),
		nullString(s.Failure),
		s.CreatedAt,
		s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *Repository) MarkSubmitted(ctx context.Context, key, orderID string) error {
	return r.finish(ctx, key, SubmissionSubmitted, `order_id = $2`, orderID)
}

func (r *Repository) MarkFailed(ctx context.Context, key, reason string) error {
	return r.finish(ctx, key, SubmissionFailed, `failure = $2`, reason)
}

func (r *Repository) finish(ctx context.Context, key string, status SubmissionStatus, set string, value string) error {
	query := `UPDATE order_submissions SET ` + set + `, status = $3, updated_at = $4 WHERE idempotency_key = $1`
	res, err := r.db.ExecContext(ctx, query, key, value, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark submission %s: %w", status, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func (r *Repository) scanOne(row *sql.Row) (*Submission, error) {
	var (
		s                Submission
		status, itemKeys string
		orderID, failure sql.NullString
	)
	err := row.Scan(&s.IdempotencyKey, &s.Fingerprint, &status, &itemKeys, &orderID, &failure, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}
	s.Status = SubmissionStatus(status)
	if itemKeys != "" {
		s.ItemKeys = strings.Split(itemKeys, ",")
	}
	s.OrderID = orderID.String
	s.Failure = failure.String
	return &s, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
