package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-devfolio-api/app/metrics"
	"github.com/FACorreiaa/go-devfolio-api/internal/api"
	"github.com/FACorreiaa/go-devfolio-api/internal/api/profile"
	"github.com/FACorreiaa/go-devfolio-api/internal/types"
)

var _ Store = (*PostgresStore)(nil)

// Store is the credential store contract. Lookups are case-sensitive
// exact matches; CreateUser is atomic insert-if-absent.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*types.UserAuth, error)
	CreateUser(ctx context.Context, user types.UserAuth, doc *types.ProfileDocument) (uuid.UUID, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.ProfileDocument, error)
	Empty(ctx context.Context) (bool, error)
}

// PgxPool is the subset of pgxpool.Pool the store needs, narrowed so
// tests can substitute a pgxmock pool.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PostgresStore struct {
	logger    *slog.Logger
	pgpool    PgxPool
	assembler profile.Repo
}

func NewPostgresStore(pgpool PgxPool, logger *slog.Logger) *PostgresStore {
	metrics.InitAppMetrics()
	return &PostgresStore{
		logger:    logger,
		pgpool:    pgpool,
		assembler: profile.NewPostgresRepo(pgpool, logger),
	}
}

func (s *PostgresStore) observe(ctx context.Context, start time.Time, err error) {
	m := metrics.Get()
	m.StoreQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil && !errors.Is(err, api.ErrNotFound) && !errors.Is(err, api.ErrConflict) {
		m.StoreQueryErrorsTotal.Add(ctx, 1)
	}
}

// FindByEmail retrieves the credential record for an email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (user *types.UserAuth, err error) {
	ctx, span := otel.Tracer("AuthStore").Start(ctx, "FindByEmail", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()
	start := time.Now()
	defer func() { s.observe(ctx, start, err) }()

	var u types.UserAuth
	err = s.pgpool.QueryRow(ctx,
		"SELECT id, email, password_hash, name, created_at FROM users WHERE email = $1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = api.ErrNotFound
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		err = fmt.Errorf("%w: find user by email: %v", api.ErrStoreUnavailable, err)
		return nil, err
	}

	return &u, nil
}

// CreateUser inserts the credential record and all profile child rows in
// one transaction, so a mid-sequence failure cannot leave a user row
// without its children. A duplicate email surfaces through the UNIQUE
// constraint as ErrConflict, which also closes the check-then-act race
// between concurrent signups.
func (s *PostgresStore) CreateUser(ctx context.Context, user types.UserAuth, doc *types.ProfileDocument) (id uuid.UUID, err error) {
	ctx, span := otel.Tracer("AuthStore").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()
	start := time.Now()
	defer func() { s.observe(ctx, start, err) }()

	tx, err := s.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		err = fmt.Errorf("%w: begin transaction: %v", api.ErrStoreUnavailable, err)
		return uuid.Nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		"INSERT INTO users (email, password_hash, name) VALUES ($1, $2, $3) RETURNING id",
		user.Email, user.PasswordHash, user.Name).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			err = api.ErrConflict
			return uuid.Nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		err = fmt.Errorf("%w: insert user: %v", api.ErrStoreUnavailable, err)
		return uuid.Nil, err
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO profiles (user_id, title, bio, avatar_url, location) VALUES ($1, $2, $3, $4, $5)",
		id, doc.Profile.Title, doc.Profile.Bio, doc.Profile.AvatarURL, doc.Profile.Location)
	if err != nil {
		err = fmt.Errorf("%w: insert profile: %v", api.ErrStoreUnavailable, err)
		return uuid.Nil, err
	}

	for _, group := range doc.Skills {
		for _, item := range group.Items {
			_, err = tx.Exec(ctx,
				"INSERT INTO skills (user_id, category, item) VALUES ($1, $2, $3)",
				id, group.Category, item)
			if err != nil {
				err = fmt.Errorf("%w: insert skill: %v", api.ErrStoreUnavailable, err)
				return uuid.Nil, err
			}
		}
	}

	// One row per highlight; the assembler regroups them on read.
	for _, exp := range doc.Experience {
		for _, highlight := range exp.Highlights {
			_, err = tx.Exec(ctx,
				"INSERT INTO experience (user_id, role, company, start_date, end_date, highlight) VALUES ($1, $2, $3, $4, $5, $6)",
				id, exp.Role, exp.Company, exp.StartDate, exp.EndDate, highlight)
			if err != nil {
				err = fmt.Errorf("%w: insert experience: %v", api.ErrStoreUnavailable, err)
				return uuid.Nil, err
			}
		}
	}

	for _, p := range doc.Projects {
		_, err = tx.Exec(ctx,
			"INSERT INTO projects (user_id, name, description, tech, live_url, source_url) VALUES ($1, $2, $3, $4, $5, $6)",
			id, p.Name, p.Description, strings.Join(p.TechStack, ","), p.LiveURL, p.SourceURL)
		if err != nil {
			err = fmt.Errorf("%w: insert project: %v", api.ErrStoreUnavailable, err)
			return uuid.Nil, err
		}
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO contacts (user_id, email, github, linkedin) VALUES ($1, $2, $3, $4)",
		id, doc.Contact.Email, doc.Contact.GitHub, doc.Contact.LinkedIn)
	if err != nil {
		err = fmt.Errorf("%w: insert contact: %v", api.ErrStoreUnavailable, err)
		return uuid.Nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		err = fmt.Errorf("%w: commit transaction: %v", api.ErrStoreUnavailable, err)
		return uuid.Nil, err
	}

	s.logger.InfoContext(ctx, "User created", slog.String("userID", id.String()))
	span.SetStatus(codes.Ok, "User created")
	return id, nil
}

// GetProfile assembles the nested profile document for a user id.
func (s *PostgresStore) GetProfile(ctx context.Context, userID uuid.UUID) (doc *types.ProfileDocument, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, start, err) }()
	doc, err = s.assembler.GetProfile(ctx, userID)
	return doc, err
}

// Empty reports whether the store holds no users. Used by the seeder.
func (s *PostgresStore) Empty(ctx context.Context) (empty bool, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, start, err) }()

	var count int
	err = s.pgpool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		err = fmt.Errorf("%w: count users: %v", api.ErrStoreUnavailable, err)
		return false, err
	}
	return count == 0, nil
}
