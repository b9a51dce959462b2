package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-devfolio-api/internal/api"
	"github.com/FACorreiaa/go-devfolio-api/internal/types"
)

var _ Repo = (*PostgresRepo)(nil)

// Repo defines the contract for assembling a nested profile document
// from the normalized row sets owned by a user.
type Repo interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.ProfileDocument, error)
}

// DB is the subset of pgxpool.Pool the assembler needs. Narrow so tests
// can substitute a pgxmock pool.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepo struct {
	logger *slog.Logger
	db     DB
}

func NewPostgresRepo(db DB, logger *slog.Logger) *PostgresRepo {
	return &PostgresRepo{
		logger: logger,
		db:     db,
	}
}

// SkillRow is one flat skills table row.
type SkillRow struct {
	Category string
	Item     string
}

// ExperienceRow is one flat experience table row carrying a single highlight.
type ExperienceRow struct {
	Role      string
	Company   string
	StartDate string
	EndDate   string
	Highlight string
}

// GroupSkills groups flat skill rows by category, preserving the order
// in which categories first appear and the insertion order of items.
func GroupSkills(rows []SkillRow) []types.SkillGroup {
	groups := make([]types.SkillGroup, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		i, ok := index[row.Category]
		if !ok {
			i = len(groups)
			index[row.Category] = i
			groups = append(groups, types.SkillGroup{Category: row.Category, Items: []string{}})
		}
		groups[i].Items = append(groups[i].Items, row.Item)
	}
	return groups
}

// GroupExperience merges flat experience rows sharing the composite key
// (role, company, start, end) into one entry per position, appending each
// row's highlight in insertion order.
func GroupExperience(rows []ExperienceRow) []types.Experience {
	entries := make([]types.Experience, 0, len(rows))
	type key struct{ role, company, start, end string }
	index := make(map[key]int, len(rows))
	for _, row := range rows {
		k := key{row.Role, row.Company, row.StartDate, row.EndDate}
		i, ok := index[k]
		if !ok {
			i = len(entries)
			index[k] = i
			entries = append(entries, types.Experience{
				Role:       row.Role,
				Company:    row.Company,
				StartDate:  row.StartDate,
				EndDate:    row.EndDate,
				Highlights: []string{},
			})
		}
		entries[i].Highlights = append(entries[i].Highlights, row.Highlight)
	}
	return entries
}

// SplitTechStack turns the stored comma-delimited tech string into a list.
func SplitTechStack(tech string) []string {
	parts := strings.Split(tech, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetProfile reconstitutes the nested profile document from the six
// per-user row sets. Every query is a flat scan filtered by owner id;
// the result is fully populated even when child sets are empty.
func (r *PostgresRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*types.ProfileDocument, error) {
	ctx, span := otel.Tracer("ProfileRepo").Start(ctx, "GetProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetProfile"), slog.String("userID", userID.String()))

	doc := &types.ProfileDocument{
		Skills:     []types.SkillGroup{},
		Experience: []types.Experience{},
		Projects:   []types.Project{},
	}

	var name string
	err := r.db.QueryRow(ctx,
		"SELECT name FROM users WHERE id = $1", userID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("%w: fetching user: %v", api.ErrStoreUnavailable, err)
	}
	doc.Profile.Name = name

	err = r.db.QueryRow(ctx,
		"SELECT title, bio, avatar_url, location FROM profiles WHERE user_id = $1", userID).
		Scan(&doc.Profile.Title, &doc.Profile.Bio, &doc.Profile.AvatarURL, &doc.Profile.Location)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: fetching profile: %v", api.ErrStoreUnavailable, err)
	}

	skillRows, err := r.fetchSkills(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	doc.Skills = GroupSkills(skillRows)

	expRows, err := r.fetchExperience(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	doc.Experience = GroupExperience(expRows)

	projects, err := r.fetchProjects(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	doc.Projects = projects

	err = r.db.QueryRow(ctx,
		"SELECT email, github, linkedin FROM contacts WHERE user_id = $1", userID).
		Scan(&doc.Contact.Email, &doc.Contact.GitHub, &doc.Contact.LinkedIn)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: fetching contact: %v", api.ErrStoreUnavailable, err)
	}

	l.DebugContext(ctx, "Assembled profile document",
		slog.Int("skill_groups", len(doc.Skills)),
		slog.Int("experience_entries", len(doc.Experience)),
		slog.Int("projects", len(doc.Projects)),
	)
	span.SetStatus(codes.Ok, "Profile assembled")
	return doc, nil
}

func (r *PostgresRepo) fetchSkills(ctx context.Context, userID uuid.UUID) ([]SkillRow, error) {
	rows, err := r.db.Query(ctx,
		"SELECT category, item FROM skills WHERE user_id = $1 ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching skills: %v", api.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []SkillRow
	for rows.Next() {
		var row SkillRow
		if err := rows.Scan(&row.Category, &row.Item); err != nil {
			return nil, fmt.Errorf("%w: scanning skill row: %v", api.ErrStoreUnavailable, err)
		}
		out = append(out, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading skills: %v", api.ErrStoreUnavailable, err)
	}
	return out, nil
}

func (r *PostgresRepo) fetchExperience(ctx context.Context, userID uuid.UUID) ([]ExperienceRow, error) {
	rows, err := r.db.Query(ctx,
		"SELECT role, company, start_date, end_date, highlight FROM experience WHERE user_id = $1 ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching experience: %v", api.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []ExperienceRow
	for rows.Next() {
		var row ExperienceRow
		if err := rows.Scan(&row.Role, &row.Company, &row.StartDate, &row.EndDate, &row.Highlight); err != nil {
			return nil, fmt.Errorf("%w: scanning experience row: %v", api.ErrStoreUnavailable, err)
		}
		out = append(out, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading experience: %v", api.ErrStoreUnavailable, err)
	}
	return out, nil
}

func (r *PostgresRepo) fetchProjects(ctx context.Context, userID uuid.UUID) ([]types.Project, error) {
	rows, err := r.db.Query(ctx,
		"SELECT name, description, tech, live_url, source_url FROM projects WHERE user_id = $1 ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching projects: %v", api.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	out := []types.Project{}
	for rows.Next() {
		var p types.Project
		var tech string
		if err := rows.Scan(&p.Name, &p.Description, &tech, &p.LiveURL, &p.SourceURL); err != nil {
			return nil, fmt.Errorf("%w: scanning project row: %v", api.ErrStoreUnavailable, err)
		}
		p.TechStack = SplitTechStack(tech)
		out = append(out, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading projects: %v", api.ErrStoreUnavailable, err)
	}
	return out, nil
}
