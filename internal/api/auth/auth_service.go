package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-devfolio-api/app/metrics"
	"github.com/FACorreiaa/go-devfolio-api/internal/api"
	"github.com/FACorreiaa/go-devfolio-api/internal/types"
)

var _ AuthService = (*ServiceImpl)(nil)

type AuthService interface {
	// Login authenticates a credential pair and returns an access token.
	Login(ctx context.Context, email, password string) (string, error)
	// Register creates a new user with a full profile document and
	// returns an access token for it.
	Register(ctx context.Context, req types.SignupRequest) (string, error)
	// CurrentProfile resolves the profile document for a verified identity.
	CurrentProfile(ctx context.Context, userID string) (*types.ProfileDocument, error)
}

type ServiceImpl struct {
	store  Store
	tokens *TokenService
	logger *slog.Logger

	// Profiles are immutable after signup in this system, so cached
	// documents cannot go stale within the TTL.
	profileCache *cache.Cache
}

func NewAuthService(store Store, tokens *TokenService, logger *slog.Logger) *ServiceImpl {
	metrics.InitAppMetrics()
	return &ServiceImpl{
		store:        store,
		tokens:       tokens,
		logger:       logger,
		profileCache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Login validates the credential pair against the store. Unknown email
// and wrong password both surface as ErrUnauthenticated.
func (s *ServiceImpl) Login(ctx context.Context, email, password string) (string, error) {
	l := s.logger.With(slog.String("method", "Login"), slog.String("email", email))
	metrics.Get().LoginRequestsTotal.Add(ctx, 1)

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			l.WarnContext(ctx, "Login attempt for unknown email")
			return "", api.ErrUnauthenticated
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		l.WarnContext(ctx, "Login attempt with wrong password")
		return "", api.ErrUnauthenticated
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	l.InfoContext(ctx, "Login successful", slog.String("userID", user.ID.String()))
	return token, nil
}

// Register hashes the password, fills any omitted profile sections with
// starter defaults and inserts the user atomically. A duplicate email
// surfaces as ErrConflict.
func (s *ServiceImpl) Register(ctx context.Context, req types.SignupRequest) (string, error) {
	l := s.logger.With(slog.String("method", "Register"), slog.String("email", req.Email))
	metrics.Get().SignupRequestsTotal.Add(ctx, 1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := types.UserAuth{
		Email:        req.Email,
		PasswordHash: string(hashed),
		Name:         req.Profile.Name,
	}

	id, err := s.store.CreateUser(ctx, user, buildDocument(req))
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			l.WarnContext(ctx, "Signup with already registered email")
		}
		return "", err
	}

	token, err := s.tokens.Issue(id, req.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	l.InfoContext(ctx, "Signup successful", slog.String("userID", id.String()))
	return token, nil
}

// CurrentProfile resolves the document for a token's user id, consulting
// the read cache first. An unresolvable identity is an auth failure, not
// an occasion for placeholder content.
func (s *ServiceImpl) CurrentProfile(ctx context.Context, userID string) (*types.ProfileDocument, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, api.ErrUnauthenticated
	}

	if cached, found := s.profileCache.Get(userID); found {
		if doc, ok := cached.(*types.ProfileDocument); ok {
			return doc, nil
		}
	}

	doc, err := s.store.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			s.logger.WarnContext(ctx, "Token references a user absent from the store",
				slog.String("userID", userID))
			return nil, api.ErrUnauthenticated
		}
		return nil, err
	}

	s.profileCache.Set(userID, doc, cache.DefaultExpiration)
	return doc, nil
}

// buildDocument applies the signup starter defaults for omitted sections.
func buildDocument(req types.SignupRequest) *types.ProfileDocument {
	doc := &types.ProfileDocument{
		Profile: types.Profile{
			Name:      req.Profile.Name,
			Title:     req.Profile.Title,
			Bio:       req.Profile.Bio,
			AvatarURL: req.Profile.AvatarURL,
			Location:  req.Profile.Location,
		},
		Skills:     req.Skills,
		Experience: req.Experience,
		Projects:   req.Projects,
	}

	if req.Contact != nil {
		doc.Contact = *req.Contact
	}
	// Contact email always mirrors the signup email.
	doc.Contact.Email = req.Email

	if doc.Skills == nil {
		doc.Skills = []types.SkillGroup{
			{Category: "Frontend", Items: []string{"React", "Next.js", "TypeScript"}},
		}
	}
	if doc.Experience == nil {
		role := req.Profile.Title
		if role == "" {
			role = "Software Engineer"
		}
		doc.Experience = []types.Experience{
			{
				Role:       role,
				Company:    "New Company",
				StartDate:  "2024-01",
				EndDate:    "Present",
				Highlights: []string{"Getting started in the industry."},
			},
		}
	}
	if doc.Projects == nil {
		doc.Projects = []types.Project{
			{
				Name:        "Portfolio Project",
				Description: "My first portfolio website.",
				TechStack:   []string{"React", "TypeScript"},
				LiveURL:     "",
				SourceURL:   doc.Contact.GitHub,
			},
		}
	}

	return doc
}
