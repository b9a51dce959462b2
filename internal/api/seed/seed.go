// Package seed inserts the fixed demo identities so the API is usable
// out of the box: alice@example.com and bob@example.com, both with
// password "password123".
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-devfolio-api/internal/api"
	"github.com/FACorreiaa/go-devfolio-api/internal/api/auth"
	"github.com/FACorreiaa/go-devfolio-api/internal/types"
)

const demoPassword = "password123"

// Run seeds the demo identities when the store is empty. Safe to call on
// every boot; a non-empty store is left untouched.
func Run(ctx context.Context, store auth.Store, logger *slog.Logger) error {
	empty, err := store.Empty(ctx)
	if err != nil {
		return fmt.Errorf("seed: checking store: %w", err)
	}
	if !empty {
		logger.InfoContext(ctx, "Store already populated, skipping demo seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed: hashing demo password: %w", err)
	}

	for _, identity := range demoIdentities() {
		user := types.UserAuth{
			Email:        identity.email,
			PasswordHash: string(hash),
			Name:         identity.doc.Profile.Name,
		}
		if _, err := store.CreateUser(ctx, user, identity.doc); err != nil {
			// Another replica may have seeded between the check and the insert.
			if errors.Is(err, api.ErrConflict) {
				continue
			}
			return fmt.Errorf("seed: creating %s: %w", identity.email, err)
		}
		logger.InfoContext(ctx, "Seeded demo identity", slog.String("email", identity.email))
	}
	return nil
}

type demoIdentity struct {
	email string
	doc   *types.ProfileDocument
}

func demoIdentities() []demoIdentity {
	return []demoIdentity{
		{
			email: "alice@example.com",
			doc: &types.ProfileDocument{
				Profile: types.Profile{
					Name:     "Alice Example",
					Title:    "Frontend Developer",
					Bio:      "Passionate about building beautiful UIs.",
					Location: "Wonderland",
				},
				Skills: []types.SkillGroup{
					{Category: "Frontend", Items: []string{"React", "Next.js", "TypeScript"}},
					{Category: "Testing", Items: []string{"Playwright", "Jest"}},
				},
				Experience: []types.Experience{
					{
						Role:       "Frontend Developer",
						Company:    "Wonderland Inc.",
						StartDate:  "2021-06",
						EndDate:    "Present",
						Highlights: []string{"Built a magical UI.", "Improved performance by 50%."},
					},
				},
				Projects: []types.Project{
					{
						Name:        "Rabbit Hole",
						Description: "A project for tracking time.",
						TechStack:   []string{"React", "Node.js"},
						LiveURL:     "https://rabbit.example.com",
						SourceURL:   "https://github.com/alice/rabbit-hole",
					},
				},
				Contact: types.Contact{
					Email:    "alice@example.com",
					GitHub:   "https://github.com/alice",
					LinkedIn: "https://linkedin.com/in/alice",
				},
			},
		},
		{
			email: "bob@example.com",
			doc: &types.ProfileDocument{
				Profile: types.Profile{
					Name:     "Bob Example",
					Title:    "Backend Developer",
					Bio:      "Loves scalable systems and APIs.",
					Location: "Builderland",
				},
				Skills: []types.SkillGroup{
					{Category: "Backend", Items: []string{"Node.js", "Express"}},
					{Category: "Testing", Items: []string{"Jest"}},
				},
				Experience: []types.Experience{
					{
						Role:       "Backend Developer",
						Company:    "Builderland LLC",
						StartDate:  "2020-01",
						EndDate:    "Present",
						Highlights: []string{"Designed REST APIs.", "Optimized database queries."},
					},
				},
				Projects: []types.Project{
					{
						Name:        "Builder API",
						Description: "API for construction management.",
						TechStack:   []string{"Node.js", "Express"},
						LiveURL:     "https://builder.example.com",
						SourceURL:   "https://github.com/bob/builder-api",
					},
				},
				Contact: types.Contact{
					Email:    "bob@example.com",
					GitHub:   "https://github.com/bob",
					LinkedIn: "https://linkedin.com/in/bob",
				},
			},
		},
	}
}
