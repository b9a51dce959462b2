package types

import (
	"time"

	"github.com/google/uuid"
)

// ProfileDocument is the nested document returned to the client for a
// user's displayable profile. All collection fields are rendered as
// arrays even when empty; the document is never partial.
type ProfileDocument struct {
	Profile    Profile      `json:"profile"`
	Skills     []SkillGroup `json:"skills"`
	Experience []Experience `json:"experience"`
	Projects   []Project    `json:"projects"`
	Contact    Contact      `json:"contact"`
}

type Profile struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
	Location  string `json:"location"`
}

type SkillGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

type Experience struct {
	Role       string   `json:"role"`
	Company    string   `json:"company"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Highlights []string `json:"highlights"`
}

type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TechStack   []string `json:"techStack"`
	LiveURL     string   `json:"liveUrl"`
	SourceURL   string   `json:"sourceUrl"`
}

type Contact struct {
	Email    string `json:"email"`
	GitHub   string `json:"github"`
	LinkedIn string `json:"linkedin"`
}

// UserAuth is the credential record. The password hash never leaves the
// store layer in responses.
type UserAuth struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}
