package database

import (
	"time"

	"github.com/Machai17/EG-AI/internal/catalog"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents one chat turn. The transcript is strictly append-only
// and message content never changes after creation; IDs increase in creation
// order within a transcript. Only the Favorite flag is mutable.
type Message struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// CanDeepDive marks assistant replies eligible for a deep-dive follow-up.
	// A reply produced by a deep-dive is not further divable.
	CanDeepDive bool `json:"canDeepDive,omitempty"`
	Favorite    bool `json:"isFavorite,omitempty"`
}

// UserProfile holds the identity and intake data captured at login. The
// derived phone key (calling code + digits) uniquely identifies the record.
type UserProfile struct {
	Name        string             `json:"name"`
	Phone       string             `json:"phone"`
	CountryCode string             `json:"countryCode"`
	Country     string             `json:"country"`
	Profession  catalog.Profession `json:"profession"`
}

// Settings holds the per-user preferences persisted with the record.
type Settings struct {
	Level    catalog.StudyLevel `json:"level"`
	Language catalog.Language   `json:"lang"`
}

// UserRecord is the persisted aggregate for one phone key: profile, chat
// transcript, settings and the last synchronization time in Unix milliseconds.
// Writing a record for an existing key fully replaces sessions and settings.
type UserRecord struct {
	Profile  UserProfile `json:"profile"`
	Sessions []Message   `json:"sessions"`
	Settings Settings    `json:"settings"`
	LastSync int64       `json:"lastSync"`
}
