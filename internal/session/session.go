// Package session implements the session controller: the single mutable
// application state machine mediating view transitions, chat exchanges, and
// persistence. A controller hosts at most one active identity at a time;
// it is created empty, hydrated from storage via Restore, populated by Login,
// and emptied again by Logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Machai17/EG-AI/internal/audio"
	"github.com/Machai17/EG-AI/internal/catalog"
	"github.com/Machai17/EG-AI/internal/clinical"
	"github.com/Machai17/EG-AI/internal/database"
	"github.com/Machai17/EG-AI/internal/gemini"
)

// Mode identifies the current view of an authenticated session. Utility modes
// are reachable only from ModeChat and return only to ModeChat.
type Mode string

const (
	ModeChat         Mode = "chat"
	ModeEmergency    Mode = "emergency"
	ModeCalculator   Mode = "calculator"
	ModeMonitor      Mode = "monitor"
	ModePhytotherapy Mode = "phytotherapy"
	ModeLibrary      Mode = "library"
)

// Modes lists all valid view modes.
var Modes = []Mode{ModeChat, ModeEmergency, ModeCalculator, ModeMonitor, ModePhytotherapy, ModeLibrary}

// ParseMode validates a raw mode value against the supported set.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Controller precondition errors.
var (
	ErrNotAuthenticated  = errors.New("no active identity")
	ErrBusy              = errors.New("a request is already in flight")
	ErrEmptyInput        = errors.New("required input is empty")
	ErrInvalidTransition = errors.New("invalid mode transition")
)

// Snapshot is a consistent copy of the controller state handed to callers.
type Snapshot struct {
	Authenticated bool                  `json:"authenticated"`
	SessionID     string                `json:"sessionId,omitempty"`
	Profile       *database.UserProfile `json:"profile,omitempty"`
	Mode          Mode                  `json:"mode,omitempty"`
	Settings      database.Settings     `json:"settings"`
	Transcript    []database.Message    `json:"transcript"`
	Loading       bool                  `json:"loading"`
}

// Controller owns the in-memory session state and mediates all state
// transitions and external calls. All methods are safe for concurrent use;
// overlapping SendMessage calls are rejected by the single-flight guard
// rather than queued.
type Controller struct {
	log   *slog.Logger
	store database.Store
	ai    gemini.Client

	mu       sync.Mutex
	inFlight bool

	key        string
	sessionID  string
	profile    *database.UserProfile
	transcript []database.Message
	settings   database.Settings
	mode       Mode
	nextID     int64

	vitals clinical.VitalSigns
	rng    *rand.Rand
}

// New creates an unauthenticated controller.
func New(log *slog.Logger, store database.Store, ai gemini.Client) *Controller {
	return &Controller{
		log:    log.With("component", "session"),
		store:  store,
		ai:     ai,
		vitals: clinical.DefaultVitals(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// DeriveKey builds the unique persistence key from a country calling code and
// a raw phone input, stripping every non-digit character from the input.
func DeriveKey(callingCode, phoneInput string) string {
	var digits strings.Builder
	for _, r := range phoneInput {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return callingCode + digits.String()
}

// Restore hydrates the controller from the persisted active identity pointer.
// The persisted mapping is the sole source of truth across restarts; when the
// pointer references a missing record the controller stays unauthenticated.
func (c *Controller) Restore(ctx context.Context) error {
	key, err := c.store.ActiveIdentity(ctx)
	if err != nil {
		return fmt.Errorf("failed to read active identity: %w", err)
	}
	if key == "" {
		c.log.DebugContext(ctx, "No active identity to restore")
		return nil
	}

	record, err := c.store.GetUser(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load record for active identity: %w", err)
	}
	if record == nil {
		c.log.WarnContext(ctx, "Active identity points at a missing record, staying unauthenticated", "key", key)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	profile := record.Profile
	c.key = key
	c.sessionID = uuid.NewString()
	c.profile = &profile
	c.transcript = append([]database.Message(nil), record.Sessions...)
	c.settings = record.Settings
	c.mode = ModeChat
	c.nextID = 1
	if n := len(c.transcript); n > 0 {
		c.nextID = c.transcript[n-1].ID + 1
	}

	c.log.InfoContext(ctx, "Session restored", "key", key, "messages", len(c.transcript))
	return nil
}

// Login constructs a profile from the intake form, derives the phone key,
// persists an initial empty-session record, marks the identity active, and
// transitions to the chat view. Name and phone are required; no other
// validation is applied to the phone beyond stripping non-digit characters.
func (c *Controller) Login(ctx context.Context, name, phone, countryID, profession, language string) (Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(phone) == "" {
		return Snapshot{}, fmt.Errorf("%w: name and phone are required", ErrEmptyInput)
	}

	country, err := catalog.CountryByID(countryID)
	if err != nil {
		return Snapshot{}, err
	}
	prof, err := catalog.ParseProfession(profession)
	if err != nil {
		return Snapshot{}, err
	}
	lang, err := catalog.ParseLanguage(language)
	if err != nil {
		return Snapshot{}, err
	}

	key := DeriveKey(country.CallingCode, phone)
	profile := database.UserProfile{
		Name:        name,
		Phone:       key,
		CountryCode: country.CallingCode,
		Country:     country.Name,
		Profession:  prof,
	}
	settings := database.Settings{
		Level:    catalog.LevelIntermediate,
		Language: lang,
	}

	if _, err := c.store.SyncUser(ctx, key, profile, []database.Message{}, settings); err != nil {
		return Snapshot{}, fmt.Errorf("failed to persist initial record: %w", err)
	}

	sessionID := uuid.NewString()
	if err := c.store.SetActiveIdentity(ctx, key, sessionID); err != nil {
		return Snapshot{}, fmt.Errorf("failed to set active identity: %w", err)
	}

	c.mu.Lock()
	c.key = key
	c.sessionID = sessionID
	c.profile = &profile
	c.transcript = nil
	c.settings = settings
	c.mode = ModeChat
	c.nextID = 1
	c.vitals = clinical.DefaultVitals()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.InfoContext(ctx, "User logged in", "key", key, "profession", prof, "lang", lang)
	return snap, nil
}

// Logout clears the active identity pointer and discards the in-memory state.
// The stored record under the phone key persists indefinitely.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	authenticated := c.profile != nil
	key := c.key
	c.key = ""
	c.sessionID = ""
	c.profile = nil
	c.transcript = nil
	c.settings = database.Settings{}
	c.mode = ""
	c.nextID = 0
	c.mu.Unlock()

	if !authenticated {
		return nil
	}

	if err := c.store.ClearActiveIdentity(ctx); err != nil {
		return fmt.Errorf("failed to clear active identity: %w", err)
	}

	c.log.InfoContext(ctx, "User logged out", "key", key)
	return nil
}

// SendMessage appends the user message optimistically, invokes the AI
// gateway, appends the assistant reply, and persists the updated record.
// It rejects empty text, an unauthenticated session, and overlapping calls
// (single-flight: a second call while one is pending is dropped, not queued).
// On AI failure the optimistic user message stays in the transcript and no
// reply is appended.
func (c *Controller) SendMessage(ctx context.Context, text string, deepDive bool) (*database.Message, error) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.profile == nil {
		c.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	if text == "" {
		c.mu.Unlock()
		return nil, ErrEmptyInput
	}
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.inFlight = true

	userMsg := database.Message{
		ID:        c.nextID,
		Role:      database.RoleUser,
		Content:   text,
		Timestamp: time.Now().UTC(),
	}
	c.nextID++
	c.transcript = append(c.transcript, userMsg)
	c.mode = ModeChat

	req := gemini.ReplyRequest{
		Prompt:     text,
		UserName:   c.profile.Name,
		Profession: c.profile.Profession,
		Country:    c.profile.Country,
		Language:   c.settings.Language,
		DeepDive:   deepDive,
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	reply, err := c.ai.GenerateReply(ctx, req)
	if err != nil {
		c.log.ErrorContext(ctx, "Reply generation failed, keeping optimistic user message", "error", err)
		return nil, fmt.Errorf("reply generation failed: %w", err)
	}

	c.mu.Lock()
	assistantMsg := database.Message{
		ID:        c.nextID,
		Role:      database.RoleAssistant,
		Content:   reply.Text,
		Timestamp: time.Now().UTC(),
		// A deep-dive reply cannot itself be further deep-dived.
		CanDeepDive: !deepDive,
	}
	c.nextID++
	c.transcript = append(c.transcript, assistantMsg)

	key := c.key
	profile := *c.profile
	sessions := append([]database.Message(nil), c.transcript...)
	settings := c.settings
	c.mu.Unlock()

	if _, err := c.store.SyncUser(ctx, key, profile, sessions, settings); err != nil {
		// The exchange itself succeeded; the record catches up on the next
		// successful sync.
		c.log.ErrorContext(ctx, "Failed to persist transcript after exchange", "error", err, "key", key)
	}

	return &assistantMsg, nil
}

// StartCourseLesson issues the teaching prompt for a library course through
// the normal message pipeline.
func (c *Controller) StartCourseLesson(ctx context.Context, courseID string) (*database.Message, error) {
	course, err := catalog.CourseByID(courseID)
	if err != nil {
		return nil, err
	}
	return c.SendMessage(ctx, fmt.Sprintf("Me ensine sobre: %s", course.Title), false)
}

// ToggleFavorite flips the favorite flag on a transcript message and persists
// the updated record. A persistence failure is logged, not surfaced; the flag
// catches up on the next successful sync.
func (c *Controller) ToggleFavorite(ctx context.Context, id int64) (*database.Message, error) {
	c.mu.Lock()
	if c.profile == nil {
		c.mu.Unlock()
		return nil, ErrNotAuthenticated
	}

	idx := -1
	for i := range c.transcript {
		if c.transcript[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("message %d not found", id)
	}
	c.transcript[idx].Favorite = !c.transcript[idx].Favorite
	msg := c.transcript[idx]

	key := c.key
	profile := *c.profile
	sessions := append([]database.Message(nil), c.transcript...)
	settings := c.settings
	c.mu.Unlock()

	if _, err := c.store.SyncUser(ctx, key, profile, sessions, settings); err != nil {
		c.log.ErrorContext(ctx, "Failed to persist favorite change", "error", err, "key", key)
	}

	return &msg, nil
}

// SwitchMode performs a pure view transition. Utility views are reachable
// only from the chat view and return only to the chat view.
func (c *Controller) SwitchMode(mode Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.profile == nil {
		return ErrNotAuthenticated
	}
	if mode != ModeChat && c.mode != ModeChat {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.mode, mode)
	}

	c.mode = mode
	return nil
}

// SetLanguage updates the session language. The change is persisted with the
// next completed exchange.
func (c *Controller) SetLanguage(lang catalog.Language) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.profile == nil {
		return ErrNotAuthenticated
	}
	c.settings.Language = lang
	return nil
}

// SetLevel updates the preferred study level. The change is persisted with
// the next completed exchange.
func (c *Controller) SetLevel(level catalog.StudyLevel) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.profile == nil {
		return ErrNotAuthenticated
	}
	c.settings.Level = level
	return nil
}

// RequestSpeech synthesizes speech for text in the session language and
// returns playable WAV bytes. It is independent of the message pipeline and
// is not guarded by the single-flight gate; failures are logged and surfaced
// only as "no audio".
func (c *Controller) RequestSpeech(ctx context.Context, text string) ([]byte, error) {
	c.mu.Lock()
	if c.profile == nil {
		c.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	lang := c.settings.Language
	c.mu.Unlock()

	pcm, err := c.ai.SynthesizeSpeech(ctx, text, lang)
	if err != nil {
		c.log.ErrorContext(ctx, "Speech synthesis failed", "error", err)
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}

	return audio.WrapPCM(pcm), nil
}

// Vitals returns the current simulated vital-signs snapshot.
func (c *Controller) Vitals() clinical.VitalSigns {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vitals
}

// RefreshVitals advances the simulated vital-signs snapshot. It is invoked by
// the scheduler.
func (c *Controller) RefreshVitals() clinical.VitalSigns {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vitals = clinical.Drift(c.vitals, c.rng)
	return c.vitals
}

// Snapshot returns a consistent copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Authenticated: c.profile != nil,
		SessionID:     c.sessionID,
		Mode:          c.mode,
		Settings:      c.settings,
		Transcript:    append([]database.Message(nil), c.transcript...),
		Loading:       c.inFlight,
	}
	if c.profile != nil {
		profile := *c.profile
		snap.Profile = &profile
	}
	return snap
}
