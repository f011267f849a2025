// Package chat drives coach conversations: one streamed exchange at a time,
// shown optimistically and committed to the profile only once the reply
// has fully arrived.
package chat

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/franckalain/wellnesscraft/internal/apperr"
	"github.com/franckalain/wellnesscraft/internal/database"
	"github.com/franckalain/wellnesscraft/internal/journal"
	"github.com/franckalain/wellnesscraft/internal/models"
)

const draftKeyPrefix = "wellnessCraft-chatDraft-"

// DraftKey is the storage key of a profile's unsent message.
func DraftKey(profileID string) string {
	return draftKeyPrefix + profileID
}

var (
	ErrEmptyMessage     = apperr.E(apperr.KindValidation, "chat.Submit", errors.New("message is empty"))
	ErrExchangeInFlight = apperr.E(apperr.KindConflict, "chat.Submit", errors.New("a reply is still streaming"))
	ErrNoProfile        = apperr.E(apperr.KindNotFound, "chat.Submit", errors.New("no active profile"))
	ErrSuperseded       = apperr.E(apperr.KindConflict, "chat.Submit", errors.New("exchange abandoned after profile switch"))
)

// Streamer produces the coach's reply as a sequence of text chunks.
type Streamer interface {
	StreamChatReply(ctx context.Context, details models.UserDetails, history []models.ChatContent, message string) iter.Seq2[string, error]
}

// Profiles is the slice of the profile repository the engine needs.
type Profiles interface {
	Active() (models.Profile, bool)
	Mutate(ctx context.Context, fn func(models.Profile) models.Profile) (models.Profile, bool)
}

// View is a consistent snapshot of the engine for rendering.
type View struct {
	ProfileID  string               `json:"profileId"`
	State      State                `json:"state"`
	Input      string               `json:"input"`
	Transcript []models.ChatContent `json:"transcript"`
	Streaming  string               `json:"streaming"`
	Error      string               `json:"error,omitempty"`
}

// Engine holds the chat state of the bound profile. The committed history
// lives on the profile; the engine only keeps the optimistic overlay and
// the reply being streamed.
type Engine struct {
	mu       sync.Mutex
	profiles Profiles
	streamer Streamer
	drafts   database.Store
	logger   *slog.Logger

	profileID string
	input     string
	overlay   []models.ChatContent
	buffer    strings.Builder
	state     State
	lastErr   error

	exchange uint64
	cancel   context.CancelFunc

	notify func(View)
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotify registers fn to receive a View after every state change. It
// is called without the engine lock held.
func WithNotify(fn func(View)) Option {
	return func(e *Engine) { e.notify = fn }
}

func NewEngine(profiles Profiles, streamer Streamer, drafts database.Store, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		profiles: profiles,
		streamer: streamer,
		drafts:   drafts,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) emit() {
	if e.notify != nil {
		e.notify(e.View())
	}
}

// Bind points the engine at profileID. Any exchange still streaming for
// the previous profile is cancelled and its overlay discarded; the new
// profile's draft becomes the input.
func (e *Engine) Bind(ctx context.Context, profileID string) {
	defer e.emit()
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		e.logger.Info("Cancelling in-flight chat exchange", "profile_id", e.profileID)
		e.cancel()
		e.cancel = nil
	}
	e.exchange++
	e.overlay = nil
	e.buffer.Reset()
	e.lastErr = nil
	e.profileID = profileID
	e.input = ""

	if profileID != "" {
		draft, ok, err := e.drafts.Get(ctx, DraftKey(profileID))
		if err != nil {
			e.logger.Warn("Failed to read chat draft", "error", err, "profile_id", profileID)
		} else if ok {
			e.input = draft
		}
	}
	e.state = Idle
	if e.input != "" {
		e.state = Composing
	}
}

// SetInput records the text being composed and mirrors it to the draft
// key; clearing the input removes the draft.
func (e *Engine) SetInput(ctx context.Context, text string) {
	defer e.emit()
	e.mu.Lock()
	defer e.mu.Unlock()

	e.input = text
	if !e.inFlight() {
		e.state = Idle
		if text != "" {
			e.state = Composing
		}
	}
	if e.profileID == "" {
		return
	}

	key := DraftKey(e.profileID)
	var err error
	if text == "" {
		err = e.drafts.Remove(ctx, key)
	} else {
		err = e.drafts.Set(ctx, key, text)
	}
	if err != nil {
		e.logger.Error("Failed to persist chat draft", "error", err, "profile_id", e.profileID)
	}
}

// Submit sends the current input and blocks until the exchange is
// committed or rolled back. onToken, when set, receives every chunk in
// arrival order. On failure the optimistic message is removed and the
// returned error is also kept as LastError.
func (e *Engine) Submit(ctx context.Context, onToken func(chunk string)) error {
	e.mu.Lock()
	if e.inFlight() {
		e.mu.Unlock()
		return ErrExchangeInFlight
	}
	message := e.input
	if strings.TrimSpace(message) == "" {
		e.mu.Unlock()
		return ErrEmptyMessage
	}
	p, ok := e.profiles.Active()
	if !ok || p.ID != e.profileID {
		e.mu.Unlock()
		return ErrNoProfile
	}

	history := slices.Concat(p.ChatHistory, e.overlay)
	e.overlay = append(slices.Clone(e.overlay), models.NewChatContent(models.RoleUser, message))
	e.input = ""
	e.buffer.Reset()
	e.lastErr = nil
	e.state = Sending

	exCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.exchange++
	id := e.exchange
	profileID := e.profileID
	e.mu.Unlock()

	defer cancel()
	defer e.emit()
	e.emit()
	e.logger.Debug("Chat exchange started", "profile_id", profileID, "history", len(history))

	for chunk, err := range e.streamer.StreamChatReply(exCtx, p.UserDetails, history, message) {
		if err != nil {
			return e.rollback(id, err)
		}
		e.mu.Lock()
		if e.exchange != id {
			e.mu.Unlock()
			return ErrSuperseded
		}
		e.buffer.WriteString(chunk)
		first := e.state == Sending
		e.state = Streaming
		e.mu.Unlock()

		if first {
			e.emit()
		}
		if onToken != nil {
			onToken(chunk)
		}
	}
	if err := exCtx.Err(); err != nil {
		return e.rollback(id, err)
	}
	return e.commit(ctx, id, message)
}

func (e *Engine) commit(ctx context.Context, id uint64, message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.exchange != id {
		return ErrSuperseded
	}
	reply := e.buffer.String()
	profileID := e.profileID
	committed := false
	e.profiles.Mutate(context.WithoutCancel(ctx), func(p models.Profile) models.Profile {
		if p.ID != profileID {
			return p
		}
		committed = true
		return journal.AppendExchange(p, message, reply)
	})
	if !committed {
		return e.rollbackLocked(errors.New("profile is no longer active"))
	}

	e.overlay = nil
	e.buffer.Reset()
	e.input = ""
	e.state = Committed
	e.cancel = nil
	if err := e.drafts.Remove(ctx, DraftKey(profileID)); err != nil {
		e.logger.Error("Failed to remove chat draft", "error", err, "profile_id", profileID)
	}
	e.logger.Debug("Chat exchange committed", "profile_id", profileID, "reply_bytes", len(reply))
	return nil
}

func (e *Engine) rollback(id uint64, cause error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.exchange != id {
		return ErrSuperseded
	}
	return e.rollbackLocked(cause)
}

func (e *Engine) rollbackLocked(cause error) error {
	if len(e.overlay) > 0 {
		e.overlay = e.overlay[:len(e.overlay)-1]
	}
	e.buffer.Reset()
	e.state = RolledBack
	e.cancel = nil
	e.lastErr = apperr.E(apperr.KindStream, "chat.Submit", cause)
	e.logger.Warn("Chat exchange rolled back", "error", cause, "profile_id", e.profileID)
	return e.lastErr
}

func (e *Engine) inFlight() bool {
	return e.state == Sending || e.state == Streaming
}

// Transcript returns the committed history followed by the optimistic
// overlay.
func (e *Engine) Transcript() []models.ChatContent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transcriptLocked()
}

func (e *Engine) transcriptLocked() []models.ChatContent {
	var committed []models.ChatContent
	if p, ok := e.profiles.Active(); ok && p.ID == e.profileID {
		committed = p.ChatHistory
	}
	return slices.Concat(committed, e.overlay)
}

// Streaming returns the part of the reply received so far.
func (e *Engine) Streaming() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer.String()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Input() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.input
}

// LastError returns the error of the most recent rolled back exchange.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// View returns a snapshot of everything a client renders.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		ProfileID:  e.profileID,
		State:      e.state,
		Input:      e.input,
		Transcript: e.transcriptLocked(),
		Streaming:  e.buffer.String(),
	}
	if v.Transcript == nil {
		v.Transcript = []models.ChatContent{}
	}
	if e.lastErr != nil {
		v.Error = apperr.ToResponse(e.lastErr).Message
	}
	return v
}
