package chat

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franckalain/wellnesscraft/internal/apperr"
	"github.com/franckalain/wellnesscraft/internal/database"
	"github.com/franckalain/wellnesscraft/internal/logging"
	"github.com/franckalain/wellnesscraft/internal/models"
	"github.com/franckalain/wellnesscraft/internal/profile"
)

type fakeStreamer struct {
	stream func(ctx context.Context, details models.UserDetails, history []models.ChatContent, message string) iter.Seq2[string, error]
}

func (f *fakeStreamer) StreamChatReply(ctx context.Context, details models.UserDetails, history []models.ChatContent, message string) iter.Seq2[string, error] {
	return f.stream(ctx, details, history, message)
}

type fakePlanner struct{}

func (fakePlanner) GeneratePlan(context.Context, models.UserDetails) (*models.Plan, error) {
	return &models.Plan{Summary: "plan"}, nil
}

func chunks(parts ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func chunksThenFail(err error, parts ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
		yield("", err)
	}
}

type fixture struct {
	repo    *profile.Repository
	store   *database.MemoryStore
	engine  *Engine
	stream  *fakeStreamer
	profile models.Profile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := database.NewMemoryStore()
	repo := profile.NewRepository(store, fakePlanner{}, logging.Discard())
	p, err := repo.Create(ctx, "Lerato", models.UserDetails{Weight: "70"})
	require.NoError(t, err)

	stream := &fakeStreamer{stream: func(context.Context, models.UserDetails, []models.ChatContent, string) iter.Seq2[string, error] {
		return chunks("ok")
	}}
	engine := NewEngine(repo, stream, store, logging.Discard())
	engine.Bind(ctx, p.ID)
	return &fixture{repo: repo, store: store, engine: engine, stream: stream, profile: p}
}

func (f *fixture) draft(t *testing.T) (string, bool) {
	t.Helper()
	v, ok, err := f.store.Get(context.Background(), DraftKey(f.profile.ID))
	require.NoError(t, err)
	return v, ok
}

func TestSubmitCommitsExchange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stream.stream = func(_ context.Context, _ models.UserDetails, history []models.ChatContent, message string) iter.Seq2[string, error] {
		assert.Empty(t, history)
		assert.Equal(t, "What should I eat before a run?", message)
		return chunks("A ", "banana ", "works.")
	}

	f.engine.SetInput(ctx, "What should I eat before a run?")
	assert.Equal(t, Composing, f.engine.State())
	_, ok := f.draft(t)
	require.True(t, ok)

	var tokens []string
	require.NoError(t, f.engine.Submit(ctx, func(chunk string) { tokens = append(tokens, chunk) }))

	assert.Equal(t, []string{"A ", "banana ", "works."}, tokens)
	assert.Equal(t, Committed, f.engine.State())
	assert.Empty(t, f.engine.Streaming())
	assert.Empty(t, f.engine.Input())

	active, ok := f.repo.Active()
	require.True(t, ok)
	require.Len(t, active.ChatHistory, 2)
	assert.Equal(t, models.RoleUser, active.ChatHistory[0].Role)
	assert.Equal(t, "A banana works.", active.ChatHistory[1].Text())
	assert.Equal(t, active.ChatHistory, f.engine.Transcript())

	_, ok = f.draft(t)
	assert.False(t, ok, "draft removed after commit")
}

func TestSubmitSendsCommittedHistoryAsContext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.engine.SetInput(ctx, "first")
	require.NoError(t, f.engine.Submit(ctx, nil))

	var got []models.ChatContent
	f.stream.stream = func(_ context.Context, _ models.UserDetails, history []models.ChatContent, _ string) iter.Seq2[string, error] {
		got = history
		return chunks("second reply")
	}
	f.engine.SetInput(ctx, "second")
	require.NoError(t, f.engine.Submit(ctx, nil))

	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text())
	assert.Len(t, f.engine.Transcript(), 4)
}

func TestFailedStreamRestoresTranscript(t *testing.T) {
	cases := map[string]iter.Seq2[string, error]{
		"before first chunk": chunksThenFail(errors.New("connection refused")),
		"between chunks":     chunksThenFail(errors.New("stream reset"), "Try ", "oats"),
	}
	for name, seq := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			f.engine.SetInput(ctx, "warm up")
			require.NoError(t, f.engine.Submit(ctx, nil))
			before := f.engine.Transcript()

			f.stream.stream = func(context.Context, models.UserDetails, []models.ChatContent, string) iter.Seq2[string, error] {
				return seq
			}
			f.engine.SetInput(ctx, "Is coffee fine?")
			err := f.engine.Submit(ctx, nil)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.Stream)
			assert.Equal(t, before, f.engine.Transcript())
			assert.Equal(t, RolledBack, f.engine.State())
			assert.Empty(t, f.engine.Streaming())
			assert.Empty(t, f.engine.Input())
			assert.Equal(t, err, f.engine.LastError())

			active, _ := f.repo.Active()
			assert.Len(t, active.ChatHistory, 2)

			draft, ok := f.draft(t)
			assert.True(t, ok, "draft survives a failed exchange")
			assert.Equal(t, "Is coffee fine?", draft)
		})
	}
}

func TestSubmitRejectsBlankInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.engine.SetInput(ctx, "   ")
	assert.ErrorIs(t, f.engine.Submit(ctx, nil), ErrEmptyMessage)
	assert.Empty(t, f.engine.Transcript())
}

func TestSubmitSendsInputAsTyped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	typed := "  Rest day tips?\n"
	f.stream.stream = func(_ context.Context, _ models.UserDetails, _ []models.ChatContent, message string) iter.Seq2[string, error] {
		assert.Equal(t, typed, message)
		return chunks("Stretch.")
	}

	f.engine.SetInput(ctx, typed)
	require.NoError(t, f.engine.Submit(ctx, nil))

	active, ok := f.repo.Active()
	require.True(t, ok)
	require.Len(t, active.ChatHistory, 2)
	assert.Equal(t, typed, active.ChatHistory[0].Text())
}

func TestSubmitRejectsSecondExchange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	started := make(chan struct{})
	release := make(chan struct{})
	f.stream.stream = func(context.Context, models.UserDetails, []models.ChatContent, string) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			close(started)
			<-release
			yield("done", nil)
		}
	}

	f.engine.SetInput(ctx, "one")
	done := make(chan error, 1)
	go func() { done <- f.engine.Submit(ctx, nil) }()
	<-started

	assert.Equal(t, Sending, f.engine.State())
	require.Len(t, f.engine.Transcript(), 1, "optimistic message is visible")

	f.engine.SetInput(ctx, "two")
	assert.ErrorIs(t, f.engine.Submit(ctx, nil), ErrExchangeInFlight)

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("exchange did not finish")
	}
	assert.Len(t, f.engine.Transcript(), 2)
}

func TestBindCancelsInFlightExchange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other, err := f.repo.Create(ctx, "Other", models.UserDetails{Weight: "80"})
	require.NoError(t, err)
	require.NoError(t, f.store.Set(ctx, DraftKey(other.ID), "half typed"))
	require.NoError(t, f.repo.Select(ctx, f.profile.ID))
	f.engine.Bind(ctx, f.profile.ID)

	started := make(chan struct{})
	f.stream.stream = func(ctx context.Context, _ models.UserDetails, _ []models.ChatContent, _ string) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			if !yield("partial", nil) {
				return
			}
			close(started)
			<-ctx.Done()
			yield("", ctx.Err())
		}
	}

	f.engine.SetInput(ctx, "hello")
	done := make(chan error, 1)
	go func() { done <- f.engine.Submit(ctx, nil) }()
	<-started

	require.NoError(t, f.repo.Select(ctx, other.ID))
	f.engine.Bind(ctx, other.ID)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("exchange was not cancelled")
	}

	assert.Equal(t, "half typed", f.engine.Input())
	assert.Equal(t, Composing, f.engine.State())
	assert.Empty(t, f.engine.Transcript())
	assert.Empty(t, f.engine.Streaming())

	for _, p := range f.repo.Profiles() {
		assert.Empty(t, p.ChatHistory, "nothing committed for %s", p.Name)
	}
}

func TestCommitRollsBackWhenProfileIsGone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stream.stream = func(context.Context, models.UserDetails, []models.ChatContent, string) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			f.repo.SwitchAway(ctx)
			yield("reply", nil)
		}
	}

	f.engine.SetInput(ctx, "hi")
	err := f.engine.Submit(ctx, nil)
	assert.ErrorIs(t, err, apperr.Stream)
	assert.Equal(t, RolledBack, f.engine.State())
}

func TestSetInputEmptyRemovesDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.engine.SetInput(ctx, "draft")
	v, ok := f.draft(t)
	require.True(t, ok)
	assert.Equal(t, "draft", v)

	f.engine.SetInput(ctx, "")
	_, ok = f.draft(t)
	assert.False(t, ok)
	assert.Equal(t, Idle, f.engine.State())
}

func TestViewSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.engine.SetInput(ctx, "hey")

	v := f.engine.View()
	assert.Equal(t, f.profile.ID, v.ProfileID)
	assert.Equal(t, "hey", v.Input)
	assert.Equal(t, []models.ChatContent{}, v.Transcript)
	assert.Empty(t, v.Error)
}

func TestNotifyReportsTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var states []State
	var optimistic int
	engine := NewEngine(f.repo, f.stream, f.store, logging.Discard(), WithNotify(func(v View) {
		states = append(states, v.State)
		if v.State == Sending {
			optimistic = len(v.Transcript)
		}
	}))
	engine.Bind(ctx, f.profile.ID)
	engine.SetInput(ctx, "hello")
	require.NoError(t, engine.Submit(ctx, nil))

	assert.Equal(t, []State{Idle, Composing, Sending, Streaming, Committed}, states)
	assert.Equal(t, 1, optimistic, "the user message is visible while sending")
}
