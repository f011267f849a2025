// Package profile owns the set of journal profiles and the pointer to the
// active one. All profile writes go through a Repository.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/franckalain/wellnesscraft/internal/apperr"
	"github.com/franckalain/wellnesscraft/internal/database"
	"github.com/franckalain/wellnesscraft/internal/journal"
	"github.com/franckalain/wellnesscraft/internal/models"
	"github.com/franckalain/wellnesscraft/internal/schema"
)

// Storage keys. They match the layout of the browser build.
const (
	ProfilesKey = "wellnessCraftProfiles"
	ActiveIDKey = "wellnessCraftActiveProfileId"
)

const avatarBaseURL = "https://api.dicebear.com/8.x/bottts/svg?seed="

// PlanGenerator produces the plan a new profile starts with.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, details models.UserDetails) (*models.Plan, error)
}

// Repository holds profiles in memory and mirrors every committed change
// to a Store. Memory is authoritative: persistence failures are logged and
// otherwise ignored.
type Repository struct {
	mu       sync.Mutex
	store    database.Store
	planner  PlanGenerator
	logger   *slog.Logger
	now      func() time.Time
	profiles []models.Profile
	activeID string
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the clock used to date the first weight entry.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// NewRepository returns an empty repository. Call Load to read the store.
func NewRepository(store database.Store, planner PlanGenerator, logger *slog.Logger, opts ...Option) *Repository {
	r := &Repository{
		store:    store,
		planner:  planner,
		logger:   logger,
		now:      time.Now,
		profiles: []models.Profile{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces the in-memory state with what the store holds. Unreadable
// data is discarded along with both keys and the repository starts empty.
func (r *Repository) Load(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profiles, activeID, err := r.read(ctx)
	if err != nil {
		r.logger.Warn("Discarding unreadable stored profiles", "error", err)
		r.profiles = []models.Profile{}
		r.activeID = ""
		r.remove(ctx, ProfilesKey)
		r.remove(ctx, ActiveIDKey)
		return
	}
	r.profiles = profiles
	r.activeID = activeID
	r.logger.Info("Loaded profiles", "count", len(profiles), "active", activeID)
}

func (r *Repository) read(ctx context.Context) ([]models.Profile, string, error) {
	raw, ok, err := r.store.Get(ctx, ProfilesKey)
	if err != nil {
		return nil, "", apperr.E(apperr.KindStorageCorruption, "profile.Load", err)
	}
	profiles := []models.Profile{}
	if ok {
		var dropped int
		profiles, dropped, err = schema.Normalize([]byte(raw))
		if err != nil {
			return nil, "", apperr.E(apperr.KindStorageCorruption, "profile.Load", err)
		}
		if dropped > 0 {
			r.logger.Info("Dropped empty or malformed profile entries", "dropped", dropped)
		}
	}

	activeID, ok, err := r.store.Get(ctx, ActiveIDKey)
	if err != nil {
		return nil, "", apperr.E(apperr.KindStorageCorruption, "profile.Load", err)
	}
	if !ok || indexOf(profiles, activeID) < 0 {
		activeID = ""
	}
	return profiles, activeID, nil
}

// Save writes the current state to the store.
func (r *Repository) Save(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persist(ctx)
}

func (r *Repository) persist(ctx context.Context) {
	if len(r.profiles) == 0 {
		r.remove(ctx, ProfilesKey)
	} else {
		data, err := json.Marshal(r.profiles)
		if err != nil {
			r.logger.Error("Failed to encode profiles", "error", err)
			return
		}
		if err := r.store.Set(ctx, ProfilesKey, string(data)); err != nil {
			r.logger.Error("Failed to persist profiles", "error", err)
		}
	}
	if r.activeID != "" {
		if err := r.store.Set(ctx, ActiveIDKey, r.activeID); err != nil {
			r.logger.Error("Failed to persist active profile", "error", err, "profile_id", r.activeID)
		}
	}
}

func (r *Repository) remove(ctx context.Context, key string) {
	if err := r.store.Remove(ctx, key); err != nil {
		r.logger.Error("Failed to remove stored key", "error", err, "key", key)
	}
}

// Create generates a plan for details and, only if that succeeds, adds a
// new profile and makes it active. The lock is not held while the plan is
// generated.
func (r *Repository) Create(ctx context.Context, name string, details models.UserDetails) (models.Profile, error) {
	plan, err := r.planner.GeneratePlan(ctx, details)
	if err != nil {
		r.logger.Error("Plan generation failed", "error", err, "name", name)
		return models.Profile{}, apperr.E(apperr.KindGeneration, "profile.Create", err)
	}
	if plan == nil {
		return models.Profile{}, apperr.E(apperr.KindGeneration, "profile.Create", fmt.Errorf("generator returned no plan"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p := schema.NormalizeProfile(models.Profile{
		ID:          uuid.NewString(),
		Name:        name,
		Avatar:      avatarBaseURL + url.QueryEscape(name),
		UserDetails: details,
		Plan:        plan,
		Progress: []models.WeightLog{
			{Date: journal.Today(r.now()), Weight: details.Weight},
		},
	})
	r.profiles = append(r.profiles, p)
	r.activeID = p.ID
	r.persist(ctx)

	r.logger.Info("Created profile", "profile_id", p.ID)
	return p, nil
}

// Select makes the profile with id active.
func (r *Repository) Select(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if indexOf(r.profiles, id) < 0 {
		return apperr.E(apperr.KindNotFound, "profile.Select", fmt.Errorf("profile %q not found", id))
	}
	r.activeID = id
	r.persist(ctx)
	return nil
}

// Delete removes the profile with id. Deleting the active profile leaves
// no profile active.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.profiles, id)
	if i < 0 {
		return apperr.E(apperr.KindNotFound, "profile.Delete", fmt.Errorf("profile %q not found", id))
	}
	r.profiles = slices.Delete(slices.Clone(r.profiles), i, i+1)
	if r.activeID == id {
		r.activeID = ""
		r.remove(ctx, ActiveIDKey)
	}
	r.persist(ctx)
	return nil
}

// SwitchAway leaves no profile active.
func (r *Repository) SwitchAway(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.activeID = ""
	r.remove(ctx, ActiveIDKey)
}

// Mutate replaces the active profile with fn applied to it and persists
// the result. It reports false, and does nothing, when no profile is
// active. fn runs under the repository lock and must not call back into
// the repository.
func (r *Repository) Mutate(ctx context.Context, fn func(models.Profile) models.Profile) (models.Profile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.profiles, r.activeID)
	if i < 0 {
		return models.Profile{}, false
	}
	updated := fn(r.profiles[i])
	updated.ID = r.profiles[i].ID

	profiles := slices.Clone(r.profiles)
	profiles[i] = updated
	r.profiles = profiles
	r.persist(ctx)
	return updated, true
}

// Active returns the active profile.
func (r *Repository) Active() (models.Profile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.profiles, r.activeID)
	if i < 0 {
		return models.Profile{}, false
	}
	return r.profiles[i], true
}

// Profiles returns every profile in creation order.
func (r *Repository) Profiles() []models.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.profiles)
}

func (r *Repository) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

func indexOf(profiles []models.Profile, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(profiles, func(p models.Profile) bool { return p.ID == id })
}
