package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/avelinelabs/boutiq/internal/gateway"
	"github.com/avelinelabs/boutiq/internal/statestore"
	pkgerrors "github.com/avelinelabs/boutiq/pkg/errors"
	"github.com/avelinelabs/boutiq/pkg/logger"
	"github.com/avelinelabs/boutiq/pkg/validate"
)

// Phase tracks the session lifecycle: restored-but-unchecked state is
// Unverified until the backend confirms or rejects the persisted token.
type Phase string

const (
	PhaseAnonymous  Phase = "anonymous"
	PhaseUnverified Phase = "unverified"
	PhaseVerified   Phase = "verified"
)

type backendAPI interface {
	Authenticate(ctx context.Context, identifier, secret string) (string, error)
	CurrentProfile(ctx context.Context) (*gateway.Profile, error)
	CreateAccount(ctx context.Context, input gateway.AccountInput) error
	EndSession(ctx context.Context) error
}

// Manager owns the authenticated-user identity, token persistence, and
// session restoration/invalidation. It doubles as the gateway's token source.
//
// Responses landing after a logout or clear are dropped by re-checking the
// token identity before applying them (last-response-wins).
type Manager struct {
	mu      sync.Mutex
	store   statestore.Store
	api     backendAPI
	logg    *logger.Logger
	token   string
	profile *gateway.Profile
	phase   Phase
}

// NewManager builds a session manager on the given storage. The backend is
// attached separately because the gateway itself needs the manager as its
// token source.
func NewManager(store statestore.Store, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Manager{
		store: store,
		logg:  logg,
		phase: PhaseAnonymous,
	}, nil
}

// AttachBackend wires the gateway once it has been constructed.
func (m *Manager) AttachBackend(api backendAPI) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.api = api
}

// Token implements gateway.TokenSource.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Current returns the profile (nil when unauthenticated) and the phase.
func (m *Manager) Current() (*gateway.Profile, Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile, m.phase
}

// RestoreOptimistic loads the persisted token and profile snapshot without
// touching the network. With no persisted token the session stays anonymous.
// A corrupt profile snapshot is discarded; the token alone still moves the
// session to Unverified pending reconciliation.
func (m *Manager) RestoreOptimistic(ctx context.Context) Phase {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := m.store.Get(ctx, statestore.KeyToken)
	if err != nil {
		if !errors.Is(err, statestore.ErrNotFound) {
			m.logg.Warn(ctx, "persisted token unreadable, starting anonymous")
		}
		return m.phase
	}
	token := string(raw)
	if token == "" {
		return m.phase
	}

	m.token = token
	m.phase = PhaseUnverified

	snapshot, err := m.store.Get(ctx, statestore.KeyProfile)
	if err != nil {
		return m.phase
	}
	var profile gateway.Profile
	if err := json.Unmarshal(snapshot, &profile); err != nil {
		m.logg.Warn(ctx, "persisted profile snapshot corrupt, discarding")
		if delErr := m.store.Delete(ctx, statestore.KeyProfile); delErr != nil {
			m.logg.Error(ctx, "failed to drop corrupt profile snapshot", delErr)
		}
		return m.phase
	}
	m.profile = &profile
	return m.phase
}

// Reconcile validates the restored token against the backend. On success the
// authoritative profile replaces the optimistic snapshot and is re-persisted.
// An authorization failure clears the session; any other failure keeps the
// optimistic state and is returned for the caller to log.
func (m *Manager) Reconcile(ctx context.Context) error {
	token := m.Token()
	if token == "" {
		return nil
	}
	if m.api == nil {
		return fmt.Errorf("backend not attached")
	}

	profile, err := m.api.CurrentProfile(ctx)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeAuthExpired) {
			m.HandleAuthExpired()
			return err
		}
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != token {
		// Session changed while the call was in flight, drop the result.
		return nil
	}
	m.profile = profile
	m.phase = PhaseVerified
	m.persistProfileLocked(ctx, profile)
	return nil
}

// Restore runs the optimistic phase and the reconciliation in sequence.
// Callers that must observe the optimistic state before any network wait use
// the two split methods directly.
func (m *Manager) Restore(ctx context.Context) error {
	if m.RestoreOptimistic(ctx) == PhaseAnonymous {
		return nil
	}
	return m.Reconcile(ctx)
}

// Login authenticates and resolves the authoritative profile. The two-step
// flow is atomic from the caller's view: if the profile fetch fails, the
// freshly obtained token is cleared rather than left dangling.
func (m *Manager) Login(ctx context.Context, identifier, secret string) error {
	if m.api == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "backend not attached")
	}

	token, err := m.api.Authenticate(ctx, identifier, secret)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.token = token
	if err := m.store.Put(ctx, statestore.KeyToken, []byte(token)); err != nil {
		m.logg.Error(ctx, "failed to persist token", err)
	}
	m.mu.Unlock()

	profile, err := m.api.CurrentProfile(ctx)
	if err != nil {
		m.mu.Lock()
		if m.token == token {
			m.token = ""
			m.phase = PhaseAnonymous
			m.profile = nil
			if delErr := m.store.Delete(ctx, statestore.KeyToken); delErr != nil {
				m.logg.Error(ctx, "failed to clear dangling token", delErr)
			}
		}
		m.mu.Unlock()
		return pkgerrors.Wrap(failureCode(err), err, "login could not resolve your profile")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != token {
		return pkgerrors.New(pkgerrors.CodeInternal, "session changed during login")
	}
	m.profile = profile
	m.phase = PhaseVerified
	m.persistProfileLocked(ctx, profile)
	ctx = m.logg.WithUserID(ctx, profile.ID.String())
	m.logg.Info(ctx, "login completed")
	return nil
}

// RegisterInput carries the account-creation form.
type RegisterInput struct {
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone,omitempty"`
}

// Register creates a new account. It does not authenticate the new user.
func (m *Manager) Register(ctx context.Context, input RegisterInput) error {
	if m.api == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "backend not attached")
	}
	if err := validate.Struct(input); err != nil {
		return err
	}
	if input.Password != input.ConfirmPassword {
		return pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}
	return m.api.CreateAccount(ctx, gateway.AccountInput{
		Username:  input.Username,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
	})
}

// Logout clears the session synchronously, then notifies the backend on a
// best-effort basis. Notification failures are logged and swallowed.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.clearLocked(ctx)
	api := m.api
	m.mu.Unlock()

	if api == nil {
		return
	}
	if err := api.EndSession(ctx); err != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "logout notification failed")
	}
}

// HandleAuthExpired is the gateway's auth-expired hook: it clears the session
// exactly like Logout but never notifies the backend, avoiding a notify loop.
// It is safe to call repeatedly.
func (m *Manager) HandleAuthExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" && m.profile == nil && m.phase == PhaseAnonymous {
		return
	}
	ctx := context.Background()
	m.clearLocked(ctx)
	m.logg.Info(ctx, "session cleared after authorization failure")
}

func (m *Manager) clearLocked(ctx context.Context) {
	m.token = ""
	m.profile = nil
	m.phase = PhaseAnonymous
	if err := m.store.Delete(ctx, statestore.KeyToken); err != nil {
		m.logg.Error(ctx, "failed to clear persisted token", err)
	}
	if err := m.store.Delete(ctx, statestore.KeyProfile); err != nil {
		m.logg.Error(ctx, "failed to clear persisted profile", err)
	}
}

func (m *Manager) persistProfileLocked(ctx context.Context, profile *gateway.Profile) {
	encoded, err := json.Marshal(profile)
	if err != nil {
		m.logg.Error(ctx, "failed to encode profile snapshot", err)
		return
	}
	if err := m.store.Put(ctx, statestore.KeyProfile, encoded); err != nil {
		m.logg.Error(ctx, "failed to persist profile snapshot", err)
	}
}

func failureCode(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return pkgerrors.CodeInternal
}
