// Package session owns the client's authentication and address-on-file state.
//
// Persisted storage is authoritative: every successful mutation is written
// through to storage before the in-memory copy changes, and Hydrate rebuilds
// memory from storage on start.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"naija-meals/internal/api"
	"naija-meals/internal/common/logger"
	"naija-meals/internal/domain"
	"naija-meals/internal/storage"
	"naija-meals/internal/validate"
)

var ErrMissingPassword = errors.New("password is required")

// Session is the client-held auth record. An empty Token means logged out.
type Session struct {
	Token      string
	HasAddress bool
	Postcode   string
}

func (s Session) Authenticated() bool { return s.Token != "" }

type AuthAPIInterface interface {
	Login(ctx context.Context, req domain.LoginRequest) (domain.AuthResponse, error)
	Register(ctx context.Context, req domain.RegisterRequest) (domain.AuthResponse, error)
	SaveAddress(ctx context.Context, addr domain.Address) error
	GetAddress(ctx context.Context) (domain.Address, error)
	LookupAddress(ctx context.Context, postcode string) ([]domain.AddressSuggestion, error)
	SendResetLink(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
}

type Manager struct {
	api   AuthAPIInterface
	store storage.Store
	log   *logger.Logger

	mu  sync.RWMutex
	cur Session
}

func NewManager(a AuthAPIInterface, store storage.Store, lg *logger.Logger) *Manager {
	if lg == nil {
		lg = logger.NewNop()
	}
	return &Manager{api: a, store: store, log: lg}
}

// Current returns a copy of the in-memory session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

// Hydrate loads the session from storage. Any read failure degrades to the
// logged-out session; it never returns an error.
func (m *Manager) Hydrate(ctx context.Context) Session {
	s, err := m.read(ctx)
	if err != nil {
		m.log.Warn("session_hydrate_failed", err, nil)
		s = Session{}
	}
	m.mu.Lock()
	m.cur = s
	m.mu.Unlock()
	return s
}

func (m *Manager) read(ctx context.Context) (Session, error) {
	token, _, err := m.store.Get(ctx, storage.KeyToken)
	if err != nil {
		return Session{}, err
	}
	hasAddress, _, err := m.store.Get(ctx, storage.KeyHasAddress)
	if err != nil {
		return Session{}, err
	}
	postcode, _, err := m.store.Get(ctx, storage.KeyPostcode)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, HasAddress: hasAddress == "true", Postcode: postcode}, nil
}

func (m *Manager) Login(ctx context.Context, email, password string) (domain.AuthResponse, error) {
	if err := validate.Email(email); err != nil {
		return domain.AuthResponse{}, err
	}
	if password == "" {
		return domain.AuthResponse{}, ErrMissingPassword
	}
	resp, err := m.api.Login(ctx, domain.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return domain.AuthResponse{}, err
	}
	if err := m.authenticated(ctx, resp); err != nil {
		return domain.AuthResponse{}, err
	}
	m.log.Info("logged_in", map[string]any{"has_address": resp.HasAddress})
	return resp, nil
}

func (m *Manager) Register(ctx context.Context, req domain.RegisterRequest) (domain.AuthResponse, error) {
	if err := validate.Email(req.Email); err != nil {
		return domain.AuthResponse{}, err
	}
	req.Email = strings.TrimSpace(req.Email)
	resp, err := m.api.Register(ctx, req)
	if err != nil {
		return domain.AuthResponse{}, err
	}
	if err := m.authenticated(ctx, resp); err != nil {
		return domain.AuthResponse{}, err
	}
	m.log.Info("registered", map[string]any{"has_address": resp.HasAddress})
	return resp, nil
}

func (m *Manager) authenticated(ctx context.Context, resp domain.AuthResponse) error {
	if resp.Token == "" {
		return errors.New("invalid response from server: missing token")
	}
	if err := m.store.Set(ctx, storage.KeyToken, resp.Token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := m.store.Set(ctx, storage.KeyHasAddress, strconv.FormatBool(resp.HasAddress)); err != nil {
		return fmt.Errorf("persist hasAddress: %w", err)
	}
	m.mu.Lock()
	m.cur.Token = resp.Token
	m.cur.HasAddress = resp.HasAddress
	m.mu.Unlock()
	return nil
}

// SaveAddress validates the postcode locally, sends the address, then marks
// the session as having an address and stores the normalized postcode.
func (m *Manager) SaveAddress(ctx context.Context, addr domain.Address) error {
	if err := validate.Postcode(addr.Postcode); err != nil {
		return err
	}
	if err := m.api.SaveAddress(ctx, addr); err != nil {
		return err
	}
	postcode := validate.NormalizePostcode(addr.Postcode)
	if err := m.store.Set(ctx, storage.KeyHasAddress, "true"); err != nil {
		return fmt.Errorf("persist hasAddress: %w", err)
	}
	if err := m.store.Set(ctx, storage.KeyPostcode, postcode); err != nil {
		return fmt.Errorf("persist postcode: %w", err)
	}
	m.mu.Lock()
	m.cur.HasAddress = true
	m.cur.Postcode = postcode
	m.mu.Unlock()
	m.log.Info("address_saved", map[string]any{"postcode": postcode})
	return nil
}

// Logout is local only: memory is always cleared, and the persisted
// session keys are removed.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.store.Remove(ctx, storage.SessionKeys...)
	m.Reset()
	if err != nil {
		return fmt.Errorf("clear persisted session: %w", err)
	}
	m.log.Info("logged_out", nil)
	return nil
}

// Reset clears memory without touching storage, for when storage has
// already been wiped (a 401 from the backend).
func (m *Manager) Reset() {
	m.mu.Lock()
	m.cur = Session{}
	m.mu.Unlock()
}

// Address returns the address on file; found is false when the backend has none.
func (m *Manager) Address(ctx context.Context) (domain.Address, bool, error) {
	addr, err := m.api.GetAddress(ctx)
	if errors.Is(err, api.ErrNotFound) {
		return domain.Address{}, false, nil
	}
	if err != nil {
		return domain.Address{}, false, err
	}
	return addr, true, nil
}

// LookupAddresses validates the postcode and asks the backend for matching addresses.
func (m *Manager) LookupAddresses(ctx context.Context, postcode string) ([]domain.AddressSuggestion, error) {
	if err := validate.Postcode(postcode); err != nil {
		return nil, err
	}
	return m.api.LookupAddress(ctx, validate.StripSpaces(postcode))
}

func (m *Manager) SendResetLink(ctx context.Context, email string) error {
	if err := validate.Email(email); err != nil {
		return err
	}
	return m.api.SendResetLink(ctx, strings.TrimSpace(email))
}

func (m *Manager) ResetPassword(ctx context.Context, email, code, password, confirm string) error {
	if err := validate.Email(email); err != nil {
		return err
	}
	if err := validate.PasswordReset(code, password, confirm); err != nil {
		return err
	}
	return m.api.ResetPassword(ctx, domain.ResetPasswordRequest{
		Email:           strings.TrimSpace(email),
		Code:            strings.TrimSpace(code),
		Password:        password,
		ConfirmPassword: confirm,
	})
}
