package hr

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const maskedPassword = "***"

// userSystemKeys are assigned by the store and ignored in user patches.
var userSystemKeys = map[string]bool{"id": true, "createdAt": true}

// normalizeUsername returns the canonical form used to compare usernames.
func normalizeUsername(username string) string {
	return norm.NFC.String(strings.TrimSpace(username))
}

// CreateUser stores a new account. The id, creation time and last login are assigned by the
// store. Returns ErrDuplicateUsername when another account has the same username.
func (s *RecordStore) CreateUser(ctx context.Context, u *User) (*User, error) {
	user := u.Clone()
	user.Username = normalizeUsername(user.Username)
	if user.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidFormat)
	}

	s.userMu.Lock()
	defer s.userMu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if indexOfUsername(users, user.Username, "") >= 0 {
		return nil, fmt.Errorf("user %q: %w", user.Username, ErrDuplicateUsername)
	}

	user.ID = s.idgen.New()
	user.CreatedAt = s.clock.Now()
	user.LastLogin = nil

	if err := saveJSON(ctx, s.kv, CollectionUsers, append(users, user)); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	s.record(ctx, ActionCreate, EntityUser, user.ID, nil, maskedSnapshot(user))

	s.logger.Info("user created", "id", user.ID, "username", user.Username)
	return user.Clone(), nil
}

// UpdateUser applies patch to the account with the given id, with the same merge rules as
// Update. Returns ErrNotFound for an unknown id and ErrDuplicateUsername when the patch
// renames the account onto an existing username.
func (s *RecordStore) UpdateUser(ctx context.Context, id string, patch Fields) (*User, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfUser(users, id)
	if idx < 0 {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	old := users[idx].Clone()
	base, err := json.Marshal(old)
	if err != nil {
		return nil, fmt.Errorf("encoding user %s: %w", id, err)
	}
	merged, err := mergePatch(base, patch, userSystemKeys)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	updated := &User{}
	if err := decodeInto(merged, updated); err != nil {
		return nil, err
	}
	updated.Username = normalizeUsername(updated.Username)
	if updated.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidFormat)
	}
	if indexOfUsername(users, updated.Username, id) >= 0 {
		return nil, fmt.Errorf("user %q: %w", updated.Username, ErrDuplicateUsername)
	}
	users[idx] = updated

	if err := saveJSON(ctx, s.kv, CollectionUsers, users); err != nil {
		return nil, fmt.Errorf("updating user %s: %w", id, err)
	}
	s.record(ctx, ActionUpdate, EntityUser, id, maskedSnapshot(old), maskedSnapshot(updated))

	s.logger.Info("user updated", "id", id)
	return updated.Clone(), nil
}

// DeleteUser removes the account with the given id. It reports false when no such
// account exists.
func (s *RecordStore) DeleteUser(ctx context.Context, id string) (bool, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return false, err
	}
	idx := indexOfUser(users, id)
	if idx < 0 {
		return false, nil
	}
	removed := users[idx]
	users = append(users[:idx], users[idx+1:]...)

	if err := saveJSON(ctx, s.kv, CollectionUsers, users); err != nil {
		return false, fmt.Errorf("deleting user %s: %w", id, err)
	}
	s.record(ctx, ActionDelete, EntityUser, id, maskedSnapshot(removed), nil)

	s.logger.Info("user deleted", "id", id, "username", removed.Username)
	return true, nil
}

// GetUserByID returns the account with the given id, or nil if none exists.
func (s *RecordStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOfUser(users, id); idx >= 0 {
		return users[idx], nil
	}
	return nil, nil
}

// GetUserByUsername returns the account with the given username, or nil if none exists.
func (s *RecordStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOfUsername(users, normalizeUsername(username), ""); idx >= 0 {
		return users[idx], nil
	}
	return nil, nil
}

// ListUsers returns every account in insertion order.
func (s *RecordStore) ListUsers(ctx context.Context) ([]*User, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	return s.loadUsers(ctx)
}

// SeedUsers writes users as the initial account list when no user collection exists yet.
// Seeding is not audited. It reports whether anything was written.
func (s *RecordStore) SeedUsers(ctx context.Context, users []*User) (bool, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	var existing []*User
	found, err := loadJSON(ctx, s.kv, CollectionUsers, &existing)
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}

	seeded := make([]*User, 0, len(users))
	for _, u := range users {
		c := u.Clone()
		c.Username = normalizeUsername(c.Username)
		if c.ID == "" {
			c.ID = s.idgen.New()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = s.clock.Now()
		}
		seeded = append(seeded, c)
	}
	if err := saveJSON(ctx, s.kv, CollectionUsers, seeded); err != nil {
		return false, fmt.Errorf("seeding users: %w", err)
	}
	return true, nil
}

// Authenticate checks username and password against the stored accounts and stamps the
// account's last login time. It returns ErrInvalidCredentials for an unknown username or a
// wrong password and ErrUserInactive for a deactivated account.
func (s *RecordStore) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
		s.logger.Warn("login rejected", "username", username)
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		s.logger.Warn("login rejected for inactive user", "username", user.Username)
		return nil, ErrUserInactive
	}

	updated, err := s.UpdateUser(WithActor(ctx, user.Username), user.ID, Fields{"lastLogin": s.clock.Now()})
	if err != nil {
		return nil, fmt.Errorf("recording login: %w", err)
	}
	return updated, nil
}

func (s *RecordStore) loadUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	if _, err := loadJSON(ctx, s.kv, CollectionUsers, &users); err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	return users, nil
}

// maskedSnapshot encodes u for the audit ledger with the password hidden.
func maskedSnapshot(u *User) json.RawMessage {
	c := u.Clone()
	c.Password = maskedPassword
	return snapshot(c)
}

func indexOfUser(users []*User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// indexOfUsername finds username among users, skipping the account with id exceptID.
func indexOfUsername(users []*User, username, exceptID string) int {
	for i, u := range users {
		if u.ID != exceptID && normalizeUsername(u.Username) == username {
			return i
		}
	}
	return -1
}
