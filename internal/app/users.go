package app

import (
	"context"
	"fmt"
	"time"

	"hr-go/internal/hr"
)

func (a *HRApp) resolveUser(ctx context.Context, ref string) (*hr.User, error) {
	records := a.register.Records
	u, err := records.GetUserByID(ctx, ref)
	if err != nil || u != nil {
		return u, err
	}
	u, err = records.GetUserByUsername(ctx, ref)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", ref, hr.ErrNotFound)
	}
	return u, nil
}

// AddUser creates an account.
func (a *HRApp) AddUser(ctx context.Context, u *hr.User) (*hr.User, error) {
	created, err := a.register.Records.CreateUser(ctx, u)
	a.track(err, true)
	return created, err
}

// ListUsers returns every account.
func (a *HRApp) ListUsers(ctx context.Context) ([]*hr.User, error) {
	return a.register.Records.ListUsers(ctx)
}

// GetUser returns the account identified by id or username.
func (a *HRApp) GetUser(ctx context.Context, ref string) (*hr.User, error) {
	return a.resolveUser(ctx, ref)
}

// UpdateUser applies patch to the account identified by id or username.
func (a *HRApp) UpdateUser(ctx context.Context, ref string, patch hr.Fields) (*hr.User, error) {
	u, err := a.resolveUser(ctx, ref)
	if err != nil {
		a.track(err, false)
		return nil, err
	}
	updated, err := a.register.Records.UpdateUser(ctx, u.ID, patch)
	a.track(err, true)
	return updated, err
}

// DeleteUser removes the account identified by id or username.
func (a *HRApp) DeleteUser(ctx context.Context, ref string) error {
	u, err := a.resolveUser(ctx, ref)
	if err != nil {
		a.track(err, false)
		return err
	}
	ok, err := a.register.Records.DeleteUser(ctx, u.ID)
	if err == nil && !ok {
		err = fmt.Errorf("user %s: %w", ref, hr.ErrNotFound)
	}
	a.track(err, true)
	return err
}

// Login checks credentials and stamps the last login time.
func (a *HRApp) Login(ctx context.Context, username, password string) (*hr.User, error) {
	u, err := a.register.Records.Authenticate(ctx, username, password)
	a.track(err, true)
	return u, err
}

// PublicUser is an account as shown to clients, without the password.
type PublicUser struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	FullName  string  `json:"fullName,omitempty"`
	Role      string  `json:"role"`
	Active    bool    `json:"active"`
	CreatedAt string  `json:"createdAt"`
	LastLogin *string `json:"lastLogin"`
}

// Public strips the secret from u.
func Public(u *hr.User) *PublicUser {
	p := &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.LastLogin != nil {
		s := u.LastLogin.UTC().Format(time.RFC3339)
		p.LastLogin = &s
	}
	return p
}
