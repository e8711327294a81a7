package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/model"
)

func newAccount(email string, at time.Time) model.Account {
	return model.NewAccount(model.RoleReporter, "Rita", email, "hash", "", at)
}

func TestAccountRepo_CreateAndGet(t *testing.T) {
	reg, _ := newTestRegistry(t)
	repo, err := NewAccountRepo(reg, model.RoleReporter)
	require.NoError(t, err)
	ctx := context.Background()

	acct := newAccount("rita@example.com", time.Now())
	acct.Role = model.RoleAdmin // forced back to the repository role
	require.NoError(t, repo.Create(ctx, &acct))
	assert.Equal(t, model.RoleReporter, acct.Role)

	got, err := repo.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "rita@example.com", got.Email)
	assert.Equal(t, "hash", got.PasswordHash, "hash must survive persistence")
	assert.Equal(t, model.RoleReporter, got.Role)

	byEmail, err := repo.GetByEmail(ctx, "RITA@example.com")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, byEmail.ID)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountRepo_DuplicateEmail(t *testing.T) {
	reg, _ := newTestRegistry(t)
	repo, err := NewAccountRepo(reg, model.RoleUser)
	require.NoError(t, err)
	ctx := context.Background()

	first := newAccount("dup@example.com", time.Now())
	require.NoError(t, repo.Create(ctx, &first))

	second := newAccount("Dup@Example.com", time.Now())
	assert.ErrorIs(t, repo.Create(ctx, &second), ErrConflict)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "a rejected registration must not create a record")
}

func TestAccountRepo_StoresAreSeparate(t *testing.T) {
	reg, _ := newTestRegistry(t)
	users, err := NewAccountRepo(reg, model.RoleUser)
	require.NoError(t, err)
	reporters, err := NewAccountRepo(reg, model.RoleReporter)
	require.NoError(t, err)
	ctx := context.Background()

	u := newAccount("same@example.com", time.Now())
	require.NoError(t, users.Create(ctx, &u))
	r := newAccount("same@example.com", time.Now())
	require.NoError(t, reporters.Create(ctx, &r), "email is unique per store only")

	_, err = reporters.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountRepo_ListOrdered(t *testing.T) {
	reg, _ := newTestRegistry(t)
	repo, err := NewAccountRepo(reg, model.RoleUser)
	require.NoError(t, err)
	ctx := context.Background()

	base := time.Now()
	for i, email := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		acct := newAccount(email, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.Create(ctx, &acct))
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c@example.com", all[0].Email)
	assert.Equal(t, "b@example.com", all[2].Email)
}

func TestAccountRepo_Update(t *testing.T) {
	reg, _ := newTestRegistry(t)
	repo, err := NewAccountRepo(reg, model.RoleUser)
	require.NoError(t, err)
	ctx := context.Background()

	a := newAccount("a@example.com", time.Now())
	require.NoError(t, repo.Create(ctx, &a))
	b := newAccount("b@example.com", time.Now())
	require.NoError(t, repo.Create(ctx, &b))

	name := "Renamed"
	updated, err := repo.Update(ctx, a.ID, model.AccountPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "a@example.com", updated.Email, "unsupplied fields stay")

	taken := "b@example.com"
	_, err = repo.Update(ctx, a.ID, model.AccountPatch{Email: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	fresh := "new@example.com"
	_, err = repo.Update(ctx, a.ID, model.AccountPatch{Email: &fresh})
	require.NoError(t, err)

	_, err = repo.GetByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrNotFound, "old email must be released")
	got, err := repo.GetByEmail(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	reuse := newAccount("a@example.com", time.Now())
	assert.NoError(t, repo.Create(ctx, &reuse))

	_, err = repo.Update(ctx, uuid.New(), model.AccountPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountRepo_Delete(t *testing.T) {
	reg, _ := newTestRegistry(t)
	repo, err := NewAccountRepo(reg, model.RoleAdmin)
	require.NoError(t, err)
	ctx := context.Background()

	a := newAccount("gone@example.com", time.Now())
	require.NoError(t, repo.Create(ctx, &a))

	require.NoError(t, repo.Delete(ctx, a.ID))
	_, err = repo.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, a.ID), ErrNotFound)

	again := newAccount("gone@example.com", time.Now())
	assert.NoError(t, repo.Create(ctx, &again))
}
