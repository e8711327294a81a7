package store

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"newsdesk/internal/model"
)

const (
	accountPrefix = "account:"
	emailPrefix   = "email:"
)

// accountRecord is the stored shape of an account. model.Account hides the
// password hash from JSON, so persistence uses its own type.
type accountRecord struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	Role         model.Role `json:"role"`
	ProfilePic   string     `json:"profile_pic"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toRecord(a *model.Account) accountRecord {
	return accountRecord{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         a.Role,
		ProfilePic:   a.ProfilePic,
		CreatedAt:    a.CreatedAt,
	}
}

func (r accountRecord) account() *model.Account {
	return &model.Account{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		ProfilePic:   r.ProfilePic,
		CreatedAt:    r.CreatedAt,
	}
}

func accountKey(id uuid.UUID) string { return accountPrefix + id.String() }
func emailKey(email string) string   { return emailPrefix + normalizeKey(email) }

// AccountRepo stores the accounts of one role in that role's Badger store.
type AccountRepo struct {
	db   *badger.DB
	role model.Role
}

var _ AccountStore = (*AccountRepo)(nil)

// NewAccountRepo binds a repository for role to its store in the registry.
func NewAccountRepo(reg *Registry, role model.Role) (*AccountRepo, error) {
	name, err := StoreFor(role)
	if err != nil {
		return nil, err
	}
	db, err := reg.Get(name)
	if err != nil {
		return nil, err
	}
	return &AccountRepo{db: db, role: role}, nil
}

// Role is the role every account in this repository has.
func (r *AccountRepo) Role() model.Role { return r.role }

// Create stores acct, failing with ErrConflict if its email is taken. The
// account role is forced to the repository role.
func (r *AccountRepo) Create(ctx context.Context, acct *model.Account) error {
	acct.Role = r.role
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		if err := claimUnique(txn, emailKey(acct.Email), acct.ID.String()); err != nil {
			return err
		}
		return setDoc(txn, accountKey(acct.ID), toRecord(acct))
	})
	return commit(err, ErrConflict)
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var rec accountRecord
	err := r.db.View(func(txn *badger.Txn) error {
		return getDoc(txn, accountKey(id), &rec)
	})
	if err != nil {
		return nil, translate(err)
	}
	return rec.account(), nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var rec accountRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(emailKey(email)))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getDoc(txn, accountPrefix+string(id), &rec)
	})
	if err != nil {
		return nil, translate(err)
	}
	return rec.account(), nil
}

// List returns every account, oldest first.
func (r *AccountRepo) List(ctx context.Context) ([]model.Account, error) {
	accounts := []model.Account{}
	err := r.db.View(func(txn *badger.Txn) error {
		return scanDocs(txn, accountPrefix, func(val []byte) error {
			var rec accountRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			accounts = append(accounts, *rec.account())
			return nil
		})
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// Update applies patch to the account. Changing the email re-checks
// uniqueness and releases the old address.
func (r *AccountRepo) Update(ctx context.Context, id uuid.UUID, patch model.AccountPatch) (*model.Account, error) {
	var updated *model.Account
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		var rec accountRecord
		if err := getDoc(txn, accountKey(id), &rec); err != nil {
			return err
		}
		acct := rec.account()
		oldEmail := acct.Email
		patch.Apply(acct)

		if emailKey(oldEmail) != emailKey(acct.Email) {
			if err := claimUnique(txn, emailKey(acct.Email), id.String()); err != nil {
				return err
			}
			if err := txn.Delete([]byte(emailKey(oldEmail))); err != nil {
				return err
			}
		}

		if err := setDoc(txn, accountKey(id), toRecord(acct)); err != nil {
			return err
		}
		updated = acct
		return nil
	})
	if err := commit(err, ErrConflict); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *AccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		var rec accountRecord
		if err := getDoc(txn, accountKey(id), &rec); err != nil {
			return err
		}
		if err := txn.Delete([]byte(emailKey(rec.Email))); err != nil {
			return err
		}
		return txn.Delete([]byte(accountKey(id)))
	})
	return commit(err, nil)
}
