package store

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"newsdesk/internal/model"
)

const (
	categoryPrefix     = "category:"
	categoryNamePrefix = "category-name:"
)

func categoryKey(id uuid.UUID) string   { return categoryPrefix + id.String() }
func categoryNameKey(name string) string { return categoryNamePrefix + normalizeKey(name) }

// CategoryRepo stores categories in the news store.
type CategoryRepo struct {
	db *badger.DB
}

var _ CategoryStore = (*CategoryRepo)(nil)

func NewCategoryRepo(reg *Registry) (*CategoryRepo, error) {
	db, err := reg.Get(StoreNews)
	if err != nil {
		return nil, err
	}
	return &CategoryRepo{db: db}, nil
}

// Create stores c, failing with ErrConflict if the name is taken.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		if err := claimUnique(txn, categoryNameKey(c.Name), c.ID.String()); err != nil {
			return err
		}
		return setDoc(txn, categoryKey(c.ID), c)
	})
	return commit(err, ErrConflict)
}

func (r *CategoryRepo) Get(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var c model.Category
	err := r.db.View(func(txn *badger.Txn) error {
		return getDoc(txn, categoryKey(id), &c)
	})
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// List returns every category, oldest first.
func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	err := r.db.View(func(txn *badger.Txn) error {
		return scanDocs(txn, categoryPrefix, func(val []byte) error {
			var c model.Category
			if err := json.Unmarshal(val, &c); err != nil {
				return err
			}
			categories = append(categories, c)
			return nil
		})
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].CreatedAt.Before(categories[j].CreatedAt)
	})
	return categories, nil
}

// Rename changes the category name, keeping names unique.
func (r *CategoryRepo) Rename(ctx context.Context, id uuid.UUID, name string) (*model.Category, error) {
	var c model.Category
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		if err := getDoc(txn, categoryKey(id), &c); err != nil {
			return err
		}
		if categoryNameKey(c.Name) != categoryNameKey(name) {
			if err := claimUnique(txn, categoryNameKey(name), id.String()); err != nil {
				return err
			}
			if err := txn.Delete([]byte(categoryNameKey(c.Name))); err != nil {
				return err
			}
		}
		c.Name = name
		return setDoc(txn, categoryKey(id), c)
	})
	if err := commit(err, ErrConflict); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		var c model.Category
		if err := getDoc(txn, categoryKey(id), &c); err != nil {
			return err
		}
		if err := txn.Delete([]byte(categoryNameKey(c.Name))); err != nil {
			return err
		}
		return txn.Delete([]byte(categoryKey(id)))
	})
	return commit(err, nil)
}
