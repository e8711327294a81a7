package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"newsdesk/internal/model"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("already exists")
	ErrNotFoundOrUnauthorized = errors.New("not found or unauthorized")
	ErrCommentNotFound        = errors.New("comment not found")
	ErrNotConnected           = errors.New("store not connected")
)

// AccountStore persists the accounts of a single role. Email is unique
// within the store.
type AccountStore interface {
	Create(ctx context.Context, acct *model.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
	Update(ctx context.Context, id uuid.UUID, patch model.AccountPatch) (*model.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryStore persists categories. Name is unique.
type CategoryStore interface {
	Create(ctx context.Context, c *model.Category) error
	Get(ctx context.Context, id uuid.UUID) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*model.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewsStore persists articles with their embedded comments. Mutations by id
// are filtered on the author email; a miss is ErrNotFoundOrUnauthorized.
// Listings are ordered newest first.
type NewsStore interface {
	Create(ctx context.Context, a *model.Article) error
	Get(ctx context.Context, id uuid.UUID) (*model.Article, error)
	UpdateOwned(ctx context.Context, id uuid.UUID, authorEmail string, patch model.ArticlePatch) (*model.Article, error)
	DeleteOwned(ctx context.Context, id uuid.UUID, authorEmail string) error
	List(ctx context.Context) ([]model.Article, error)
	ListByReporter(ctx context.Context, email string) ([]model.Article, error)
	ListByCategory(ctx context.Context, category string) ([]model.Article, error)
	AddComment(ctx context.Context, id uuid.UUID, c model.Comment) ([]model.Comment, error)
	AddReply(ctx context.Context, id, commentID uuid.UUID, r model.Reply) (*model.Comment, error)
}
