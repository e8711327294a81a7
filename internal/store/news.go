package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"newsdesk/internal/model"
)

const newsPrefix = "news:"

// Redis index keys. Every set is scored by publication time in microseconds.
const (
	indexAll            = "newsidx:all"
	indexReporterPrefix = "newsidx:reporter:"
	indexCategoryPrefix = "newsidx:category:"
)

func newsKey(id uuid.UUID) string { return newsPrefix + id.String() }

func reporterIndex(email string) string    { return indexReporterPrefix + normalizeKey(email) }
func categoryIndex(category string) string { return indexCategoryPrefix + category }

func indexKeys(a *model.Article) []string {
	return []string{indexAll, reporterIndex(a.ReporterEmail), categoryIndex(a.Category)}
}

func score(a *model.Article) float64 {
	return float64(a.PublishedAt.UnixMicro())
}

// NewsRepo combines Badger (article documents) and Redis (ordering index).
// Badger is the source of truth; Reindex rebuilds Redis from it.
type NewsRepo struct {
	db  *badger.DB
	rdb *redis.Client
}

var _ NewsStore = (*NewsRepo)(nil)

func NewNewsRepo(reg *Registry) (*NewsRepo, error) {
	db, err := reg.Get(StoreNews)
	if err != nil {
		return nil, err
	}
	rdb, err := reg.Index()
	if err != nil {
		return nil, err
	}
	return &NewsRepo{db: db, rdb: rdb}, nil
}

// Create stores the article and indexes it.
func (s *NewsRepo) Create(ctx context.Context, a *model.Article) error {
	if a.Comments == nil {
		a.Comments = []model.Comment{}
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return setDoc(txn, newsKey(a.ID), a)
	})
	if err := commit(err, nil); err != nil {
		return err
	}
	return s.index(ctx, a)
}

func (s *NewsRepo) index(ctx context.Context, a *model.Article) error {
	pipe := s.rdb.Pipeline()
	for _, key := range indexKeys(a) {
		pipe.ZAdd(ctx, key, redis.Z{Score: score(a), Member: a.ID.String()})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "index article")
	}
	return nil
}

func (s *NewsRepo) unindex(ctx context.Context, a *model.Article) error {
	pipe := s.rdb.Pipeline()
	for _, key := range indexKeys(a) {
		pipe.ZRem(ctx, key, a.ID.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "unindex article")
	}
	return nil
}

func (s *NewsRepo) Get(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	var a model.Article
	err := s.db.View(func(txn *badger.Txn) error {
		return getDoc(txn, newsKey(id), &a)
	})
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// getOwned loads the article only if authorEmail wrote it.
func getOwned(txn *badger.Txn, id uuid.UUID, authorEmail string) (*model.Article, error) {
	var a model.Article
	if err := getDoc(txn, newsKey(id), &a); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFoundOrUnauthorized
		}
		return nil, err
	}
	if authorEmail == "" || !strings.EqualFold(a.ReporterEmail, strings.TrimSpace(authorEmail)) {
		return nil, ErrNotFoundOrUnauthorized
	}
	return &a, nil
}

// UpdateOwned applies patch to the article if authorEmail wrote it. The
// ownership check and the write share one transaction.
func (s *NewsRepo) UpdateOwned(ctx context.Context, id uuid.UUID, authorEmail string, patch model.ArticlePatch) (*model.Article, error) {
	var before, after *model.Article
	err := update(ctx, s.db, func(txn *badger.Txn) error {
		a, err := getOwned(txn, id, authorEmail)
		if err != nil {
			return err
		}
		prev := *a
		before = &prev
		patch.Apply(a)
		after = a
		return setDoc(txn, newsKey(id), a)
	})
	if err := commit(err, nil); err != nil {
		return nil, err
	}

	if before.Category != after.Category {
		if err := s.unindex(ctx, before); err != nil {
			return nil, err
		}
		if err := s.index(ctx, after); err != nil {
			return nil, err
		}
	}
	return after, nil
}

// DeleteOwned removes the article if authorEmail wrote it.
func (s *NewsRepo) DeleteOwned(ctx context.Context, id uuid.UUID, authorEmail string) error {
	var deleted *model.Article
	err := update(ctx, s.db, func(txn *badger.Txn) error {
		a, err := getOwned(txn, id, authorEmail)
		if err != nil {
			return err
		}
		deleted = a
		return txn.Delete([]byte(newsKey(id)))
	})
	if err := commit(err, nil); err != nil {
		return err
	}
	return s.unindex(ctx, deleted)
}

func (s *NewsRepo) List(ctx context.Context) ([]model.Article, error) {
	return s.listIndex(ctx, indexAll)
}

func (s *NewsRepo) ListByReporter(ctx context.Context, email string) ([]model.Article, error) {
	return s.listIndex(ctx, reporterIndex(email))
}

func (s *NewsRepo) ListByCategory(ctx context.Context, category string) ([]model.Article, error) {
	return s.listIndex(ctx, categoryIndex(category))
}

// listIndex fetches the articles named by a Redis index, newest first. Index
// entries whose document is gone are skipped.
func (s *NewsRepo) listIndex(ctx context.Context, key string) ([]model.Article, error) {
	ids, err := s.rdb.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "read index %s", key)
	}

	articles := make([]model.Article, 0, len(ids))
	err = s.db.View(func(txn *badger.Txn) error {
		for _, idStr := range ids {
			id, err := uuid.Parse(idStr)
			if err != nil {
				continue
			}
			var a model.Article
			err = getDoc(txn, newsKey(id), &a)
			if errors.Is(err, ErrNotFound) {
				continue
			} else if err != nil {
				return err
			}
			articles = append(articles, a)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return articles, nil
}

// AddComment appends c to the article's comments and returns them all.
func (s *NewsRepo) AddComment(ctx context.Context, id uuid.UUID, c model.Comment) ([]model.Comment, error) {
	if c.Replies == nil {
		c.Replies = []model.Reply{}
	}
	var comments []model.Comment
	err := update(ctx, s.db, func(txn *badger.Txn) error {
		var a model.Article
		if err := getDoc(txn, newsKey(id), &a); err != nil {
			return err
		}
		a.Comments = append(a.Comments, c)
		comments = a.Comments
		return setDoc(txn, newsKey(id), a)
	})
	if err := commit(err, nil); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddReply appends r to the comment commentID of the article. A missing
// article is ErrNotFound, a missing comment ErrCommentNotFound.
func (s *NewsRepo) AddReply(ctx context.Context, id, commentID uuid.UUID, r model.Reply) (*model.Comment, error) {
	var comment model.Comment
	err := update(ctx, s.db, func(txn *badger.Txn) error {
		var a model.Article
		if err := getDoc(txn, newsKey(id), &a); err != nil {
			return err
		}
		i := a.FindComment(commentID)
		if i < 0 {
			return ErrCommentNotFound
		}
		a.Comments[i].Replies = append(a.Comments[i].Replies, r)
		comment = a.Comments[i]
		return setDoc(txn, newsKey(id), a)
	})
	if err := commit(err, nil); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Reindex drops every Redis index key and rebuilds the sets from the
// articles in Badger. It returns the number of articles indexed.
func (s *NewsRepo) Reindex(ctx context.Context) (int, error) {
	var articles []model.Article
	err := s.db.View(func(txn *badger.Txn) error {
		return scanDocs(txn, newsPrefix, func(val []byte) error {
			var a model.Article
			if err := json.Unmarshal(val, &a); err != nil {
				return err
			}
			articles = append(articles, a)
			return nil
		})
	})
	if err != nil {
		return 0, translate(err)
	}

	var stale []string
	iter := s.rdb.Scan(ctx, 0, "newsidx:*", 100).Iterator()
	for iter.Next(ctx) {
		stale = append(stale, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, errors.Wrap(err, "scan index keys")
	}

	if len(stale) == 0 && len(articles) == 0 {
		return 0, nil
	}

	pipe := s.rdb.TxPipeline()
	if len(stale) > 0 {
		pipe.Del(ctx, stale...)
	}
	for i := range articles {
		a := &articles[i]
		for _, key := range indexKeys(a) {
			pipe.ZAdd(ctx, key, redis.Z{Score: score(a), Member: a.ID.String()})
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errors.Wrap(err, "rebuild index")
	}
	return len(articles), nil
}
