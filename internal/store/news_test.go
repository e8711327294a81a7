package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/model"
)

func newTestNews(t *testing.T) (*NewsRepo, *Registry) {
	t.Helper()
	reg, _ := newTestRegistry(t)
	repo, err := NewNewsRepo(reg)
	require.NoError(t, err)
	return repo, reg
}

func publish(t *testing.T, repo *NewsRepo, title, category, reporter string, at time.Time) model.Article {
	t.Helper()
	a := model.NewArticle(title, "description", "", category, reporter, at)
	require.NoError(t, repo.Create(context.Background(), &a))
	return a
}

func titles(articles []model.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Title
	}
	return out
}

func TestNewsRepo_Create_And_Get(t *testing.T) {
	repo, reg := newTestNews(t)
	ctx := context.Background()

	a := publish(t, repo, "Hello", "", "r@example.com", time.Now())
	assert.Equal(t, model.DefaultCategory, a.Category)

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.NotNil(t, got.Comments)
	assert.Empty(t, got.Comments)

	// Badger holds the document
	db, err := reg.Get(StoreNews)
	require.NoError(t, err)
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("news:" + a.ID.String()))
		if err != nil {
			return err
		}
		val, _ := item.ValueCopy(nil)
		var stored model.Article
		require.NoError(t, json.Unmarshal(val, &stored))
		assert.Equal(t, "r@example.com", stored.ReporterEmail)
		return nil
	})
	assert.NoError(t, err)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewsRepo_ListOrdering(t *testing.T) {
	repo, _ := newTestNews(t)
	ctx := context.Background()

	base := time.Now()
	publish(t, repo, "oldest", "Tech", "a@example.com", base)
	publish(t, repo, "newest", "Sports", "b@example.com", base.Add(2*time.Second))
	publish(t, repo, "middle", "Tech", "a@example.com", base.Add(time.Second))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "middle", "oldest"}, titles(all))
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].PublishedAt.After(all[i].PublishedAt))
	}

	byReporter, err := repo.ListByReporter(ctx, "A@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"middle", "oldest"}, titles(byReporter))

	byCategory, err := repo.ListByCategory(ctx, "Tech")
	require.NoError(t, err)
	assert.Equal(t, []string{"middle", "oldest"}, titles(byCategory))

	none, err := repo.ListByCategory(ctx, "Weather")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNewsRepo_OwnershipGuardsMutation(t *testing.T) {
	repo, _ := newTestNews(t)
	ctx := context.Background()

	a := publish(t, repo, "A", "Tech", "r@x.com", time.Now())

	title := "hijacked"
	_, err := repo.UpdateOwned(ctx, a.ID, "other@x.com", model.ArticlePatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFoundOrUnauthorized)
	assert.ErrorIs(t, repo.DeleteOwned(ctx, a.ID, "other@x.com"), ErrNotFoundOrUnauthorized)
	assert.ErrorIs(t, repo.DeleteOwned(ctx, a.ID, ""), ErrNotFoundOrUnauthorized)

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title, "article must be unchanged")

	_, err = repo.UpdateOwned(ctx, uuid.New(), "r@x.com", model.ArticlePatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFoundOrUnauthorized, "missing id reads the same as a foreign one")

	title = "B"
	updated, err := repo.UpdateOwned(ctx, a.ID, "r@x.com", model.ArticlePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Title)
	assert.Equal(t, "description", updated.Description)

	require.NoError(t, repo.DeleteOwned(ctx, a.ID, "r@x.com"))
	_, err = repo.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNewsRepo_CategoryChangeMovesIndex(t *testing.T) {
	repo, _ := newTestNews(t)
	ctx := context.Background()

	a := publish(t, repo, "A", "Tech", "r@x.com", time.Now())

	category := "Science"
	_, err := repo.UpdateOwned(ctx, a.ID, "r@x.com", model.ArticlePatch{Category: &category})
	require.NoError(t, err)

	tech, err := repo.ListByCategory(ctx, "Tech")
	require.NoError(t, err)
	assert.Empty(t, tech)

	science, err := repo.ListByCategory(ctx, "Science")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, titles(science))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNewsRepo_CommentsAndReplies(t *testing.T) {
	repo, _ := newTestNews(t)
	ctx := context.Background()

	a := publish(t, repo, "A", "Tech", "r@x.com", time.Now())

	first := model.NewComment("Ann", "ann@x.com", "first!", time.Now())
	comments, err := repo.AddComment(ctx, a.ID, first)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	second := model.NewComment("Bob", "bob@x.com", "second", time.Now())
	comments, err = repo.AddComment(ctx, a.ID, second)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	reply := model.Reply{ReplierName: "Cid", ReplierEmail: "cid@x.com", Content: "agreed", CreatedAt: time.Now()}
	comment, err := repo.AddReply(ctx, a.ID, second.ID, reply)
	require.NoError(t, err)
	assert.Equal(t, second.ID, comment.ID)
	require.Len(t, comment.Replies, 1)

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Empty(t, got.Comments[0].Replies)
	require.Len(t, got.Comments[1].Replies, 1)
	assert.Equal(t, "agreed", got.Comments[1].Replies[0].Content)

	_, err = repo.AddComment(ctx, uuid.New(), first)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.AddReply(ctx, uuid.New(), second.ID, reply)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.AddReply(ctx, a.ID, uuid.New(), reply)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestNewsRepo_Reindex(t *testing.T) {
	repo, reg := newTestNews(t)
	ctx := context.Background()

	base := time.Now()
	publish(t, repo, "one", "Tech", "a@example.com", base)
	publish(t, repo, "two", "Tech", "a@example.com", base.Add(time.Second))

	// Simulate a flushed Redis plus a stray key
	rdb, err := reg.Index()
	require.NoError(t, err)
	require.NoError(t, rdb.FlushAll(ctx).Err())
	require.NoError(t, rdb.ZAdd(ctx, "newsidx:category:Ghost", redis.Z{Score: 1, Member: uuid.NewString()}).Err())

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "articles are invisible without the index")

	n, err := repo.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "one"}, titles(all))

	exists, err := rdb.Exists(ctx, "newsidx:category:Ghost").Result()
	require.NoError(t, err)
	assert.Zero(t, exists, "stale index keys are dropped")
}

func TestNewsRepo_ConcurrentComments(t *testing.T) {
	repo, _ := newTestNews(t)
	ctx := context.Background()
	a := publish(t, repo, "busy", "Tech", "r@example.com", time.Now())

	const writers = 40
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := model.NewComment("c", "c@example.com", fmt.Sprintf("comment %d", i), time.Now())
			_, err := repo.AddComment(ctx, a.ID, c)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, got.Comments, writers, "no comment may be lost")
}

func TestNewsRepo_ConcurrentReplies(t *testing.T) {
	repo, _ := newTestNews(t)
	ctx := context.Background()
	a := publish(t, repo, "busy", "Tech", "r@example.com", time.Now())
	comments, err := repo.AddComment(ctx, a.ID, model.NewComment("c", "", "first", time.Now()))
	require.NoError(t, err)
	commentID := comments[0].ID

	const writers = 20
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.AddReply(ctx, a.ID, commentID, model.Reply{
				ReplierName: "r",
				Content:     fmt.Sprintf("reply %d", i),
				CreatedAt:   time.Now(),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Len(t, got.Comments[0].Replies, writers)
}
