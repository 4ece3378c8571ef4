package store

import (
	"context"
	"testing"
	"time"

	"zugzwang/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUsers(t *testing.T, m *Memory, logins ...string) []models.User {
	t.Helper()
	out := make([]models.User, 0, len(logins))
	for _, login := range logins {
		u := models.User{Login: login, Email: login + "@example.com"}
		require.NoError(t, m.CreateUser(context.Background(), &u))
		out = append(out, u)
	}
	return out
}

func TestMemoryUsersAreUnique(t *testing.T) {
	m := NewMemory()
	seedUsers(t, m, "alice")

	err := m.CreateUser(context.Background(), &models.User{Login: "alice"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = m.GetUser(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReactionsOneRowPerUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	users := seedUsers(t, m, "a", "b")
	p := &models.Post{AuthorID: users[0].ID, Title: "t"}
	require.NoError(t, m.CreatePost(ctx, p, nil))
	target := models.PostTarget(p.ID)

	require.NoError(t, m.SetReaction(ctx, target, users[0].ID, models.ReactionLike))
	require.NoError(t, m.SetReaction(ctx, target, users[0].ID, models.ReactionDislike))
	require.NoError(t, m.SetReaction(ctx, target, users[1].ID, models.ReactionDislike))

	counts, err := m.CountsFor(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, models.Counts{Like: 0, Dislike: 2}, counts)

	removed, err := m.RemoveReaction(ctx, target, users[0].ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = m.RemoveReaction(ctx, target, users[0].ID)
	require.NoError(t, err)
	assert.False(t, removed)

	assert.ErrorIs(t, m.SetReaction(ctx, models.CommentTarget(5), users[0].ID, models.ReactionLike), ErrNotFound)
}

func TestMemoryBlocks(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	users := seedUsers(t, m, "a", "b")
	a, b := users[0].ID, users[1].ID

	n, err := m.Block(ctx, a, a)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = m.Block(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ab, _ := m.IsBlockedEither(ctx, a, b)
	ba, _ := m.IsBlockedEither(ctx, b, a)
	assert.True(t, ab)
	assert.True(t, ba)

	n, err = m.Unblock(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = m.Unblock(ctx, a, b)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryQueryPostsMatchesCount(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	users := seedUsers(t, m, "a", "b", "c")
	a, b, c := users[0], users[1], users[2]
	require.NoError(t, m.CreateCategory(ctx, &models.Category{Name: "general"}))

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, author := range []models.User{a, b, c, a, b} {
		p := &models.Post{AuthorID: author.ID, Title: "post", CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, m.CreatePost(ctx, p, []uint{1}))
	}
	hidden := &models.Post{AuthorID: c.ID, Title: "hidden", Status: models.StatusInactive}
	require.NoError(t, m.CreatePost(ctx, hidden, nil))
	_, err := m.Block(ctx, b.ID, a.ID)
	require.NoError(t, err)

	viewer := models.ViewerOf(&a)
	f := PostFilter{Viewer: viewer}
	total, err := m.CountPosts(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "own two plus c's active post")

	rows, err := m.QueryPosts(ctx, PostQuery{Filter: f, Sort: models.SortDate, Order: models.OrderDesc, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0].AuthorID)
	assert.Equal(t, "a", rows[0].Author.Login)
	require.Len(t, rows[0].Categories, 1)

	owner := PostFilter{Viewer: models.ViewerOf(&c)}
	total, err = m.CountPosts(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)

	total, err = m.CountPosts(ctx, PostFilter{CategoryIDs: []uint{1}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestMemoryDeleteCascades(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	users := seedUsers(t, m, "a")
	p := &models.Post{AuthorID: users[0].ID, Title: "t"}
	require.NoError(t, m.CreatePost(ctx, p, nil))

	root := &models.Comment{PostID: p.ID, AuthorID: users[0].ID, Content: "root"}
	require.NoError(t, m.CreateComment(ctx, root))
	reply := &models.Comment{PostID: p.ID, AuthorID: users[0].ID, ParentID: &root.ID, Content: "reply"}
	require.NoError(t, m.CreateComment(ctx, reply))
	require.NoError(t, m.SetReaction(ctx, models.CommentTarget(reply.ID), users[0].ID, models.ReactionLike))
	require.NoError(t, m.AddBookmark(ctx, users[0].ID, p.ID))

	require.NoError(t, m.DeleteComment(ctx, root.ID))
	_, err := m.GetComment(ctx, reply.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.DeletePost(ctx, p.ID))
	marks, err := m.BookmarkedPosts(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Empty(t, marks)
	assert.ErrorIs(t, m.DeletePost(ctx, p.ID), ErrNotFound)
}
