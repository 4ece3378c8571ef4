package services

import (
	"testing"

	"zugzwang/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockValidation(t *testing.T) {
	f := newFixture(t)
	a := f.user("alice")

	n, err := f.mem.Block(f.ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "store treats a self block as a no-op")

	assert.Equal(t, KindValidation, KindOf(f.svc.Blocks.Block(f.ctx, a, a.ID)))
	assert.Equal(t, KindNotFound, KindOf(f.svc.Blocks.Block(f.ctx, a, 999)))
	assert.Equal(t, KindUnauthorized, KindOf(f.svc.Blocks.Block(f.ctx, models.Viewer{}, a.ID)))
}

func TestBlockIsIdempotent(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("alice"), f.user("bob")

	require.NoError(t, f.svc.Blocks.Block(f.ctx, a, b.ID))
	require.NoError(t, f.svc.Blocks.Block(f.ctx, a, b.ID))
	blocked, err := f.svc.Blocks.Blocked(f.ctx, a)
	require.NoError(t, err)
	assert.Len(t, blocked, 1)

	require.NoError(t, f.svc.Blocks.Unblock(f.ctx, a, b.ID))
	require.NoError(t, f.svc.Blocks.Unblock(f.ctx, a, b.ID))
	blocked, err = f.svc.Blocks.Blocked(f.ctx, a)
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestBlockHidesBothWays(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("alice"), f.user("bob")
	pa := f.post(a, "from alice")
	pb := f.post(b, "from bob")
	require.NoError(t, f.svc.Blocks.Block(f.ctx, a, b.ID))

	titles := func(v models.Viewer) []string {
		page, err := f.svc.Posts.Feed(f.ctx, FeedCriteria{Viewer: v, Sort: models.SortDate})
		require.NoError(t, err)
		out := make([]string, 0, len(page.Items))
		for _, p := range page.Items {
			out = append(out, p.Title)
		}
		return out
	}
	assert.Equal(t, []string{"from alice"}, titles(a))
	assert.Equal(t, []string{"from bob"}, titles(b))
	assert.ElementsMatch(t, []string{"from alice", "from bob"}, titles(models.Viewer{}))

	_, err := f.svc.Posts.Get(f.ctx, a, pb.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = f.svc.Posts.Get(f.ctx, b, pa.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	either, err := f.mem.IsBlockedEither(f.ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, either)
}

func TestBlockHidesCommentsInLists(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	a, b, c := f.user("alice"), f.user("bob"), f.user("carol")
	p := f.post(c, "open thread")
	f.comment(a, p.ID, nil)
	f.comment(b, p.ID, nil)
	require.NoError(t, f.svc.Blocks.Block(f.ctx, admin, b.ID))
	require.NoError(t, f.svc.Blocks.Block(f.ctx, a, b.ID))

	list, err := f.svc.Comments.ListForPost(f.ctx, a, p.ID, models.SortDate, models.OrderAsc)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].AuthorID)

	// lists exclude blocked authors even for admins
	list, err = f.svc.Comments.ListForPost(f.ctx, admin, p.ID, models.SortDate, models.OrderAsc)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.svc.Comments.ListForPost(f.ctx, c, p.ID, models.SortDate, models.OrderAsc)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBlockStatus(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("alice"), f.user("bob")
	require.NoError(t, f.svc.Blocks.Block(f.ctx, a, b.ID))

	st, err := f.svc.Blocks.Status(f.ctx, a, b.ID)
	require.NoError(t, err)
	assert.Equal(t, BlockStatus{TargetID: b.ID, BlockedByMe: true, BlockedEither: true}, *st)

	st, err = f.svc.Blocks.Status(f.ctx, b, a.ID)
	require.NoError(t, err)
	assert.Equal(t, BlockStatus{TargetID: a.ID, BlockedMe: true, BlockedEither: true}, *st)

	blockers, err := f.svc.Blocks.Blockers(f.ctx, b)
	require.NoError(t, err)
	require.Len(t, blockers, 1)
	assert.Equal(t, "alice", blockers[0].Login)
}
