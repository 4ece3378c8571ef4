package services

import (
	"fmt"
	"testing"
	"time"

	"zugzwang/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titlesOf(page *FeedPage) []string {
	out := make([]string, 0, len(page.Items))
	for _, p := range page.Items {
		out = append(out, p.Title)
	}
	return out
}

func TestFeedPaging(t *testing.T) {
	f := newFixture(t)
	a := f.user("alice")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		f.rawPost(a, fmt.Sprintf("post %d", i+1), base.Add(time.Duration(i)*time.Minute))
	}

	page, err := f.svc.Posts.Feed(f.ctx, FeedCriteria{Sort: models.SortDate, Order: models.OrderDesc, Page: 3, Limit: 10})
	require.NoError(t, err)
	require.NotNil(t, page.Paging)
	assert.Equal(t, Paging{Total: 25, Page: 3, PerPage: 10, TotalPages: 3}, *page.Paging)
	require.Len(t, page.Items, 5)
	assert.Equal(t, uint(5), page.Items[0].ID)
	assert.Equal(t, uint(1), page.Items[4].ID)

	page, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{Sort: models.SortDate, Order: models.OrderAsc, Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(25), page.Paging.Total)

	page, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{Sort: models.SortDate})
	require.NoError(t, err)
	assert.Nil(t, page.Paging)
	assert.Len(t, page.Items, 25)
}

func TestFeedLikesOrdering(t *testing.T) {
	f := newFixture(t)
	author := f.user("author")
	fans := []models.Viewer{f.user("u1"), f.user("u2"), f.user("u3")}

	a := f.post(author, "A")
	b := f.post(author, "B")
	c := f.post(author, "C")
	f.react(fans[0], models.PostTarget(a.ID), models.ReactionLike)
	f.react(fans[0], models.PostTarget(b.ID), models.ReactionLike)
	f.react(fans[1], models.PostTarget(b.ID), models.ReactionLike)
	f.react(fans[2], models.PostTarget(c.ID), models.ReactionDislike)

	page, err := f.svc.Posts.Feed(f.ctx, FeedCriteria{Sort: models.SortLikes, Order: models.OrderDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, titlesOf(page))
	assert.Equal(t, 2, page.Items[0].Likes)
	assert.Equal(t, -1, page.Items[2].Score)

	page, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{Sort: models.SortLikes, Order: models.OrderAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, titlesOf(page))

	// the sort happens before the page is cut
	page, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, titlesOf(page))
}

func TestFeedCategories(t *testing.T) {
	f := newFixture(t)
	a := f.user("alice")
	f.post(a, "general only")
	f.post(a, "question", "questions")
	f.post(a, "both", "general", "off-topic")

	page, err := f.svc.Posts.Feed(f.ctx, FeedCriteria{Categories: []string{"questions", "off-topic"}, Sort: models.SortDate})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"question", "both"}, titlesOf(page))

	page, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{Categories: []string{"2"}, Sort: models.SortDate})
	require.NoError(t, err)
	assert.Equal(t, []string{"question"}, titlesOf(page))

	page, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{Categories: []string{"nope"}, Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, Paging{Total: 0, Page: 1, PerPage: 5, TotalPages: 1}, *page.Paging)
}

func TestFeedStatusFilterIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	a, b := f.user("alice"), f.user("bob")
	f.post(a, "live")
	hidden := f.post(a, "hidden")
	f.deactivate(admin, hidden.ID)

	page, err := f.svc.Posts.Feed(f.ctx, FeedCriteria{Viewer: admin, Status: models.StatusInactive})
	require.NoError(t, err)
	assert.Equal(t, []string{"hidden"}, titlesOf(page))

	page, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{Viewer: admin})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{Viewer: b, Status: models.StatusInactive})
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, titlesOf(page), "status is ignored for non-admins")

	page, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{Viewer: a, Sort: models.SortDate})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2, "authors see their own inactive posts")

	page, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{})
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, titlesOf(page))

	_, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{Viewer: admin, Status: "archived"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestFeedFilters(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("alice"), f.user("bob")
	day := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	f.rawPost(a, "Go Tips", day.AddDate(0, 0, -2))
	f.rawPost(b, "rust notes", day)
	f.rawPost(a, "more go", day.AddDate(0, 0, 2))

	page, err := f.svc.Posts.Feed(f.ctx, FeedCriteria{Query: "GO", Sort: models.SortDate, Order: models.OrderAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Tips", "more go"}, titlesOf(page))

	page, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{AuthorID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"rust notes"}, titlesOf(page))

	from, to := day.AddDate(0, 0, -1), day.AddDate(0, 0, 1)
	page, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	assert.Equal(t, []string{"rust notes"}, titlesOf(page))

	_, err = f.svc.Posts.Feed(f.ctx, FeedCriteria{DateFrom: &to, DateTo: &from})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestClampPerPage(t *testing.T) {
	assert.Equal(t, DefaultPerPage, ClampPerPage(0))
	assert.Equal(t, DefaultPerPage, ClampPerPage(-3))
	assert.Equal(t, 7, ClampPerPage(7))
	assert.Equal(t, MaxPerPage, ClampPerPage(500))

	assert.Equal(t, 1, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
}

func TestFeedRowsCarryCounts(t *testing.T) {
	f := newFixture(t)
	author := f.user("author")
	reader := f.user("reader")
	root := f.admin("root")

	p := f.post(author, "counted")
	f.comment(reader, p.ID, nil)
	hidden := f.comment(reader, p.ID, nil)
	inactive := models.StatusInactive
	_, err := f.svc.Comments.Moderate(f.ctx, root, hidden.ID, ModerationPatch{Status: &inactive})
	require.NoError(t, err)
	f.react(reader, models.PostTarget(p.ID), models.ReactionDislike)

	page, err := f.svc.Posts.Feed(f.ctx, FeedCriteria{Viewer: reader})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	row := page.Items[0]
	assert.Equal(t, 1, row.CommentCount, "inactive comments are not counted")
	assert.Equal(t, 1, row.Dislikes)
	assert.Equal(t, -1, row.Score)
	assert.Contains(t, row.ContentHTML, "body of counted")
}
