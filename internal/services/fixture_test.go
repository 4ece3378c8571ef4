package services

import (
	"context"
	"testing"
	"time"

	"zugzwang/internal/models"
	"zugzwang/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	t   *testing.T
	ctx context.Context
	mem *store.Memory
	svc *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	svc, err := New(mem, zap.NewNop(), 64)
	require.NoError(t, err)

	f := &fixture{t: t, ctx: context.Background(), mem: mem, svc: svc}
	for _, name := range []string{"general", "questions", "off-topic"} {
		require.NoError(t, mem.CreateCategory(f.ctx, &models.Category{Name: name}))
	}
	return f
}

func (f *fixture) newUser(login string, role models.Role) models.Viewer {
	f.t.Helper()
	u := models.User{Login: login, Email: login + "@example.com", Password: "x", Status: role}
	require.NoError(f.t, f.mem.CreateUser(f.ctx, &u))
	return models.ViewerOf(&u)
}

func (f *fixture) user(login string) models.Viewer  { return f.newUser(login, models.RoleUser) }
func (f *fixture) admin(login string) models.Viewer { return f.newUser(login, models.RoleAdmin) }

func (f *fixture) post(author models.Viewer, title string, categories ...string) *models.Post {
	f.t.Helper()
	if len(categories) == 0 {
		categories = []string{"general"}
	}
	p, err := f.svc.Posts.Create(f.ctx, author, PostInput{
		Title:      title,
		Content:    "body of " + title,
		Categories: categories,
	})
	require.NoError(f.t, err)
	return p
}

// rawPost bypasses validation so tests can control timestamps.
func (f *fixture) rawPost(author models.Viewer, title string, created time.Time) *models.Post {
	f.t.Helper()
	p := &models.Post{AuthorID: author.ID, Title: title, Content: title, CreatedAt: created}
	require.NoError(f.t, f.mem.CreatePost(f.ctx, p, []uint{1}))
	return p
}

func (f *fixture) comment(author models.Viewer, postID uint, parentID *uint) *models.Comment {
	f.t.Helper()
	c, err := f.svc.Comments.Create(f.ctx, author, postID, CommentInput{Content: "a comment", ParentID: parentID})
	require.NoError(f.t, err)
	return c
}

func (f *fixture) react(v models.Viewer, t models.Target, typ models.ReactionType) models.Counts {
	f.t.Helper()
	counts, err := f.svc.Reactions.React(f.ctx, v, t, typ)
	require.NoError(f.t, err)
	return counts
}

func (f *fixture) rating(id uint) int {
	f.t.Helper()
	u, err := f.mem.GetUser(f.ctx, id)
	require.NoError(f.t, err)
	return u.Rating
}

func (f *fixture) deactivate(admin models.Viewer, postID uint) {
	f.t.Helper()
	inactive := models.StatusInactive
	_, err := f.svc.Posts.Moderate(f.ctx, admin, postID, ModerationPatch{Status: &inactive})
	require.NoError(f.t, err)
}

func ptr[T any](v T) *T { return &v }
