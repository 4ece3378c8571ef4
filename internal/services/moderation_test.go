package services

import (
	"testing"

	"zugzwang/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlockEdit(t *testing.T) {
	f := newFixture(t)
	author := f.user("author")
	p := f.post(author, "hello")
	title := "renamed"

	got, err := f.svc.Posts.UpdateByAuthor(f.ctx, author, p.ID, PostPatch{Locked: ptr(true)})
	require.NoError(t, err)
	assert.True(t, got.Locked)

	_, err = f.svc.Posts.UpdateByAuthor(f.ctx, author, p.ID, PostPatch{Title: &title})
	assert.Equal(t, KindConflict, KindOf(err), "edit while locked")

	_, err = f.svc.Posts.UpdateByAuthor(f.ctx, author, p.ID, PostPatch{Locked: ptr(true)})
	assert.Equal(t, KindConflict, KindOf(err), "re-lock")

	_, err = f.svc.Posts.UpdateByAuthor(f.ctx, author, p.ID, PostPatch{Locked: ptr(false), Title: &title})
	assert.Equal(t, KindConflict, KindOf(err), "unlock and edit together")

	got, err = f.svc.Posts.UpdateByAuthor(f.ctx, author, p.ID, PostPatch{Locked: ptr(false)})
	require.NoError(t, err)
	assert.False(t, got.Locked)

	got, err = f.svc.Posts.UpdateByAuthor(f.ctx, author, p.ID, PostPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
}

func TestOnlyTheAuthorEdits(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	author, other := f.user("author"), f.user("other")
	p := f.post(author, "hello")
	title := "mine now"

	_, err := f.svc.Posts.UpdateByAuthor(f.ctx, other, p.ID, PostPatch{Title: &title})
	assert.Equal(t, KindForbidden, KindOf(err))
	_, err = f.svc.Posts.UpdateByAuthor(f.ctx, admin, p.ID, PostPatch{Title: &title})
	assert.Equal(t, KindForbidden, KindOf(err))

	// admins may still lock from the author endpoint
	_, err = f.svc.Posts.UpdateByAuthor(f.ctx, admin, p.ID, PostPatch{Locked: ptr(true)})
	assert.NoError(t, err)

	_, err = f.svc.Posts.UpdateByAuthor(f.ctx, author, p.ID, PostPatch{})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestModerationIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	author := f.user("author")
	p := f.post(author, "hello")

	_, err := f.svc.Posts.Moderate(f.ctx, author, p.ID, ModerationPatch{Status: ptr(models.StatusInactive)})
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = f.svc.Posts.Moderate(f.ctx, admin, p.ID, ModerationPatch{Status: ptr(models.ContentStatus("gone"))})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.svc.Posts.Moderate(f.ctx, admin, p.ID, ModerationPatch{})
	assert.Equal(t, KindValidation, KindOf(err))

	// every state is reachable and revisitable
	for _, step := range []ModerationPatch{
		{Status: ptr(models.StatusInactive)},
		{Locked: ptr(true)},
		{Status: ptr(models.StatusActive)},
		{Locked: ptr(false)},
		{Status: ptr(models.StatusInactive), Locked: ptr(true)},
		{Status: ptr(models.StatusActive), Locked: ptr(false)},
	} {
		got, err := f.svc.Posts.Moderate(f.ctx, admin, p.ID, step)
		require.NoError(t, err)
		if step.Status != nil {
			assert.Equal(t, *step.Status, got.Status)
		}
		if step.Locked != nil {
			assert.Equal(t, *step.Locked, got.Locked)
		}
	}

	got, err := f.svc.Posts.Moderate(f.ctx, admin, p.ID, ModerationPatch{Categories: &[]string{"questions", "off-topic"}})
	require.NoError(t, err)
	assert.Len(t, got.Categories, 2)
}

func TestCommentingRules(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	author, reader := f.user("author"), f.user("reader")
	p := f.post(author, "hello")
	root := f.comment(reader, p.ID, nil)

	// locked parent comment
	_, err := f.svc.Comments.UpdateByAuthor(f.ctx, reader, root.ID, CommentPatch{Locked: ptr(true)})
	require.NoError(t, err)
	_, err = f.svc.Comments.Create(f.ctx, author, p.ID, CommentInput{Content: "reply", ParentID: &root.ID})
	assert.Equal(t, KindConflict, KindOf(err))
	f.comment(admin, p.ID, &root.ID)

	// locked post
	_, err = f.svc.Posts.UpdateByAuthor(f.ctx, author, p.ID, PostPatch{Locked: ptr(true)})
	require.NoError(t, err)
	_, err = f.svc.Comments.Create(f.ctx, reader, p.ID, CommentInput{Content: "hi"})
	assert.Equal(t, KindConflict, KindOf(err))
	f.comment(admin, p.ID, nil)

	// inactive post refuses everyone
	f.deactivate(admin, p.ID)
	_, err = f.svc.Comments.Create(f.ctx, admin, p.ID, CommentInput{Content: "hi"})
	assert.Equal(t, KindForbidden, KindOf(err))
	_, err = f.svc.Comments.Create(f.ctx, reader, p.ID, CommentInput{Content: "hi"})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestReplyValidation(t *testing.T) {
	f := newFixture(t)
	author := f.user("author")
	p1 := f.post(author, "one")
	p2 := f.post(author, "two")
	c := f.comment(author, p1.ID, nil)

	_, err := f.svc.Comments.Create(f.ctx, author, p2.ID, CommentInput{Content: "x", ParentID: &c.ID})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.svc.Comments.Create(f.ctx, author, p1.ID, CommentInput{Content: "  "})
	assert.Equal(t, KindValidation, KindOf(err))

	missing := uint(404)
	_, err = f.svc.Comments.Create(f.ctx, author, p1.ID, CommentInput{Content: "x", ParentID: &missing})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestReplyToHiddenParentLooksMissing(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	owner, reader, troll := f.user("owner"), f.user("reader"), f.user("troll")
	open := f.post(owner, "open")
	hidden := f.post(owner, "hidden")
	secret := f.comment(owner, hidden.ID, nil)
	f.deactivate(admin, hidden.ID)

	missing := uint(9999)
	_, missingErr := f.svc.Comments.Create(f.ctx, reader, open.ID, CommentInput{Content: "x", ParentID: &missing})
	_, hiddenErr := f.svc.Comments.Create(f.ctx, reader, open.ID, CommentInput{Content: "x", ParentID: &secret.ID})
	assert.Equal(t, KindNotFound, KindOf(missingErr))
	assert.Equal(t, KindOf(missingErr), KindOf(hiddenErr))

	// a comment elsewhere by someone who blocked the replier is just as invisible
	elsewhere := f.post(owner, "elsewhere")
	trollComment := f.comment(troll, elsewhere.ID, nil)
	require.NoError(t, f.svc.Blocks.Block(f.ctx, troll, reader.ID))
	_, err := f.svc.Comments.Create(f.ctx, reader, open.ID, CommentInput{Content: "x", ParentID: &trollComment.ID})
	assert.Equal(t, KindNotFound, KindOf(err))

	// admins see everything, so they get the mismatch itself
	_, err = f.svc.Comments.Create(f.ctx, admin, open.ID, CommentInput{Content: "x", ParentID: &secret.ID})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestReplyUnderInactiveComment(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	author, writer, other := f.user("author"), f.user("writer"), f.user("other")
	p := f.post(author, "hello")
	c := f.comment(writer, p.ID, nil)
	_, err := f.svc.Comments.Moderate(f.ctx, admin, c.ID, ModerationPatch{Status: ptr(models.StatusInactive)})
	require.NoError(t, err)

	_, err = f.svc.Comments.Create(f.ctx, writer, p.ID, CommentInput{Content: "x", ParentID: &c.ID})
	assert.Equal(t, KindForbidden, KindOf(err), "the writer can still see it")
	_, err = f.svc.Comments.Create(f.ctx, other, p.ID, CommentInput{Content: "x", ParentID: &c.ID})
	assert.Equal(t, KindNotFound, KindOf(err))
	f.comment(admin, p.ID, &c.ID)
}

func TestBlockedUsersCannotReply(t *testing.T) {
	f := newFixture(t)
	author, troll := f.user("author"), f.user("troll")
	p := f.post(author, "hello")
	require.NoError(t, f.svc.Blocks.Block(f.ctx, author, troll.ID))

	_, err := f.svc.Comments.Create(f.ctx, troll, p.ID, CommentInput{Content: "hi"})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestCommentEditNeedsUnlockedPost(t *testing.T) {
	f := newFixture(t)
	author, reader := f.user("author"), f.user("reader")
	p := f.post(author, "hello")
	c := f.comment(reader, p.ID, nil)
	_, err := f.svc.Posts.UpdateByAuthor(f.ctx, author, p.ID, PostPatch{Locked: ptr(true)})
	require.NoError(t, err)

	_, err = f.svc.Comments.UpdateByAuthor(f.ctx, reader, c.ID, CommentPatch{Content: ptr("edited")})
	assert.Equal(t, KindConflict, KindOf(err))

	// locking the comment itself still works
	_, err = f.svc.Comments.UpdateByAuthor(f.ctx, reader, c.ID, CommentPatch{Locked: ptr(true)})
	assert.NoError(t, err)
}

func TestCommentDeletion(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	owner, commenter, other := f.user("owner"), f.user("commenter"), f.user("other")
	p := f.post(owner, "hello")

	c1 := f.comment(commenter, p.ID, nil)
	reply := f.comment(other, p.ID, &c1.ID)
	c2 := f.comment(commenter, p.ID, nil)
	c3 := f.comment(commenter, p.ID, nil)

	assert.Equal(t, KindForbidden, KindOf(f.svc.Comments.Delete(f.ctx, other, c1.ID)))

	require.NoError(t, f.svc.Comments.Delete(f.ctx, commenter, c1.ID))
	_, err := f.svc.Comments.Get(f.ctx, admin, reply.ID)
	assert.Equal(t, KindNotFound, KindOf(err), "replies go with their parent")

	require.NoError(t, f.svc.Comments.Delete(f.ctx, owner, c2.ID))
	require.NoError(t, f.svc.Comments.Delete(f.ctx, admin, c3.ID))
}

func TestPostDeletion(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	author, other := f.user("author"), f.user("other")
	p1 := f.post(author, "one")
	p2 := f.post(author, "two")

	assert.Equal(t, KindForbidden, KindOf(f.svc.Posts.Delete(f.ctx, other, p1.ID)))
	require.NoError(t, f.svc.Posts.Delete(f.ctx, author, p1.ID))
	require.NoError(t, f.svc.Posts.Delete(f.ctx, admin, p2.ID))
	assert.Equal(t, KindNotFound, KindOf(f.svc.Posts.Delete(f.ctx, admin, p2.ID)))
}
