package services

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"zugzwang/internal/models"
	"zugzwang/internal/store"
	"zugzwang/internal/utils"

	"go.uber.org/zap"
)

const maxCommentLength = 5000

type CommentInput struct {
	Content  string
	ParentID *uint
}

type CommentPatch struct {
	Content *string
	Locked  *bool
}

// CommentCriteria is the admin listing over all comments.
type CommentCriteria struct {
	PostID   uint
	AuthorID uint
	Status   models.ContentStatus
	Sort     models.SortKey
	Order    models.SortOrder
	Page     int
	Limit    int
}

type CommentPage struct {
	Items  []models.Comment `json:"items"`
	Paging *Paging          `json:"paging,omitempty"`
}

type Comments struct {
	store      store.Store
	visibility *Visibility
	reputation *Reputation
	log        *zap.Logger
}

func NewComments(s store.Store, vis *Visibility, rep *Reputation, log *zap.Logger) *Comments {
	return &Comments{store: s, visibility: vis, reputation: rep, log: log}
}

func validCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", Invalid("content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return "", Invalid("content must be at most %d characters", maxCommentLength)
	}
	return content, nil
}

// load returns a visible comment together with its post.
func (s *Comments) load(ctx context.Context, v models.Viewer, id uint) (*models.Comment, *models.Post, error) {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, nil, notFoundOr(err, "comment")
	}
	post, err := s.store.GetPost(ctx, c.PostID)
	if err != nil {
		return nil, nil, notFoundOr(err, "comment")
	}
	ok, err := s.visibility.CanSeeComment(ctx, v, c, post)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, NotFound("comment")
	}
	return c, post, nil
}

func (s *Comments) loadPost(ctx context.Context, v models.Viewer, postID uint) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, notFoundOr(err, "post")
	}
	ok, err := s.visibility.CanSeePost(ctx, v, post)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFound("post")
	}
	return post, nil
}

// requireVisibleParent reports a parent from another post the viewer cannot see as
// missing, so the mismatch error never confirms it exists.
func (s *Comments) requireVisibleParent(ctx context.Context, v models.Viewer, parent *models.Comment) error {
	owner, err := s.store.GetPost(ctx, parent.PostID)
	if err != nil {
		return notFoundOr(err, "parent comment")
	}
	ok, err := s.visibility.CanSeeComment(ctx, v, parent, owner)
	if err != nil {
		return err
	}
	if !ok {
		return NotFound("parent comment")
	}
	return nil
}

func (s *Comments) Create(ctx context.Context, v models.Viewer, postID uint, in CommentInput) (*models.Comment, error) {
	if v.IsAnonymous() {
		return nil, Unauthorized()
	}
	content, err := validCommentContent(in.Content)
	if err != nil {
		return nil, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, notFoundOr(err, "post")
	}

	var parent *models.Comment
	owners := []uint{post.AuthorID}
	if in.ParentID != nil {
		parent, err = s.store.GetComment(ctx, *in.ParentID)
		if err != nil {
			return nil, notFoundOr(err, "parent comment")
		}
		if parent.PostID != post.ID && !v.IsAdmin() {
			if err := s.requireVisibleParent(ctx, v, parent); err != nil {
				return nil, err
			}
		}
		owners = append(owners, parent.AuthorID)
	}

	blocks, err := s.visibility.pairBlocks(ctx, v, owners...)
	if err != nil {
		return nil, err
	}
	if err := checkReply(v, post, parent, len(blocks) > 0); err != nil {
		return nil, err
	}

	c := &models.Comment{
		PostID:   post.ID,
		AuthorID: v.ID,
		ParentID: in.ParentID,
		Content:  content,
		Status:   models.StatusActive,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, notFoundOr(err, "post")
	}
	c.ContentHTML = utils.RenderMarkdown(c.Content)
	return c, nil
}

func (s *Comments) Get(ctx context.Context, v models.Viewer, id uint) (*models.Comment, error) {
	c, _, err := s.load(ctx, v, id)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, []*models.Comment{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// visibleForPost returns the comments of a visible post that v may see, with counts.
func (s *Comments) visibleForPost(ctx context.Context, v models.Viewer, postID uint) ([]models.Comment, error) {
	if _, err := s.loadPost(ctx, v, postID); err != nil {
		return nil, err
	}
	all, err := s.store.CommentsForPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.visibility.BlockSet(ctx, v)
	if err != nil {
		return nil, err
	}

	out := make([]models.Comment, 0, len(all))
	for _, c := range all {
		if Listed(v, c.AuthorID, c.Status, blocks) {
			out = append(out, c)
		}
	}
	ptrs := make([]*models.Comment, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := s.decorate(ctx, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForPost returns the flat comment list of a post in the requested order.
func (s *Comments) ListForPost(ctx context.Context, v models.Viewer, postID uint, key models.SortKey, order models.SortOrder) ([]models.Comment, error) {
	out, err := s.visibleForPost(ctx, v, postID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utils.Less(utils.CommentRank{Comment: &out[i]}, utils.CommentRank{Comment: &out[j]}, key, order)
	})
	return out, nil
}

// Thread returns the comments of a post as a reply forest.
func (s *Comments) Thread(ctx context.Context, v models.Viewer, postID uint) ([]*ThreadNode, error) {
	out, err := s.visibleForPost(ctx, v, postID)
	if err != nil {
		return nil, err
	}
	return BuildTree(out), nil
}

func (s *Comments) UpdateByAuthor(ctx context.Context, v models.Viewer, id uint, patch CommentPatch) (*models.Comment, error) {
	if v.IsAnonymous() {
		return nil, Unauthorized()
	}
	c, post, err := s.load(ctx, v, id)
	if err != nil {
		return nil, err
	}
	edit := patch.Content != nil
	if err := checkAuthorUpdate(v, commentState(c), patch.Locked, edit); err != nil {
		return nil, err
	}

	ch := store.CommentChanges{Locked: patch.Locked}
	if edit {
		if post.Status != models.StatusActive {
			return nil, Forbidden("comments on inactive posts cannot be edited")
		}
		if post.Locked {
			return nil, Conflict("post is locked")
		}
		content, err := validCommentContent(*patch.Content)
		if err != nil {
			return nil, err
		}
		ch.Content = &content
	}

	if err := s.store.UpdateComment(ctx, id, ch); err != nil {
		return nil, notFoundOr(err, "comment")
	}
	return s.Get(ctx, v, id)
}

func (s *Comments) Moderate(ctx context.Context, v models.Viewer, id uint, patch ModerationPatch) (*models.Comment, error) {
	if !v.IsAdmin() {
		return nil, Forbidden(msgAdminOnly)
	}
	if patch.Categories != nil {
		return nil, Invalid("comments have no categories")
	}
	c, _, err := s.load(ctx, v, id)
	if err != nil {
		return nil, err
	}
	if err := checkModeration(v, commentState(c), patch.Status, patch.Locked, false); err != nil {
		return nil, err
	}
	if err := s.store.UpdateComment(ctx, id, store.CommentChanges{Status: patch.Status, Locked: patch.Locked}); err != nil {
		return nil, notFoundOr(err, "comment")
	}

	s.log.Info("comment moderated",
		zap.Uint("comment_id", id),
		zap.Uint("admin_id", v.ID),
		zap.Stringp("status", (*string)(patch.Status)),
		zap.Boolp("locked", patch.Locked))
	return s.Get(ctx, v, id)
}

// Delete removes a comment and its replies. Allowed for the comment author, the author
// of the post, and admins.
func (s *Comments) Delete(ctx context.Context, v models.Viewer, id uint) error {
	if v.IsAnonymous() {
		return Unauthorized()
	}
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return notFoundOr(err, "comment")
	}
	post, err := s.store.GetPost(ctx, c.PostID)
	if err != nil {
		return notFoundOr(err, "comment")
	}
	if !canDeleteComment(v, c, post) {
		visible, err := s.visibility.CanSeeComment(ctx, v, c, post)
		if err != nil {
			return err
		}
		if !visible {
			return NotFound("comment")
		}
		return Forbidden("only the comment author, the post author or an admin may delete this comment")
	}

	affected, err := s.subtreeAuthors(ctx, c)
	if err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, id); err != nil {
		return notFoundOr(err, "comment")
	}
	s.reputation.RecomputeQuietly(ctx, affected...)
	return nil
}

// subtreeAuthors lists the authors of c and every reply below it.
func (s *Comments) subtreeAuthors(ctx context.Context, c *models.Comment) ([]uint, error) {
	all, err := s.store.CommentsForPost(ctx, c.PostID)
	if err != nil {
		return nil, err
	}
	doomed := map[uint]bool{c.ID: true}
	authors := []uint{c.AuthorID}
	for grew := true; grew; {
		grew = false
		for _, other := range all {
			if !doomed[other.ID] && other.ParentID != nil && doomed[*other.ParentID] {
				doomed[other.ID] = true
				authors = append(authors, other.AuthorID)
				grew = true
			}
		}
	}
	return authors, nil
}

// ListAll is the admin view over every comment.
func (s *Comments) ListAll(ctx context.Context, v models.Viewer, c CommentCriteria) (*CommentPage, error) {
	if !v.IsAdmin() {
		return nil, Forbidden(msgAdminOnly)
	}
	if c.Status != "" && !c.Status.Valid() {
		return nil, Invalid("status must be active or inactive")
	}

	q := store.CommentQuery{
		Filter: store.CommentFilter{PostID: c.PostID, AuthorID: c.AuthorID, Status: c.Status},
		Sort:   c.Sort,
		Order:  c.Order,
	}
	if q.Sort == "" {
		q.Sort = models.SortDate
	}
	if q.Order == "" {
		q.Order = models.OrderDesc
	}
	pageMode := c.Page > 0 && c.Limit > 0
	perPage := ClampPerPage(c.Limit)
	if pageMode {
		q.Limit = perPage
		q.Offset = (c.Page - 1) * perPage
	}

	items, total, err := s.store.QueryComments(ctx, q)
	if err != nil {
		return nil, err
	}
	ptrs := make([]*models.Comment, len(items))
	for i := range items {
		ptrs[i] = &items[i]
	}
	if err := s.decorate(ctx, ptrs); err != nil {
		return nil, err
	}

	page := &CommentPage{Items: items}
	if pageMode {
		page.Paging = newPaging(total, c.Page, perPage)
	}
	return page, nil
}

func (s *Comments) decorate(ctx context.Context, comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	counts, err := s.store.CountsForMany(ctx, models.TargetComment, ids)
	if err != nil {
		return err
	}
	for _, c := range comments {
		c.ApplyCounts(counts[c.ID])
		c.ContentHTML = utils.RenderMarkdown(c.Content)
	}
	return nil
}
