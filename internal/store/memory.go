package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"zugzwang/internal/models"
	"zugzwang/internal/utils"
)

// Memory is an in-process implementation of Store for development and tests.
// It applies the same predicates as GormStore.
type Memory struct {
	mu sync.RWMutex

	seq              map[string]uint
	users            map[uint]models.User
	posts            map[uint]models.Post
	postCategories   map[uint][]uint // post -> category ids
	comments         map[uint]models.Comment
	postReactions    map[uint]map[uint]models.Reaction // post -> user -> reaction
	commentReactions map[uint]map[uint]models.Reaction // comment -> user -> reaction
	blocks           map[uint]map[uint]time.Time       // blocker -> blocked -> created
	categories       map[uint]models.Category
	bookmarks        map[uint]map[uint]time.Time // user -> post -> created
}

func NewMemory() *Memory {
	return &Memory{
		seq:              make(map[string]uint),
		users:            make(map[uint]models.User),
		posts:            make(map[uint]models.Post),
		postCategories:   make(map[uint][]uint),
		comments:         make(map[uint]models.Comment),
		postReactions:    make(map[uint]map[uint]models.Reaction),
		commentReactions: make(map[uint]map[uint]models.Reaction),
		blocks:           make(map[uint]map[uint]time.Time),
		categories:       make(map[uint]models.Category),
		bookmarks:        make(map[uint]map[uint]time.Time),
	}
}

var _ Store = (*Memory)(nil)

func (s *Memory) next(table string) uint {
	s.seq[table]++
	return s.seq[table]
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// ---- users ----

func (s *Memory) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Login == u.Login || (u.Email != "" && existing.Email == u.Email) {
			return ErrDuplicate
		}
	}
	if u.Status == "" {
		u.Status = models.RoleUser
	}
	u.ID = s.next("users")
	u.CreatedAt = stamp(u.CreatedAt)
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s *Memory) GetUser(_ context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *Memory) FindUsers(_ context.Context, ids []uint) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Memory) SetRating(_ context.Context, id uint, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Rating = rating
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

// ---- posts ----

func (s *Memory) hydratePost(p models.Post) models.Post {
	p.Author = s.users[p.AuthorID]
	p.Categories = make([]models.Category, 0, len(s.postCategories[p.ID]))
	for _, cid := range s.postCategories[p.ID] {
		if c, ok := s.categories[cid]; ok {
			p.Categories = append(p.Categories, c)
		}
	}
	return p
}

func (s *Memory) CreatePost(_ context.Context, p *models.Post, categoryIDs []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[p.AuthorID]; !ok {
		return ErrNotFound
	}
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	p.ID = s.next("posts")
	p.CreatedAt = stamp(p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	stored := *p
	stored.Author = models.User{}
	stored.Categories = nil
	s.posts[p.ID] = stored
	s.postCategories[p.ID] = dedupe(categoryIDs)

	*p = s.hydratePost(stored)
	return nil
}

func (s *Memory) GetPost(_ context.Context, id uint) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = s.hydratePost(p)
	return &p, nil
}

func (s *Memory) UpdatePost(_ context.Context, id uint, ch PostChanges) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return ErrNotFound
	}
	if ch.Title != nil {
		p.Title = *ch.Title
	}
	if ch.Content != nil {
		p.Content = *ch.Content
	}
	if ch.Status != nil {
		p.Status = *ch.Status
	}
	if ch.Locked != nil {
		p.Locked = *ch.Locked
	}
	if ch.CategoryIDs != nil {
		s.postCategories[id] = dedupe(*ch.CategoryIDs)
	}
	p.UpdatedAt = time.Now().UTC()
	s.posts[id] = p
	return nil
}

func (s *Memory) DeletePost(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	delete(s.postCategories, id)
	delete(s.postReactions, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
			delete(s.commentReactions, cid)
		}
	}
	for _, marks := range s.bookmarks {
		delete(marks, id)
	}
	return nil
}

// excludedAuthors is the symmetric block set of a viewer.
func (s *Memory) excludedAuthors(v models.Viewer) map[uint]bool {
	out := make(map[uint]bool)
	if v.IsAnonymous() {
		return out
	}
	for blocked := range s.blocks[v.ID] {
		out[blocked] = true
	}
	for blocker, targets := range s.blocks {
		if _, ok := targets[v.ID]; ok {
			out[blocker] = true
		}
	}
	delete(out, v.ID)
	return out
}

func (s *Memory) matchPost(p models.Post, f PostFilter, excluded map[uint]bool) bool {
	if f.Viewer.IsAdmin() {
		if f.Status != "" && p.Status != f.Status {
			return false
		}
	} else if p.Status != models.StatusActive && !f.Viewer.Owns(p.AuthorID) {
		return false
	}
	if excluded[p.AuthorID] {
		return false
	}
	if f.AuthorID != 0 && p.AuthorID != f.AuthorID {
		return false
	}
	if f.DateFrom != nil && p.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && p.CreatedAt.After(*f.DateTo) {
		return false
	}
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(p.Title), needle) && !strings.Contains(strings.ToLower(p.Content), needle) {
			return false
		}
	}
	if len(f.CategoryIDs) > 0 {
		found := false
		for _, have := range s.postCategories[p.ID] {
			for _, want := range f.CategoryIDs {
				if have == want {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *Memory) filterPosts(f PostFilter) []models.Post {
	excluded := s.excludedAuthors(f.Viewer)
	out := make([]models.Post, 0)
	for _, p := range s.posts {
		if s.matchPost(p, f, excluded) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Memory) QueryPosts(_ context.Context, q PostQuery) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.filterPosts(q.Filter)
	for i := range rows {
		rows[i].ApplyCounts(countReactions(s.postReactions[rows[i].ID]))
	}
	sort.Slice(rows, func(i, j int) bool {
		return utils.Less(utils.PostRank{Post: &rows[i]}, utils.PostRank{Post: &rows[j]}, q.Sort, q.Order)
	})

	rows = window(rows, q.Offset, q.Limit)
	for i := range rows {
		rows[i] = s.hydratePost(rows[i])
	}
	return rows, nil
}

func (s *Memory) CountPosts(_ context.Context, f PostFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.filterPosts(f))), nil
}

func (s *Memory) PostIDsByAuthor(_ context.Context, authorID uint) ([]uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint, 0)
	for id, p := range s.posts {
		if p.AuthorID == authorID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Memory) ActiveCommentCounts(_ context.Context, postIDs []uint) (map[uint]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[uint]bool, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = true
	}
	out := make(map[uint]int)
	for _, c := range s.comments {
		if wanted[c.PostID] && c.Status == models.StatusActive {
			out[c.PostID]++
		}
	}
	return out, nil
}

// ---- comments ----

func (s *Memory) hydrateComment(c models.Comment) models.Comment {
	c.Author = s.users[c.AuthorID]
	return c
}

func (s *Memory) CreateComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[c.PostID]; !ok {
		return ErrNotFound
	}
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	c.ID = s.next("comments")
	c.CreatedAt = stamp(c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	stored := *c
	stored.Author = models.User{}
	stored.Post = nil
	stored.Parent = nil
	s.comments[c.ID] = stored

	*c = s.hydrateComment(stored)
	return nil
}

func (s *Memory) GetComment(_ context.Context, id uint) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	c = s.hydrateComment(c)
	return &c, nil
}

func (s *Memory) UpdateComment(_ context.Context, id uint, ch CommentChanges) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return ErrNotFound
	}
	if ch.Content != nil {
		c.Content = *ch.Content
	}
	if ch.Status != nil {
		c.Status = *ch.Status
	}
	if ch.Locked != nil {
		c.Locked = *ch.Locked
	}
	c.UpdatedAt = time.Now().UTC()
	s.comments[id] = c
	return nil
}

// DeleteComment removes the comment and every reply below it.
func (s *Memory) DeleteComment(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return ErrNotFound
	}
	doomed := map[uint]bool{id: true}
	for grew := true; grew; {
		grew = false
		for cid, c := range s.comments {
			if !doomed[cid] && c.ParentID != nil && doomed[*c.ParentID] {
				doomed[cid] = true
				grew = true
			}
		}
	}
	for cid := range doomed {
		delete(s.comments, cid)
		delete(s.commentReactions, cid)
	}
	return nil
}

func (s *Memory) CommentsForPost(_ context.Context, postID uint) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Comment, 0)
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, s.hydrateComment(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) QueryComments(_ context.Context, q CommentQuery) ([]models.Comment, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]models.Comment, 0)
	for _, c := range s.comments {
		if q.Filter.PostID != 0 && c.PostID != q.Filter.PostID {
			continue
		}
		if q.Filter.AuthorID != 0 && c.AuthorID != q.Filter.AuthorID {
			continue
		}
		if q.Filter.Status != "" && c.Status != q.Filter.Status {
			continue
		}
		c.ApplyCounts(countReactions(s.commentReactions[c.ID]))
		rows = append(rows, s.hydrateComment(c))
	}
	sort.Slice(rows, func(i, j int) bool {
		return utils.Less(utils.CommentRank{Comment: &rows[i]}, utils.CommentRank{Comment: &rows[j]}, q.Sort, q.Order)
	})
	total := int64(len(rows))
	return window(rows, q.Offset, q.Limit), total, nil
}

func (s *Memory) CommentIDsByAuthor(_ context.Context, authorID uint) ([]uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint, 0)
	for id, c := range s.comments {
		if c.AuthorID == authorID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ---- reactions ----

func (s *Memory) reactionTable(kind models.TargetKind) map[uint]map[uint]models.Reaction {
	if kind == models.TargetComment {
		return s.commentReactions
	}
	return s.postReactions
}

func (s *Memory) targetExists(t models.Target) bool {
	if t.Kind == models.TargetComment {
		_, ok := s.comments[t.ID]
		return ok
	}
	_, ok := s.posts[t.ID]
	return ok
}

func (s *Memory) SetReaction(_ context.Context, t models.Target, userID uint, typ models.ReactionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.targetExists(t) {
		return ErrNotFound
	}
	table := s.reactionTable(t.Kind)
	rows, ok := table[t.ID]
	if !ok {
		rows = make(map[uint]models.Reaction)
		table[t.ID] = rows
	}
	r, exists := rows[userID]
	if !exists {
		r = models.Reaction{UserID: userID, CreatedAt: time.Now().UTC()}
	}
	r.Type = typ
	rows[userID] = r
	return nil
}

func (s *Memory) RemoveReaction(_ context.Context, t models.Target, userID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.reactionTable(t.Kind)[t.ID]
	if _, ok := rows[userID]; !ok {
		return false, nil
	}
	delete(rows, userID)
	return true, nil
}

func countReactions(rows map[uint]models.Reaction) models.Counts {
	var c models.Counts
	for _, r := range rows {
		switch r.Type {
		case models.ReactionLike:
			c.Like++
		case models.ReactionDislike:
			c.Dislike++
		}
	}
	return c
}

func (s *Memory) CountsFor(_ context.Context, t models.Target) (models.Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return countReactions(s.reactionTable(t.Kind)[t.ID]), nil
}

func (s *Memory) CountsForMany(_ context.Context, kind models.TargetKind, ids []uint) (map[uint]models.Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table := s.reactionTable(kind)
	out := make(map[uint]models.Counts)
	for _, id := range ids {
		if rows := table[id]; len(rows) > 0 {
			out[id] = countReactions(rows)
		}
	}
	return out, nil
}

func (s *Memory) ListReactors(_ context.Context, t models.Target) ([]models.Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.reactionTable(t.Kind)[t.ID]
	out := make([]models.Reaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// ---- blocks ----

func (s *Memory) Block(_ context.Context, blockerID, blockedID uint) (int64, error) {
	if blockerID == blockedID {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	targets, ok := s.blocks[blockerID]
	if !ok {
		targets = make(map[uint]time.Time)
		s.blocks[blockerID] = targets
	}
	if _, exists := targets[blockedID]; !exists {
		targets[blockedID] = time.Now().UTC()
	}
	return 1, nil
}

func (s *Memory) Unblock(_ context.Context, blockerID, blockedID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blocks[blockerID][blockedID]; !ok {
		return 0, nil
	}
	delete(s.blocks[blockerID], blockedID)
	return 1, nil
}

func (s *Memory) BlockedBy(_ context.Context, blockerID uint) ([]uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint, 0, len(s.blocks[blockerID]))
	for id := range s.blocks[blockerID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Memory) BlockersOf(_ context.Context, blockedID uint) ([]uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint, 0)
	for blocker, targets := range s.blocks {
		if _, ok := targets[blockedID]; ok {
			ids = append(ids, blocker)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Memory) IsBlockedEither(_ context.Context, a, b uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ab := s.blocks[a][b]
	_, ba := s.blocks[b][a]
	return ab || ba, nil
}

// ---- categories ----

func (s *Memory) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Memory) GetCategory(_ context.Context, id uint) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *Memory) FindCategoryByName(_ context.Context, name string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) nameTaken(name string, except uint) bool {
	for id, c := range s.categories {
		if id != except && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (s *Memory) CreateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(c.Name, 0) {
		return ErrDuplicate
	}
	c.ID = s.next("categories")
	c.CreatedAt = stamp(c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	s.categories[c.ID] = *c
	return nil
}

func (s *Memory) UpdateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[c.ID]
	if !ok {
		return ErrNotFound
	}
	if s.nameTaken(c.Name, c.ID) {
		return ErrDuplicate
	}
	existing.Name = c.Name
	existing.Description = c.Description
	existing.UpdatedAt = time.Now().UTC()
	s.categories[c.ID] = existing
	*c = existing
	return nil
}

func (s *Memory) DeleteCategory(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	delete(s.categories, id)
	for pid, ids := range s.postCategories {
		kept := ids[:0]
		for _, cid := range ids {
			if cid != id {
				kept = append(kept, cid)
			}
		}
		s.postCategories[pid] = kept
	}
	return nil
}

// ---- bookmarks ----

func (s *Memory) AddBookmark(_ context.Context, userID, postID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return ErrNotFound
	}
	marks, ok := s.bookmarks[userID]
	if !ok {
		marks = make(map[uint]time.Time)
		s.bookmarks[userID] = marks
	}
	if _, exists := marks[postID]; !exists {
		marks[postID] = time.Now().UTC()
	}
	return nil
}

func (s *Memory) RemoveBookmark(_ context.Context, userID, postID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookmarks[userID][postID]; !ok {
		return false, nil
	}
	delete(s.bookmarks[userID], postID)
	return true, nil
}

func (s *Memory) BookmarkedPosts(_ context.Context, userID uint) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type marked struct {
		post models.Post
		at   time.Time
	}
	rows := make([]marked, 0)
	for pid, at := range s.bookmarks[userID] {
		if p, ok := s.posts[pid]; ok {
			rows = append(rows, marked{post: s.hydratePost(p), at: at})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].at.Equal(rows[j].at) {
			return rows[i].at.After(rows[j].at)
		}
		return rows[i].post.ID > rows[j].post.ID
	})
	out := make([]models.Post, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.post)
	}
	return out, nil
}

// ---- helpers ----

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func window[T any](rows []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return rows[:0]
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
