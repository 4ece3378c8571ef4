package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"zugzwang/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of gorm (postgres in production).
// The connection must be opened with TranslateError so constraint failures map onto
// ErrDuplicate / ErrNotFound.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrNotFound
	}
	return err
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// escapeLike 转义 LIKE 通配符
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ---- users ----

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) FindUsers(ctx context.Context, ids []uint) ([]models.User, error) {
	users := make([]models.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&users).Error
	return users, translate(err)
}

func (s *GormStore) SetRating(ctx context.Context, id uint, rating int) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"rating": rating, "updated_at": time.Now()})
	return affected(res)
}

// ---- posts ----

func categoriesByID(tx *gorm.DB, ids []uint) ([]models.Category, error) {
	cats := make([]models.Category, 0, len(ids))
	if len(ids) == 0 {
		return cats, nil
	}
	err := tx.Where("id IN ?", ids).Find(&cats).Error
	return cats, err
}

func (s *GormStore) CreatePost(ctx context.Context, p *models.Post, categoryIDs []uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author", "Categories").Create(p).Error; err != nil {
			return err
		}
		cats, err := categoriesByID(tx, categoryIDs)
		if err != nil {
			return err
		}
		if len(cats) > 0 {
			if err := tx.Model(p).Association("Categories").Append(&cats); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translate(err)
	}

	created, err := s.GetPost(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *created
	return nil
}

func (s *GormStore) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	err := s.db.WithContext(ctx).Preload("Author").Preload("Categories").First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) UpdatePost(ctx context.Context, id uint, ch PostChanges) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Post
		if err := tx.Select("id").First(&p, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		if ch.Title != nil {
			updates["title"] = *ch.Title
		}
		if ch.Content != nil {
			updates["content"] = *ch.Content
		}
		if ch.Status != nil {
			updates["status"] = *ch.Status
		}
		if ch.Locked != nil {
			updates["locked"] = *ch.Locked
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		if ch.CategoryIDs != nil {
			cats, err := categoriesByID(tx, *ch.CategoryIDs)
			if err != nil {
				return err
			}
			if len(cats) == 0 {
				return tx.Model(&p).Association("Categories").Clear()
			}
			return tx.Model(&p).Association("Categories").Replace(&cats)
		}
		return nil
	}))
}

// DeletePost removes the post; comments, reactions and bookmarks go with it via
// ON DELETE CASCADE.
func (s *GormStore) DeletePost(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Select("Categories").Delete(&models.Post{ID: id}))
}

// postScope builds the WHERE clause shared by QueryPosts and CountPosts.
func (s *GormStore) postScope(ctx context.Context, f PostFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Post{})
	v := f.Viewer

	switch {
	case v.IsAdmin():
		if f.Status != "" {
			q = q.Where("posts.status = ?", f.Status)
		}
	case v.IsAnonymous():
		q = q.Where("posts.status = ?", models.StatusActive)
	default:
		q = q.Where("(posts.status = ? OR posts.author_id = ?)", models.StatusActive, v.ID)
	}

	// 双向屏蔽：我屏蔽的人 + 屏蔽我的人
	if !v.IsAnonymous() {
		blockedByMe := s.db.Model(&models.Block{}).Select("blocked_id").Where("blocker_id = ?", v.ID)
		blockersOfMe := s.db.Model(&models.Block{}).Select("blocker_id").Where("blocked_id = ?", v.ID)
		q = q.Where("(posts.author_id = ? OR (posts.author_id NOT IN (?) AND posts.author_id NOT IN (?)))",
			v.ID, blockedByMe, blockersOfMe)
	}

	if f.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.DateFrom != nil {
		q = q.Where("posts.created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("posts.created_at <= ?", *f.DateTo)
	}
	if f.Text != "" {
		pattern := "%" + escapeLike(f.Text) + "%"
		q = q.Where("(posts.title ILIKE ? OR posts.content ILIKE ?)", pattern, pattern)
	}
	if len(f.CategoryIDs) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM post_categories pc WHERE pc.post_id = posts.id AND pc.category_id IN ?)", f.CategoryIDs)
	}
	return q
}

func reactionTotals(db *gorm.DB, model interface{}, column string) *gorm.DB {
	return db.Model(model).
		Select(column+" AS target_id, "+
			"SUM(CASE WHEN type = ? THEN 1 ELSE 0 END) AS likes, "+
			"SUM(CASE WHEN type = ? THEN 1 ELSE 0 END) AS dislikes",
			models.ReactionLike, models.ReactionDislike).
		Group(column)
}

func orderBy(q *gorm.DB, table string, key models.SortKey, order models.SortOrder) *gorm.DB {
	dir := "DESC"
	if order == models.OrderAsc {
		dir = "ASC"
	}
	if key == models.SortLikes {
		// 同分时总是新的在前
		return q.Order("COALESCE(rc.likes, 0) - COALESCE(rc.dislikes, 0) " + dir).
			Order(table + ".created_at DESC").
			Order(table + ".id DESC")
	}
	return q.Order(table + ".created_at " + dir).Order(table + ".id " + dir)
}

func (s *GormStore) QueryPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	totals := reactionTotals(s.db, &models.PostReaction{}, "post_id")

	tx := s.postScope(ctx, q.Filter).
		Select("posts.*").
		Joins("LEFT JOIN (?) AS rc ON rc.target_id = posts.id", totals).
		Preload("Author").
		Preload("Categories")
	tx = orderBy(tx, "posts", q.Sort, q.Order)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit).Offset(q.Offset)
	}

	posts := make([]models.Post, 0)
	if err := tx.Find(&posts).Error; err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

func (s *GormStore) CountPosts(ctx context.Context, f PostFilter) (int64, error) {
	var total int64
	err := s.postScope(ctx, f).Distinct("posts.id").Count(&total).Error
	return total, translate(err)
}

func (s *GormStore) PostIDsByAuthor(ctx context.Context, authorID uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := s.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Pluck("id", &ids).Error
	return ids, translate(err)
}

func (s *GormStore) ActiveCommentCounts(ctx context.Context, postIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int)
	if len(postIDs) == 0 {
		return counts, nil
	}

	type result struct {
		PostID uint
		Count  int
	}
	var results []result
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ? AND status = ?", postIDs, models.StatusActive).
		Group("post_id").
		Scan(&results).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, r := range results {
		counts[r.PostID] = r.Count
	}
	return counts, nil
}

// ---- comments ----

func (s *GormStore) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := s.db.WithContext(ctx).Omit("Author", "Post", "Parent").Create(c).Error; err != nil {
		return translate(err)
	}
	created, err := s.GetComment(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *created
	return nil
}

func (s *GormStore) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).Preload("Author").First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) UpdateComment(ctx context.Context, id uint, ch CommentChanges) error {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if ch.Content != nil {
		updates["content"] = *ch.Content
	}
	if ch.Status != nil {
		updates["status"] = *ch.Status
	}
	if ch.Locked != nil {
		updates["locked"] = *ch.Locked
	}
	return affected(s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Updates(updates))
}

// DeleteComment removes the comment; replies and reactions cascade.
func (s *GormStore) DeleteComment(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Comment{}, id))
}

func (s *GormStore) CommentsForPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments := make([]models.Comment, 0)
	err := s.db.WithContext(ctx).Preload("Author").Where("post_id = ?", postID).Order("id").Find(&comments).Error
	return comments, translate(err)
}

func (s *GormStore) QueryComments(ctx context.Context, q CommentQuery) ([]models.Comment, int64, error) {
	scope := func() *gorm.DB {
		tx := s.db.WithContext(ctx).Model(&models.Comment{})
		if q.Filter.PostID != 0 {
			tx = tx.Where("comments.post_id = ?", q.Filter.PostID)
		}
		if q.Filter.AuthorID != 0 {
			tx = tx.Where("comments.author_id = ?", q.Filter.AuthorID)
		}
		if q.Filter.Status != "" {
			tx = tx.Where("comments.status = ?", q.Filter.Status)
		}
		return tx
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	totals := reactionTotals(s.db, &models.CommentReaction{}, "comment_id")
	tx := scope().
		Select("comments.*").
		Joins("LEFT JOIN (?) AS rc ON rc.target_id = comments.id", totals).
		Preload("Author")
	tx = orderBy(tx, "comments", q.Sort, q.Order)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit).Offset(q.Offset)
	}

	comments := make([]models.Comment, 0)
	if err := tx.Find(&comments).Error; err != nil {
		return nil, 0, translate(err)
	}
	return comments, total, nil
}

func (s *GormStore) CommentIDsByAuthor(ctx context.Context, authorID uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("author_id = ?", authorID).Pluck("id", &ids).Error
	return ids, translate(err)
}

// ---- reactions ----

func reactionModel(kind models.TargetKind) (interface{}, string) {
	if kind == models.TargetComment {
		return &models.CommentReaction{}, "comment_id"
	}
	return &models.PostReaction{}, "post_id"
}

// SetReaction 同一 (target, user) 只保留一行，重复反应覆盖 type
func (s *GormStore) SetReaction(ctx context.Context, t models.Target, userID uint, typ models.ReactionType) error {
	_, column := reactionModel(t.Kind)
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: column}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"type": typ, "updated_at": time.Now()}),
	}

	var row interface{}
	if t.Kind == models.TargetComment {
		row = &models.CommentReaction{CommentID: t.ID, UserID: userID, Type: typ}
	} else {
		row = &models.PostReaction{PostID: t.ID, UserID: userID, Type: typ}
	}
	return translate(s.db.WithContext(ctx).Clauses(upsert).Omit(clause.Associations).Create(row).Error)
}

func (s *GormStore) RemoveReaction(ctx context.Context, t models.Target, userID uint) (bool, error) {
	model, column := reactionModel(t.Kind)
	res := s.db.WithContext(ctx).Where(column+" = ? AND user_id = ?", t.ID, userID).Delete(model)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) CountsFor(ctx context.Context, t models.Target) (models.Counts, error) {
	counts, err := s.CountsForMany(ctx, t.Kind, []uint{t.ID})
	if err != nil {
		return models.Counts{}, err
	}
	return counts[t.ID], nil
}

func (s *GormStore) CountsForMany(ctx context.Context, kind models.TargetKind, ids []uint) (map[uint]models.Counts, error) {
	out := make(map[uint]models.Counts)
	if len(ids) == 0 {
		return out, nil
	}

	model, column := reactionModel(kind)
	type row struct {
		TargetID uint
		Likes    int
		Dislikes int
	}
	var rows []row
	err := reactionTotals(s.db.WithContext(ctx), model, column).
		Where(column+" IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, r := range rows {
		out[r.TargetID] = models.Counts{Like: r.Likes, Dislike: r.Dislikes}
	}
	return out, nil
}

func (s *GormStore) ListReactors(ctx context.Context, t models.Target) ([]models.Reaction, error) {
	model, column := reactionModel(t.Kind)
	out := make([]models.Reaction, 0)
	err := s.db.WithContext(ctx).Model(model).
		Select("user_id, type, created_at").
		Where(column+" = ?", t.ID).
		Order("created_at DESC, user_id").
		Scan(&out).Error
	return out, translate(err)
}

// ---- blocks ----

func (s *GormStore) Block(ctx context.Context, blockerID, blockedID uint) (int64, error) {
	if blockerID == blockedID {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"blocked_id"}),
		}).
		Omit(clause.Associations).
		Create(&models.Block{BlockerID: blockerID, BlockedID: blockedID})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) Unblock(ctx context.Context, blockerID, blockedID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.Block{})
	return res.RowsAffected, translate(res.Error)
}

func (s *GormStore) BlockedBy(ctx context.Context, blockerID uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := s.db.WithContext(ctx).Model(&models.Block{}).
		Where("blocker_id = ?", blockerID).Order("blocked_id").Pluck("blocked_id", &ids).Error
	return ids, translate(err)
}

func (s *GormStore) BlockersOf(ctx context.Context, blockedID uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := s.db.WithContext(ctx).Model(&models.Block{}).
		Where("blocked_id = ?", blockedID).Order("blocker_id").Pluck("blocker_id", &ids).Error
	return ids, translate(err)
}

func (s *GormStore) IsBlockedEither(ctx context.Context, a, b uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, translate(err)
}

// ---- categories ----

func (s *GormStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats := make([]models.Category, 0)
	err := s.db.WithContext(ctx).Order("name").Find(&cats).Error
	return cats, translate(err)
}

func (s *GormStore) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	if err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) CreateCategory(ctx context.Context, c *models.Category) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *GormStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	res := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", c.ID).
		Updates(map[string]interface{}{"name": c.Name, "description": c.Description, "updated_at": time.Now()})
	if err := affected(res); err != nil {
		return err
	}
	updated, err := s.GetCategory(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *updated
	return nil
}

func (s *GormStore) DeleteCategory(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Category{}, id))
}

// ---- bookmarks ----

func (s *GormStore) AddBookmark(ctx context.Context, userID, postID uint) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&models.Bookmark{UserID: userID, PostID: postID}).Error
	return translate(err)
}

func (s *GormStore) RemoveBookmark(ctx context.Context, userID, postID uint) (bool, error) {
	res := s.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Bookmark{})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) BookmarkedPosts(ctx context.Context, userID uint) ([]models.Post, error) {
	var marks []models.Bookmark
	err := s.db.WithContext(ctx).
		Preload("Post").
		Preload("Post.Author").
		Preload("Post.Categories").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&marks).Error
	if err != nil {
		return nil, translate(err)
	}

	posts := make([]models.Post, 0, len(marks))
	for _, m := range marks {
		posts = append(posts, m.Post)
	}
	return posts, nil
}
