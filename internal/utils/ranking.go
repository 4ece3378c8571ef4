package utils

import (
	"time"

	"zugzwang/internal/models"
)

// Ranked is anything ordered by the likes/date sort.
type Ranked interface {
	RankScore() int
	RankTime() time.Time
	RankID() uint
}

// Less reports whether a sorts before b.
//
// SortLikes orders by score in the requested order; ties always fall back to newer first.
// SortDate orders by creation time in the requested order. The id breaks remaining ties
// so that pages never overlap.
func Less(a, b Ranked, key models.SortKey, order models.SortOrder) bool {
	if key == models.SortLikes {
		if a.RankScore() != b.RankScore() {
			if order == models.OrderAsc {
				return a.RankScore() < b.RankScore()
			}
			return a.RankScore() > b.RankScore()
		}
		if !a.RankTime().Equal(b.RankTime()) {
			return a.RankTime().After(b.RankTime())
		}
		return a.RankID() > b.RankID()
	}

	if !a.RankTime().Equal(b.RankTime()) {
		if order == models.OrderAsc {
			return a.RankTime().Before(b.RankTime())
		}
		return a.RankTime().After(b.RankTime())
	}
	if order == models.OrderAsc {
		return a.RankID() < b.RankID()
	}
	return a.RankID() > b.RankID()
}

// PostRank adapts a post to Ranked.
type PostRank struct{ *models.Post }

func (p PostRank) RankScore() int      { return p.Score }
func (p PostRank) RankTime() time.Time { return p.CreatedAt }
func (p PostRank) RankID() uint        { return p.ID }

// CommentRank adapts a comment to Ranked.
type CommentRank struct{ *models.Comment }

func (c CommentRank) RankScore() int      { return c.Score }
func (c CommentRank) RankTime() time.Time { return c.CreatedAt }
func (c CommentRank) RankID() uint        { return c.ID }
