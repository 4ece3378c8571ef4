package services

import (
	"zugzwang/internal/models"
)

// modState is what the moderation guards inspect on a post or a comment.
type modState struct {
	AuthorID uint
	Status   models.ContentStatus
	Locked   bool
}

func postState(p *models.Post) modState {
	return modState{AuthorID: p.AuthorID, Status: p.Status, Locked: p.Locked}
}

func commentState(c *models.Comment) modState {
	return modState{AuthorID: c.AuthorID, Status: c.Status, Locked: c.Locked}
}

// checkAuthorUpdate guards the author endpoint: content edits and lock toggles.
// edit is true when the request touches content fields.
func checkAuthorUpdate(v models.Viewer, st modState, locked *bool, edit bool) error {
	if locked == nil && !edit {
		return Invalid(msgNothingToUpdate)
	}
	if !v.Owns(st.AuthorID) {
		// admins may toggle the lock from here, never edit
		if edit || !v.IsAdmin() {
			return Forbidden(msgNotAuthor)
		}
	}

	if st.Locked {
		switch {
		case locked == nil:
			return Conflict(msgLocked)
		case *locked:
			return Conflict(msgAlreadyLocked)
		case edit:
			return Conflict(msgUnlockSeparate)
		}
	}
	return nil
}

// checkModeration guards the admin endpoint. other is true when the request carries
// further moderation fields (post categories).
func checkModeration(v models.Viewer, st modState, status *models.ContentStatus, locked *bool, other bool) error {
	if !v.IsAdmin() {
		return Forbidden(msgAdminOnly)
	}
	if status == nil && locked == nil && !other {
		return Invalid(msgNothingToUpdate)
	}
	if status != nil && !status.Valid() {
		return Invalid("status must be active or inactive")
	}
	if locked != nil && *locked && st.Locked {
		return Conflict(msgAlreadyLocked)
	}
	return nil
}

// checkReply guards new comments and replies. blocked reports whether the actor is
// blocked either way with the post author or the parent comment author.
func checkReply(v models.Viewer, post *models.Post, parent *models.Comment, blocked bool) error {
	if post.Status != models.StatusActive {
		if Visible(v, post.AuthorID, post.Status, false) {
			return Forbidden("comments are closed on inactive posts")
		}
		return NotFound("post")
	}
	admin := v.IsAdmin()
	if !admin && blocked {
		return NotFound("post")
	}
	if !admin && post.Locked {
		return Conflict("post is locked")
	}

	if parent == nil {
		return nil
	}
	if parent.PostID != post.ID {
		return Invalid("parent comment belongs to another post")
	}
	if !admin && parent.Status != models.StatusActive {
		if Visible(v, parent.AuthorID, parent.Status, false) {
			return Forbidden("replies are closed on inactive comments")
		}
		return NotFound("parent comment")
	}
	if !admin && parent.Locked {
		return Conflict("parent comment is locked")
	}
	return nil
}

// canDeleteComment: the comment author, the author of the post it sits under, or an admin.
func canDeleteComment(v models.Viewer, c *models.Comment, post *models.Post) bool {
	return v.IsAdmin() || v.Owns(c.AuthorID) || v.Owns(post.AuthorID)
}

func canDeletePost(v models.Viewer, p *models.Post) bool {
	return v.IsAdmin() || v.Owns(p.AuthorID)
}
