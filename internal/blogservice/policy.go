package blogservice

// Ownership policy. Pure decision functions applied before every mutation; a
// violation surfaces as ErrPermissionDenied, never a silent no-op.

func canModifyBlog(actorID int, b *Blog) bool {
	return b.Author.ID == actorID
}

func canModifyComment(actorID int, c *Comment) bool {
	return c.User.ID == actorID
}
