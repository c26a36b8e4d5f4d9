package blogservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sushihentaime/blogden/internal/common"
)

var ErrPermissionDenied = errors.New("permission denied")

const (
	defaultPageSize       = 10
	defaultMaxPageSize    = 50
	defaultDetailComments = 5
)

func NewBlogService(db *sql.DB, limits PageLimits) *BlogService {
	return &BlogService{m: newBlogModel(db), limits: limits.withDefaults()}
}

func (l PageLimits) withDefaults() PageLimits {
	if l.BlogPageSize < 1 {
		l.BlogPageSize = defaultPageSize
	}
	if l.BlogMaxPageSize < 1 {
		l.BlogMaxPageSize = defaultMaxPageSize
	}
	if l.CommentPageSize < 1 {
		l.CommentPageSize = defaultPageSize
	}
	if l.CommentMaxPageSize < 1 {
		l.CommentMaxPageSize = defaultMaxPageSize
	}
	if l.DetailCommentCount < 1 {
		l.DetailCommentCount = defaultDetailComments
	}
	return l
}

// pageWindow normalizes page and pageSize into a LIMIT/OFFSET window. Out-of-range
// values fall back to defaults and pageSize is clamped to max.
func pageWindow(page, pageSize, defaultSize, maxSize int) (limit, offset, currentPage int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultSize
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}

	return pageSize, (page - 1) * pageSize, page
}

type CreateBlogRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  int    `json:"user_id"`
}

// BlogPatch is the set of mutable blog fields. Absent fields are left untouched;
// the author is never mutable.
type BlogPatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type CommentPatch struct {
	Content *string `json:"content"`
}

// CreateBlog creates a new blog post owned by the requesting user.
func (s *BlogService) CreateBlog(ctx context.Context, req *CreateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	validateInt(v, req.UserID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog := &Blog{
		Title:   req.Title,
		Content: sanitizeMarkdown(req.Content),
		Author:  Author{ID: req.UserID},
	}

	err := s.m.insert(ctx, blog)
	if err != nil {
		return nil, err
	}

	// Reload so the response carries the author name and counts.
	return s.m.getBlogById(ctx, blog.ID)
}

// GetBlogByID returns a blog post by its ID.
func (s *BlogService) GetBlogByID(ctx context.Context, id int) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getBlogById(ctx, id)
}

// GetBlogs returns one page of blog posts, newest first. A page beyond the last
// yields an empty list, not an error.
func (s *BlogService) GetBlogs(ctx context.Context, page, pageSize int) ([]Blog, Metadata, error) {
	limit, offset, currentPage := pageWindow(page, pageSize, s.limits.BlogPageSize, s.limits.BlogMaxPageSize)

	blogs, total, err := s.m.getBlogs(ctx, limit, offset)
	if err != nil {
		return nil, Metadata{}, err
	}

	return blogs, Metadata{CurrentPage: currentPage, PageSize: limit, TotalRecords: total}, nil
}

// UpdateBlog applies a partial update to a blog post. Only the author may update
// it, and only the provided fields change.
func (s *BlogService) UpdateBlog(ctx context.Context, actorID, blogID int, patch *BlogPatch) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, actorID, "user_id")
	validateInt(v, blogID, "id")
	if patch.Title != nil {
		validateTitle(v, *patch.Title)
	}
	if patch.Content != nil {
		validateContent(v, *patch.Content)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog, err := s.m.getBlogById(ctx, blogID)
	if err != nil {
		return nil, err
	}

	if !canModifyBlog(actorID, blog) {
		return nil, ErrPermissionDenied
	}

	if patch.Title != nil {
		blog.Title = *patch.Title
	}
	if patch.Content != nil {
		blog.Content = sanitizeMarkdown(*patch.Content)
	}

	err = s.m.updateBlog(ctx, blog)
	if err != nil {
		return nil, err
	}

	return blog, nil
}

// DeleteBlog deletes a blog post along with its likes and comments. Only the author
// may delete it.
func (s *BlogService) DeleteBlog(ctx context.Context, actorID, blogID int) error {
	v := common.NewValidator()
	validateInt(v, actorID, "user_id")
	validateInt(v, blogID, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	blog, err := s.m.getBlogById(ctx, blogID)
	if err != nil {
		return err
	}

	if !canModifyBlog(actorID, blog) {
		return ErrPermissionDenied
	}

	return s.m.deleteBlog(ctx, blogID)
}

// LikeBlog marks the blog as liked by the user. Liking an already-liked blog is a
// no-op success.
func (s *BlogService) LikeBlog(ctx context.Context, actorID, blogID int) error {
	v := common.NewValidator()
	validateInt(v, actorID, "user_id")
	validateInt(v, blogID, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.insertLike(ctx, actorID, blogID)
}

// UnlikeBlog removes the user's like from the blog. Unliking a never-liked blog is
// a no-op success.
func (s *BlogService) UnlikeBlog(ctx context.Context, actorID, blogID int) error {
	v := common.NewValidator()
	validateInt(v, actorID, "user_id")
	validateInt(v, blogID, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.deleteLike(ctx, actorID, blogID)
}

// AddComment attaches a comment to a blog.
func (s *BlogService) AddComment(ctx context.Context, actorID, blogID int, content string) (*Comment, error) {
	v := common.NewValidator()
	validateInt(v, actorID, "user_id")
	validateInt(v, blogID, "blog_id")
	validateCommentContent(v, content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	comment := &Comment{
		BlogID:  blogID,
		User:    Author{ID: actorID},
		Content: content,
	}

	err := s.m.insertComment(ctx, comment)
	if err != nil {
		return nil, err
	}

	// Reload so the response carries the commenter's name.
	return s.m.getCommentById(ctx, comment.ID)
}

// GetComments returns one page of a blog's comments, most recent first.
func (s *BlogService) GetComments(ctx context.Context, blogID, page, pageSize int) ([]Comment, Metadata, error) {
	v := common.NewValidator()
	validateInt(v, blogID, "blog_id")
	if !v.Valid() {
		return nil, Metadata{}, v.ValidationError()
	}

	limit, offset, currentPage := pageWindow(page, pageSize, s.limits.CommentPageSize, s.limits.CommentMaxPageSize)

	comments, total, err := s.m.getCommentsByBlog(ctx, blogID, limit, offset)
	if err != nil {
		return nil, Metadata{}, err
	}

	return comments, Metadata{CurrentPage: currentPage, PageSize: limit, TotalRecords: total}, nil
}

// UpdateComment applies a partial update to a comment. Only the comment's author
// may update it.
func (s *BlogService) UpdateComment(ctx context.Context, actorID, commentID int, patch *CommentPatch) (*Comment, error) {
	v := common.NewValidator()
	validateInt(v, actorID, "user_id")
	validateInt(v, commentID, "id")
	if patch.Content != nil {
		validateCommentContent(v, *patch.Content)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	comment, err := s.m.getCommentById(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if !canModifyComment(actorID, comment) {
		return nil, ErrPermissionDenied
	}

	if patch.Content != nil {
		comment.Content = *patch.Content
	}

	err = s.m.updateComment(ctx, comment)
	if err != nil {
		return nil, err
	}

	return comment, nil
}

// GetBlogDetail returns the blog with its counts and the latest configured number
// of comments.
func (s *BlogService) GetBlogDetail(ctx context.Context, blogID int) (*BlogDetail, error) {
	v := common.NewValidator()
	validateInt(v, blogID, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog, err := s.m.getBlogById(ctx, blogID)
	if err != nil {
		return nil, err
	}

	comments, err := s.m.getLatestComments(ctx, blogID, s.limits.DetailCommentCount)
	if err != nil {
		return nil, err
	}

	return &BlogDetail{Blog: *blog, LatestComments: comments}, nil
}
