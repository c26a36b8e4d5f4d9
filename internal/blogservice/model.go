package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUserForeignKey = errors.New("user_id does not exist")
	ErrBlogForeignKey = errors.New("blog_id does not exist")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// ForeignKeyError is a helper function to check if the error is a foreign key constraint error.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func (m *BlogModel) insert(ctx context.Context, blog *Blog) error {
	query := `
		INSERT INTO blogs (title, content, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := m.db.QueryRowContext(ctx, query, blog.Title, blog.Content, blog.Author.ID).Scan(&blog.ID, &blog.CreatedAt, &blog.UpdatedAt)
	if err != nil {
		switch {
		case ForeignKeyError(err, "blogs_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

// getBlogById loads a blog together with its author name and the like and comment
// counts. Counts are computed at query time so they always reflect current state.
func (m *BlogModel) getBlogById(ctx context.Context, id int) (*Blog, error) {
	query := `
		SELECT b.id, b.title, b.content, b.user_id, u.username, b.created_at, b.updated_at,
			(SELECT COUNT(*) FROM likes l WHERE l.blog_id = b.id) AS likes_count,
			(SELECT COUNT(*) FROM comments c WHERE c.blog_id = b.id) AS comments_count
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE b.id = $1`

	row := m.db.QueryRowContext(ctx, query, id)

	var blog Blog
	err := row.Scan(&blog.ID, &blog.Title, &blog.Content, &blog.Author.ID, &blog.Author.Username, &blog.CreatedAt, &blog.UpdatedAt, &blog.LikesCount, &blog.CommentsCount)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &blog, nil
}

// getBlogs returns one page of blogs in reverse-chronological order together with
// the total record count.
func (m *BlogModel) getBlogs(ctx context.Context, limit, offset int) ([]Blog, int, error) {
	query := `
		SELECT COUNT(*) OVER() AS total_records,
			b.id, b.title, b.content, b.user_id, u.username, b.created_at, b.updated_at,
			(SELECT COUNT(*) FROM likes l WHERE l.blog_id = b.id) AS likes_count,
			(SELECT COUNT(*) FROM comments c WHERE c.blog_id = b.id) AS comments_count
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $1 OFFSET $2`

	rows, err := m.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var total int
	blogs := []Blog{}
	for rows.Next() {
		var blog Blog
		err := rows.Scan(&total, &blog.ID, &blog.Title, &blog.Content, &blog.Author.ID, &blog.Author.Username, &blog.CreatedAt, &blog.UpdatedAt, &blog.LikesCount, &blog.CommentsCount)
		if err != nil {
			return nil, 0, err
		}
		blogs = append(blogs, blog)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return blogs, total, nil
}

func (m *BlogModel) updateBlog(ctx context.Context, blog *Blog) error {
	query := `
		UPDATE blogs
		SET title = $1, content = $2, updated_at = now()
		WHERE id = $3
		RETURNING updated_at`

	err := m.db.QueryRowContext(ctx, query, blog.Title, blog.Content, blog.ID).Scan(&blog.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return err
		}
	}

	return nil
}

// deleteBlog removes a blog. Likes and comments go with it via ON DELETE CASCADE.
func (m *BlogModel) deleteBlog(ctx context.Context, blogId int) error {
	query := `
		DELETE FROM blogs
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, blogId)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// insertLike records a like. The unique (user_id, blog_id) constraint resolves
// concurrent likes atomically; a conflicting insert is a no-op.
func (m *BlogModel) insertLike(ctx context.Context, userId, blogId int) error {
	query := `
		INSERT INTO likes (user_id, blog_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, blog_id) DO NOTHING`

	_, err := m.db.ExecContext(ctx, query, userId, blogId)
	if err != nil {
		switch {
		case ForeignKeyError(err, "likes_blog_id_fkey"):
			return ErrRecordNotFound
		case ForeignKeyError(err, "likes_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

// deleteLike removes a like if present. Removing an absent like is not an error.
func (m *BlogModel) deleteLike(ctx context.Context, userId, blogId int) error {
	query := `
		DELETE FROM likes
		WHERE user_id = $1 AND blog_id = $2`

	_, err := m.db.ExecContext(ctx, query, userId, blogId)
	return err
}

func (m *BlogModel) insertComment(ctx context.Context, comment *Comment) error {
	query := `
		INSERT INTO comments (user_id, blog_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := m.db.QueryRowContext(ctx, query, comment.User.ID, comment.BlogID, comment.Content).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		switch {
		case ForeignKeyError(err, "comments_blog_id_fkey"):
			return ErrBlogForeignKey
		case ForeignKeyError(err, "comments_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) getCommentById(ctx context.Context, id int) (*Comment, error) {
	query := `
		SELECT c.id, c.blog_id, c.user_id, u.username, c.content, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.id = $1`

	var comment Comment
	err := m.db.QueryRowContext(ctx, query, id).Scan(&comment.ID, &comment.BlogID, &comment.User.ID, &comment.User.Username, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &comment, nil
}

// getCommentsByBlog returns one page of a blog's comments, most recent first,
// together with the total record count.
func (m *BlogModel) getCommentsByBlog(ctx context.Context, blogId, limit, offset int) ([]Comment, int, error) {
	query := `
		SELECT COUNT(*) OVER() AS total_records,
			c.id, c.blog_id, c.user_id, u.username, c.content, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.blog_id = $1
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2 OFFSET $3`

	rows, err := m.db.QueryContext(ctx, query, blogId, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var total int
	comments := []Comment{}
	for rows.Next() {
		var comment Comment
		err := rows.Scan(&total, &comment.ID, &comment.BlogID, &comment.User.ID, &comment.User.Username, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

func (m *BlogModel) getLatestComments(ctx context.Context, blogId, n int) ([]Comment, error) {
	query := `
		SELECT c.id, c.blog_id, c.user_id, u.username, c.content, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.blog_id = $1
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2`

	rows, err := m.db.QueryContext(ctx, query, blogId, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var comment Comment
		err := rows.Scan(&comment.ID, &comment.BlogID, &comment.User.ID, &comment.User.Username, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

func (m *BlogModel) updateComment(ctx context.Context, comment *Comment) error {
	query := `
		UPDATE comments
		SET content = $1, updated_at = now()
		WHERE id = $2
		RETURNING updated_at`

	err := m.db.QueryRowContext(ctx, query, comment.Content, comment.ID).Scan(&comment.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return err
		}
	}

	return nil
}
