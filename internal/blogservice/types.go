package blogservice

import (
	"database/sql"
	"time"
)

type Blog struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	// Content is stored in Markdown format.
	Content       string    `json:"content"`
	Author        Author    `json:"author"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
}

type Author struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type Comment struct {
	ID        int       `json:"id"`
	BlogID    int       `json:"blog_id"`
	User      Author    `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BlogDetail is the detail view: the blog with its counts plus a fixed small slice
// of the most recent comments.
type BlogDetail struct {
	Blog
	LatestComments []Comment `json:"latest_comments"`
}

// Metadata describes the page of a list response.
type Metadata struct {
	CurrentPage  int `json:"current_page"`
	PageSize     int `json:"page_size"`
	TotalRecords int `json:"total_records"`
}

// PageLimits carries the externally configured pagination bounds and the number of
// comments shown on the detail view.
type PageLimits struct {
	BlogPageSize       int
	BlogMaxPageSize    int
	CommentPageSize    int
	CommentMaxPageSize int
	DetailCommentCount int
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m      *BlogModel
	limits PageLimits
}
