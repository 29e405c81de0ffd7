package blogservice

import (
	"database/sql"
	"time"

	"github.com/sushihentaime/blogmate/internal/common"
)

type Blog struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	// Content is stored verbatim; rendering is the client's concern.
	Content   string    `json:"content"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"-"`

	CommentCount    int             `json:"comment_count"`
	ReactionSummary []ReactionCount `json:"reaction_summary,omitempty"`
	// UserReaction is the requester's own reaction code, when present.
	UserReaction *int `json:"user_reaction,omitempty"`
	IsOwner      bool `json:"is_owner"`
}

type Comment struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	BlogID    int       `json:"blog_id"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Reaction struct {
	ID        int       `json:"id"`
	Code      int       `json:"code"`
	BlogID    int       `json:"blog_id"`
	UserID    int       `json:"user_id"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ReactionCount struct {
	Code  int `json:"code"`
	Count int `json:"count"`
}

// BlogReactions is the per-blog slice of the bulk reaction endpoint.
type BlogReactions struct {
	Reactions    []Reaction      `json:"reactions"`
	Summary      []ReactionCount `json:"summary"`
	UserReaction *int            `json:"current_user_reaction,omitempty"`
}

type SortBy string

const (
	SortNewest        SortBy = "newest"
	SortMostCommented SortBy = "most_commented"
	SortMostReacted   SortBy = "most_reacted"
)

// BlogFilter narrows and pages blog listings.
type BlogFilter struct {
	Search string
	SortBy SortBy
	Limit  int
	Offset int
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m *BlogModel
	c *common.Cache
}
