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
	ErrNotPermitted   = errors.New("not permitted")
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

func (m *BlogModel) insertBlog(ctx context.Context, blog *Blog) error {
	query := `
		INSERT INTO blogs (title, content, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at, version`

	err := m.db.QueryRowContext(ctx, query, blog.Title, blog.Content, blog.UserID).Scan(&blog.ID, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
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

func (m *BlogModel) getBlogByID(ctx context.Context, id int, includeDeleted bool) (*Blog, error) {
	query := `
		SELECT b.id, b.title, b.content, b.user_id, u.username, b.deleted, b.created_at, b.updated_at, b.version
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE b.id = $1`
	if !includeDeleted {
		query += ` AND b.deleted = FALSE`
	}

	var blog Blog
	err := m.db.QueryRowContext(ctx, query, id).Scan(&blog.ID, &blog.Title, &blog.Content, &blog.UserID, &blog.Username, &blog.Deleted, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
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

// getBlogs lists blogs newest-first by default; most_commented and
// most_reacted sort by live (non-deleted) child counts.
func (m *BlogModel) getBlogs(ctx context.Context, f BlogFilter, includeDeleted bool) ([]Blog, error) {
	query := `
		SELECT b.id, b.title, b.content, b.user_id, u.username, b.deleted, b.created_at, b.updated_at, b.version
		FROM blogs b
		JOIN users u ON b.user_id = u.id`

	switch f.SortBy {
	case SortMostCommented:
		query += `
		LEFT JOIN (
			SELECT blog_id, COUNT(*) AS child_count
			FROM comments
			WHERE deleted = FALSE
			GROUP BY blog_id
		) cc ON cc.blog_id = b.id`
	case SortMostReacted:
		query += `
		LEFT JOIN (
			SELECT blog_id, COUNT(*) AS child_count
			FROM reactions
			WHERE deleted = FALSE
			GROUP BY blog_id
		) cc ON cc.blog_id = b.id`
	}

	query += `
		WHERE ($1 = '' OR b.title ILIKE '%' || $1 || '%')`
	if !includeDeleted {
		query += ` AND b.deleted = FALSE`
	}

	switch f.SortBy {
	case SortMostCommented, SortMostReacted:
		query += `
		ORDER BY COALESCE(cc.child_count, 0) DESC, b.created_at DESC`
	default:
		query += `
		ORDER BY b.created_at DESC`
	}

	query += `
		LIMIT $2 OFFSET $3`

	rows, err := m.db.QueryContext(ctx, query, f.Search, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blogs []Blog
	for rows.Next() {
		var blog Blog
		err := rows.Scan(&blog.ID, &blog.Title, &blog.Content, &blog.UserID, &blog.Username, &blog.Deleted, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, blog)
	}

	return blogs, rows.Err()
}

func (m *BlogModel) getBlogsByUserID(ctx context.Context, userID int, includeDeleted bool) ([]Blog, error) {
	query := `
		SELECT b.id, b.title, b.content, b.user_id, u.username, b.deleted, b.created_at, b.updated_at, b.version
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE b.user_id = $1`
	if !includeDeleted {
		query += ` AND b.deleted = FALSE`
	}
	query += `
		ORDER BY b.created_at DESC`

	rows, err := m.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blogs []Blog
	for rows.Next() {
		var blog Blog
		err := rows.Scan(&blog.ID, &blog.Title, &blog.Content, &blog.UserID, &blog.Username, &blog.Deleted, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, blog)
	}

	return blogs, rows.Err()
}

func (m *BlogModel) updateBlog(ctx context.Context, blog *Blog) error {
	query := `
		UPDATE blogs
		SET title = $1, content = $2, updated_at = now(), version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version, created_at, updated_at`

	err := m.db.QueryRowContext(ctx, query, blog.Title, blog.Content, blog.ID, blog.Version).Scan(&blog.Version, &blog.CreatedAt, &blog.UpdatedAt)
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

// softDeleteBlog hides the blog rather than removing the row, so child
// comments and reactions stay addressable for admins.
func (m *BlogModel) softDeleteBlog(ctx context.Context, id int) error {
	query := `
		UPDATE blogs
		SET deleted = TRUE, updated_at = now(), version = version + 1
		WHERE id = $1 AND deleted = FALSE`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows > 1 {
		return fmt.Errorf("expected at most 1 row to be affected, got %d", rows)
	}

	return nil
}
