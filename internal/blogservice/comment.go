package blogservice

import (
	"context"
	"database/sql"
	"errors"
)

func (m *BlogModel) insertComment(ctx context.Context, comment *Comment) error {
	query := `
		INSERT INTO comments (content, blog_id, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := m.db.QueryRowContext(ctx, query, comment.Content, comment.BlogID, comment.UserID).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		switch {
		case ForeignKeyError(err, "comments_blog_id_fkey"):
			return ErrRecordNotFound
		case ForeignKeyError(err, "comments_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) getCommentByID(ctx context.Context, blogID, commentID int, includeDeleted bool) (*Comment, error) {
	query := `
		SELECT c.id, c.content, c.blog_id, c.user_id, u.username, c.deleted, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.id = $1 AND c.blog_id = $2`
	if !includeDeleted {
		query += ` AND c.deleted = FALSE`
	}

	var comment Comment
	err := m.db.QueryRowContext(ctx, query, commentID, blogID).Scan(&comment.ID, &comment.Content, &comment.BlogID, &comment.UserID, &comment.Username, &comment.Deleted, &comment.CreatedAt, &comment.UpdatedAt)
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

func (m *BlogModel) getComments(ctx context.Context, blogID int, includeDeleted bool) ([]Comment, error) {
	query := `
		SELECT c.id, c.content, c.blog_id, c.user_id, u.username, c.deleted, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.blog_id = $1`
	if !includeDeleted {
		query += ` AND c.deleted = FALSE`
	}
	query += `
		ORDER BY c.created_at ASC`

	rows, err := m.db.QueryContext(ctx, query, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var comment Comment
		err := rows.Scan(&comment.ID, &comment.Content, &comment.BlogID, &comment.UserID, &comment.Username, &comment.Deleted, &comment.CreatedAt, &comment.UpdatedAt)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

func (m *BlogModel) softDeleteComment(ctx context.Context, blogID, commentID int) error {
	query := `
		UPDATE comments
		SET deleted = TRUE, updated_at = now()
		WHERE id = $1 AND blog_id = $2 AND deleted = FALSE`

	res, err := m.db.ExecContext(ctx, query, commentID, blogID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}
