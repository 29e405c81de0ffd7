package blogservice

import (
	"context"
	"errors"
)

var ErrInvalidReaction = errors.New("invalid reaction code")

// Allowed emoji codes 👍 ❤️ 😂 😲 😢 😡
var allowedReactions = map[int]struct{}{
	128077: {},
	10084:  {},
	128514: {},
	128562: {},
	128546: {},
	128545: {},
}

// upsertReaction enforces the one-reaction-per-user-per-blog rule at the
// database: a second reaction from the same user overwrites the code on
// the existing row instead of inserting. Reacting again also revives a
// soft-deleted reaction.
func (m *BlogModel) upsertReaction(ctx context.Context, reaction *Reaction) error {
	query := `
		INSERT INTO reactions (code, blog_id, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (blog_id, user_id)
		DO UPDATE SET code = EXCLUDED.code, deleted = FALSE, updated_at = now()
		RETURNING id, deleted, created_at, updated_at`

	err := m.db.QueryRowContext(ctx, query, reaction.Code, reaction.BlogID, reaction.UserID).Scan(&reaction.ID, &reaction.Deleted, &reaction.CreatedAt, &reaction.UpdatedAt)
	if err != nil {
		switch {
		case ForeignKeyError(err, "reactions_blog_id_fkey"):
			return ErrRecordNotFound
		case ForeignKeyError(err, "reactions_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) softDeleteReaction(ctx context.Context, blogID, userID int) error {
	query := `
		UPDATE reactions
		SET deleted = TRUE, updated_at = now()
		WHERE blog_id = $1 AND user_id = $2 AND deleted = FALSE`

	res, err := m.db.ExecContext(ctx, query, blogID, userID)
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
