package blogservice

import (
	"context"

	"github.com/lib/pq"
)

// bulkComments fetches the comments of many blogs in one query, used by
// the bulk endpoint to avoid an N+1 fan-out when rendering list pages.
func (m *BlogModel) bulkComments(ctx context.Context, blogIDs []int, includeDeleted bool) (map[int][]Comment, error) {
	query := `
		SELECT c.id, c.content, c.blog_id, c.user_id, u.username, c.deleted, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.blog_id = ANY($1)`
	if !includeDeleted {
		query += ` AND c.deleted = FALSE`
	}
	query += `
		ORDER BY c.blog_id, c.created_at ASC`

	rows, err := m.db.QueryContext(ctx, query, pq.Array(blogIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	commentMap := make(map[int][]Comment)
	for rows.Next() {
		var comment Comment
		err := rows.Scan(&comment.ID, &comment.Content, &comment.BlogID, &comment.UserID, &comment.Username, &comment.Deleted, &comment.CreatedAt, &comment.UpdatedAt)
		if err != nil {
			return nil, err
		}
		commentMap[comment.BlogID] = append(commentMap[comment.BlogID], comment)
	}

	return commentMap, rows.Err()
}

func (m *BlogModel) commentCounts(ctx context.Context, blogIDs []int, includeDeleted bool) (map[int]int, error) {
	query := `
		SELECT blog_id, COUNT(*)
		FROM comments
		WHERE blog_id = ANY($1)`
	if !includeDeleted {
		query += ` AND deleted = FALSE`
	}
	query += `
		GROUP BY blog_id`

	rows, err := m.db.QueryContext(ctx, query, pq.Array(blogIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var blogID, count int
		if err := rows.Scan(&blogID, &count); err != nil {
			return nil, err
		}
		counts[blogID] = count
	}

	return counts, rows.Err()
}

// reactionData computes, in one pass per shape, everything a list page
// needs: the raw reactions per blog, the per-code histogram per blog, and
// the requester's own reaction per blog.
func (m *BlogModel) reactionData(ctx context.Context, blogIDs []int, requesterID int, includeDeleted bool) (map[int][]Reaction, map[int][]ReactionCount, map[int]int, error) {
	query := `
		SELECT id, code, blog_id, user_id, deleted, created_at, updated_at
		FROM reactions
		WHERE blog_id = ANY($1)`
	if !includeDeleted {
		query += ` AND deleted = FALSE`
	}
	query += `
		ORDER BY blog_id, created_at ASC`

	rows, err := m.db.QueryContext(ctx, query, pq.Array(blogIDs))
	if err != nil {
		return nil, nil, nil, err
	}
	defer rows.Close()

	reactionMap := make(map[int][]Reaction)
	summaryMap := make(map[int][]ReactionCount)
	userMap := make(map[int]int)
	counts := make(map[int]map[int]int)

	for rows.Next() {
		var r Reaction
		err := rows.Scan(&r.ID, &r.Code, &r.BlogID, &r.UserID, &r.Deleted, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, nil, nil, err
		}

		reactionMap[r.BlogID] = append(reactionMap[r.BlogID], r)

		if counts[r.BlogID] == nil {
			counts[r.BlogID] = make(map[int]int)
		}
		counts[r.BlogID][r.Code]++

		if requesterID > 0 && r.UserID == requesterID && !r.Deleted {
			userMap[r.BlogID] = r.Code
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, nil, err
	}

	for blogID, byCode := range counts {
		for _, code := range reactionCodesOrdered {
			if n, ok := byCode[code]; ok {
				summaryMap[blogID] = append(summaryMap[blogID], ReactionCount{Code: code, Count: n})
			}
		}
	}

	return reactionMap, summaryMap, userMap, nil
}

// fixed iteration order keeps summaries stable across requests
var reactionCodesOrdered = []int{128077, 10084, 128514, 128562, 128546, 128545}
