package blogservice

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/blogmate/internal/common"
	"github.com/sushihentaime/blogmate/internal/userservice"
)

// createTestUser is a helper function to create a verified user with the
// given role directly in the database.
func createTestUser(db *sql.DB, username string, role userservice.Role) (*userservice.User, error) {
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (username, email, password, role, verified)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id`

	u := &userservice.User{Username: username, Email: username + "@example.com", Role: role, Verified: true}
	err = db.QueryRow(query, u.Username, u.Email, randomBytes, string(role)).Scan(&u.ID)
	if err != nil {
		return nil, err
	}

	return u, nil
}

func setupTestEnvironment(t *testing.T) (*BlogService, *sql.DB, func() error) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	cleanup := func() error {
		_, err := db.Exec("DELETE FROM blogs")
		if err != nil {
			return err
		}

		cache.Flush()

		return nil
	}

	return NewBlogService(db, cache), db, cleanup
}

func createTestBlog(s *BlogService, owner *userservice.User, title string) (*Blog, error) {
	return s.CreateBlog(context.Background(), owner, &CreateBlogRequest{
		Title:   title,
		Content: "This is a test blog.",
	})
}

func TestCreateBlog(t *testing.T) {
	s, db, cleanup := setupTestEnvironment(t)

	writer, err := createTestUser(db, "writer1", userservice.RoleWriter)
	assert.NoError(t, err)
	reader, err := createTestUser(db, "reader1", userservice.RoleReader)
	assert.NoError(t, err)
	admin, err := createTestUser(db, "admin1", userservice.RoleAdmin)
	assert.NoError(t, err)

	testCases := []struct {
		name        string
		actor       *userservice.User
		req         *CreateBlogRequest
		expectedErr error
	}{
		{
			name:  "writer can create blog",
			actor: writer,
			req: &CreateBlogRequest{
				Title:   "Test Blog",
				Content: "This is a test blog.",
			},
			expectedErr: nil,
		},
		{
			name:  "admin can create blog",
			actor: admin,
			req: &CreateBlogRequest{
				Title:   "Admin Blog",
				Content: "This is a test blog.",
			},
			expectedErr: nil,
		},
		{
			name:  "reader cannot create blog",
			actor: reader,
			req: &CreateBlogRequest{
				Title:   "Reader Blog",
				Content: "This is a test blog.",
			},
			expectedErr: ErrNotPermitted,
		},
		{
			name:  "anonymous cannot create blog",
			actor: nil,
			req: &CreateBlogRequest{
				Title:   "Anon Blog",
				Content: "This is a test blog.",
			},
			expectedErr: ErrNotPermitted,
		},
		{
			name:  "missing title",
			actor: writer,
			req: &CreateBlogRequest{
				Content: "This is a test blog.",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"title": "must be provided"}},
		},
		{
			name:  "missing content",
			actor: writer,
			req: &CreateBlogRequest{
				Title: "No Content",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"content": "must be provided"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			blog, err := s.CreateBlog(context.Background(), tc.actor, tc.req)
			if tc.expectedErr != nil {
				assert.ErrorContains(t, err, tc.expectedErr.Error())
				return
			}

			assert.NoError(t, err)
			assert.NotZero(t, blog.ID)
			assert.Equal(t, tc.actor.ID, blog.UserID)
			assert.Equal(t, tc.req.Title, blog.Title)
		})
	}

	assert.NoError(t, cleanup())
}

func TestSoftDeleteVisibility(t *testing.T) {
	s, db, cleanup := setupTestEnvironment(t)

	writer, err := createTestUser(db, "writer1", userservice.RoleWriter)
	assert.NoError(t, err)
	reader, err := createTestUser(db, "reader1", userservice.RoleReader)
	assert.NoError(t, err)
	admin, err := createTestUser(db, "admin1", userservice.RoleAdmin)
	assert.NoError(t, err)

	blog, err := createTestBlog(s, writer, "Vanishing Blog")
	assert.NoError(t, err)

	err = s.DeleteBlog(context.Background(), writer, blog.ID)
	assert.NoError(t, err)

	// readers, anonymous users, and the owner no longer see the post
	_, err = s.GetBlog(context.Background(), reader, blog.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = s.GetBlog(context.Background(), nil, blog.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = s.GetBlog(context.Background(), writer, blog.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	// admins still see it, flagged
	got, err := s.GetBlog(context.Background(), admin, blog.ID)
	assert.NoError(t, err)
	assert.True(t, got.Deleted)

	// and it drops out of the reader listing
	blogs, err := s.GetBlogs(context.Background(), reader, BlogFilter{})
	assert.NoError(t, err)
	assert.Empty(t, blogs)

	adminBlogs, err := s.GetBlogs(context.Background(), admin, BlogFilter{})
	assert.NoError(t, err)
	assert.Len(t, adminBlogs, 1)

	assert.NoError(t, cleanup())
}

func TestDeleteBlogPermissions(t *testing.T) {
	s, db, cleanup := setupTestEnvironment(t)

	writer, err := createTestUser(db, "writer1", userservice.RoleWriter)
	assert.NoError(t, err)
	other, err := createTestUser(db, "writer2", userservice.RoleWriter)
	assert.NoError(t, err)
	admin, err := createTestUser(db, "admin1", userservice.RoleAdmin)
	assert.NoError(t, err)

	blog, err := createTestBlog(s, writer, "Protected Blog")
	assert.NoError(t, err)

	err = s.DeleteBlog(context.Background(), other, blog.ID)
	assert.ErrorIs(t, err, ErrNotPermitted)

	err = s.DeleteBlog(context.Background(), admin, blog.ID)
	assert.NoError(t, err)

	// deleting an already-deleted post is a no-op for admins
	err = s.DeleteBlog(context.Background(), admin, blog.ID)
	assert.NoError(t, err)

	// non-admins cannot even address the deleted post
	err = s.DeleteBlog(context.Background(), writer, blog.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	assert.NoError(t, cleanup())
}

func TestUpdateBlog(t *testing.T) {
	s, db, cleanup := setupTestEnvironment(t)

	writer, err := createTestUser(db, "writer1", userservice.RoleWriter)
	assert.NoError(t, err)
	other, err := createTestUser(db, "writer2", userservice.RoleWriter)
	assert.NoError(t, err)
	admin, err := createTestUser(db, "admin1", userservice.RoleAdmin)
	assert.NoError(t, err)

	blog, err := createTestBlog(s, writer, "Original Title")
	assert.NoError(t, err)

	_, err = s.UpdateBlog(context.Background(), other, blog.ID, &UpdateBlogRequest{
		Title:   "Hijacked Title",
		Content: "changed",
	})
	assert.ErrorIs(t, err, ErrNotPermitted)

	updated, err := s.UpdateBlog(context.Background(), writer, blog.ID, &UpdateBlogRequest{
		Title:   "Updated Title",
		Content: "updated content",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Updated Title", updated.Title)
	assert.Greater(t, updated.Version, blog.Version)

	fromAdmin, err := s.UpdateBlog(context.Background(), admin, blog.ID, &UpdateBlogRequest{
		Title:   "Admin Title",
		Content: "admin content",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Admin Title", fromAdmin.Title)

	assert.NoError(t, cleanup())
}

func TestComments(t *testing.T) {
	s, db, cleanup := setupTestEnvironment(t)

	writer, err := createTestUser(db, "writer1", userservice.RoleWriter)
	assert.NoError(t, err)
	reader, err := createTestUser(db, "reader1", userservice.RoleReader)
	assert.NoError(t, err)
	admin, err := createTestUser(db, "admin1", userservice.RoleAdmin)
	assert.NoError(t, err)

	blog, err := createTestBlog(s, writer, "Commented Blog")
	assert.NoError(t, err)

	comment, err := s.AddComment(context.Background(), reader, blog.ID, &AddCommentRequest{Content: "first!"})
	assert.NoError(t, err)
	assert.Equal(t, reader.ID, comment.UserID)

	_, err = s.AddComment(context.Background(), nil, blog.ID, &AddCommentRequest{Content: "anon"})
	assert.ErrorIs(t, err, ErrNotPermitted)

	_, err = s.AddComment(context.Background(), reader, 999999, &AddCommentRequest{Content: "ghost"})
	assert.ErrorIs(t, err, ErrRecordNotFound)

	comments, err := s.GetComments(context.Background(), reader, blog.ID)
	assert.NoError(t, err)
	assert.Len(t, comments, 1)
	assert.Equal(t, "first!", comments[0].Content)

	got, err := s.GetBlog(context.Background(), reader, blog.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, got.CommentCount)

	// only the author or an admin may delete
	err = s.DeleteComment(context.Background(), writer, blog.ID, comment.ID)
	assert.ErrorIs(t, err, ErrNotPermitted)

	err = s.DeleteComment(context.Background(), reader, blog.ID, comment.ID)
	assert.NoError(t, err)

	comments, err = s.GetComments(context.Background(), reader, blog.ID)
	assert.NoError(t, err)
	assert.Empty(t, comments)

	// admin still sees the soft-deleted comment
	adminComments, err := s.GetComments(context.Background(), admin, blog.ID)
	assert.NoError(t, err)
	assert.Len(t, adminComments, 1)
	assert.True(t, adminComments[0].Deleted)

	assert.NoError(t, cleanup())
}

func TestReactionUpsert(t *testing.T) {
	s, db, cleanup := setupTestEnvironment(t)

	writer, err := createTestUser(db, "writer1", userservice.RoleWriter)
	assert.NoError(t, err)
	reader, err := createTestUser(db, "reader1", userservice.RoleReader)
	assert.NoError(t, err)

	blog, err := createTestBlog(s, writer, "Reacted Blog")
	assert.NoError(t, err)

	first, err := s.React(context.Background(), reader, blog.ID, &ReactRequest{Code: 128077})
	assert.NoError(t, err)

	// a second reaction replaces the first instead of adding a row
	second, err := s.React(context.Background(), reader, blog.ID, &ReactRequest{Code: 10084})
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM reactions WHERE blog_id = $1 AND user_id = $2", blog.ID, reader.ID).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	result, err := s.GetReactions(context.Background(), reader, blog.ID)
	assert.NoError(t, err)
	assert.Len(t, result.Reactions, 1)
	assert.Equal(t, []ReactionCount{{Code: 10084, Count: 1}}, result.Summary)
	if assert.NotNil(t, result.UserReaction) {
		assert.Equal(t, 10084, *result.UserReaction)
	}

	_, err = s.React(context.Background(), reader, blog.ID, &ReactRequest{Code: 1})
	assert.ErrorIs(t, err, ErrInvalidReaction)

	assert.NoError(t, cleanup())
}

func TestGetBlogCaching(t *testing.T) {
	s, db, cleanup := setupTestEnvironment(t)

	writer, err := createTestUser(db, "writer1", userservice.RoleWriter)
	assert.NoError(t, err)
	blog, err := createTestBlog(s, writer, "Cached Blog")
	assert.NoError(t, err)

	// anonymous lookup populates the cache
	got, err := s.GetBlog(context.Background(), nil, blog.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, got.CommentCount)

	_, ok := s.c.Get(common.CacheKeyBlog(blog.ID))
	assert.True(t, ok)

	// a write to the blog drops the cached entry
	_, err = s.AddComment(context.Background(), writer, blog.ID, &AddCommentRequest{Content: "first"})
	assert.NoError(t, err)

	_, ok = s.c.Get(common.CacheKeyBlog(blog.ID))
	assert.False(t, ok)

	got, err = s.GetBlog(context.Background(), nil, blog.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, got.CommentCount)

	// owner lookups bypass the cache so IsOwner stays per-actor
	got, err = s.GetBlog(context.Background(), writer, blog.ID)
	assert.NoError(t, err)
	assert.True(t, got.IsOwner)

	// deletion invalidates too, a stale copy must not survive it
	err = s.DeleteBlog(context.Background(), writer, blog.ID)
	assert.NoError(t, err)

	_, err = s.GetBlog(context.Background(), nil, blog.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	assert.NoError(t, cleanup())
}

func TestRemoveReaction(t *testing.T) {
	s, db, cleanup := setupTestEnvironment(t)

	writer, err := createTestUser(db, "writer1", userservice.RoleWriter)
	assert.NoError(t, err)
	reader, err := createTestUser(db, "reader1", userservice.RoleReader)
	assert.NoError(t, err)
	admin, err := createTestUser(db, "admin1", userservice.RoleAdmin)
	assert.NoError(t, err)

	blog, err := createTestBlog(s, writer, "Reacted Blog")
	assert.NoError(t, err)

	_, err = s.React(context.Background(), reader, blog.ID, &ReactRequest{Code: 128514})
	assert.NoError(t, err)

	// a non-admin cannot remove someone else's reaction
	err = s.RemoveReaction(context.Background(), writer, blog.ID, &reader.ID)
	assert.ErrorIs(t, err, ErrNotPermitted)

	err = s.RemoveReaction(context.Background(), reader, blog.ID, nil)
	assert.NoError(t, err)

	result, err := s.GetReactions(context.Background(), reader, blog.ID)
	assert.NoError(t, err)
	assert.Empty(t, result.Reactions)
	assert.Nil(t, result.UserReaction)

	// removing again fails: nothing live to remove
	err = s.RemoveReaction(context.Background(), reader, blog.ID, nil)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	// reacting again revives the soft-deleted row
	_, err = s.React(context.Background(), reader, blog.ID, &ReactRequest{Code: 128546})
	assert.NoError(t, err)

	// admins may remove anyone's reaction
	err = s.RemoveReaction(context.Background(), admin, blog.ID, &reader.ID)
	assert.NoError(t, err)

	assert.NoError(t, cleanup())
}

func TestGetBlogsSortAndSearch(t *testing.T) {
	s, db, cleanup := setupTestEnvironment(t)

	writer, err := createTestUser(db, "writer1", userservice.RoleWriter)
	assert.NoError(t, err)
	reader, err := createTestUser(db, "reader1", userservice.RoleReader)
	assert.NoError(t, err)

	var blogs []*Blog
	for i := 1; i <= 3; i++ {
		b, err := createTestBlog(s, writer, fmt.Sprintf("Go Notes %d", i))
		assert.NoError(t, err)
		blogs = append(blogs, b)
	}
	other, err := createTestBlog(s, writer, "Cooking Diary")
	assert.NoError(t, err)

	// the middle post gets comments, the last post gets reactions
	_, err = s.AddComment(context.Background(), reader, blogs[1].ID, &AddCommentRequest{Content: "nice"})
	assert.NoError(t, err)
	_, err = s.AddComment(context.Background(), writer, blogs[1].ID, &AddCommentRequest{Content: "thanks"})
	assert.NoError(t, err)
	_, err = s.React(context.Background(), reader, blogs[2].ID, &ReactRequest{Code: 128077})
	assert.NoError(t, err)

	byNewest, err := s.GetBlogs(context.Background(), reader, BlogFilter{})
	assert.NoError(t, err)
	assert.Len(t, byNewest, 4)
	assert.Equal(t, other.ID, byNewest[0].ID)

	byComments, err := s.GetBlogs(context.Background(), reader, BlogFilter{SortBy: SortMostCommented})
	assert.NoError(t, err)
	assert.Equal(t, blogs[1].ID, byComments[0].ID)
	assert.Equal(t, 2, byComments[0].CommentCount)

	byReactions, err := s.GetBlogs(context.Background(), reader, BlogFilter{SortBy: SortMostReacted})
	assert.NoError(t, err)
	assert.Equal(t, blogs[2].ID, byReactions[0].ID)

	matched, err := s.GetBlogs(context.Background(), reader, BlogFilter{Search: "go notes"})
	assert.NoError(t, err)
	assert.Len(t, matched, 3)

	paged, err := s.GetBlogs(context.Background(), reader, BlogFilter{Limit: 2, Offset: 2})
	assert.NoError(t, err)
	assert.Len(t, paged, 2)

	byUser, err := s.GetBlogsByUser(context.Background(), reader, writer.ID)
	assert.NoError(t, err)
	assert.Len(t, byUser, 4)

	assert.NoError(t, cleanup())
}

func TestBulkEndpoints(t *testing.T) {
	s, db, cleanup := setupTestEnvironment(t)

	writer, err := createTestUser(db, "writer1", userservice.RoleWriter)
	assert.NoError(t, err)
	reader, err := createTestUser(db, "reader1", userservice.RoleReader)
	assert.NoError(t, err)

	first, err := createTestBlog(s, writer, "First Blog")
	assert.NoError(t, err)
	second, err := createTestBlog(s, writer, "Second Blog")
	assert.NoError(t, err)

	_, err = s.AddComment(context.Background(), reader, first.ID, &AddCommentRequest{Content: "on first"})
	assert.NoError(t, err)
	_, err = s.React(context.Background(), reader, first.ID, &ReactRequest{Code: 128077})
	assert.NoError(t, err)
	_, err = s.React(context.Background(), writer, first.ID, &ReactRequest{Code: 128077})
	assert.NoError(t, err)

	ids := []int{first.ID, second.ID}

	comments, err := s.BulkComments(context.Background(), reader, ids)
	assert.NoError(t, err)
	assert.Len(t, comments[first.ID], 1)
	assert.Empty(t, comments[second.ID])

	reactions, err := s.BulkReactions(context.Background(), reader, ids)
	assert.NoError(t, err)
	assert.Len(t, reactions[first.ID].Reactions, 2)
	assert.Equal(t, []ReactionCount{{Code: 128077, Count: 2}}, reactions[first.ID].Summary)
	if assert.NotNil(t, reactions[first.ID].UserReaction) {
		assert.Equal(t, 128077, *reactions[first.ID].UserReaction)
	}
	assert.Empty(t, reactions[second.ID].Reactions)

	_, err = s.BulkComments(context.Background(), reader, nil)
	assert.ErrorContains(t, err, "must be provided")

	assert.NoError(t, cleanup())
}
