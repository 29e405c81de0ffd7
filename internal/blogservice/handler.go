package blogservice

import (
	"context"
	"database/sql"

	"github.com/sushihentaime/blogmate/internal/common"
	"github.com/sushihentaime/blogmate/internal/userservice"
)

func NewBlogService(db *sql.DB, c *common.Cache) *BlogService {
	return &BlogService{m: newBlogModel(db), c: c}
}

type CreateBlogRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateBlog creates a new blog post. Only writers and admins may post.
func (s *BlogService) CreateBlog(ctx context.Context, actor *userservice.User, req *CreateBlogRequest) (*Blog, error) {
	if actor == nil || !actor.Role.CanWriteBlog() {
		return nil, ErrNotPermitted
	}

	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog := &Blog{Title: req.Title, Content: req.Content, UserID: actor.ID, Username: actor.Username}
	if err := s.m.insertBlog(ctx, blog); err != nil {
		return nil, err
	}

	s.invalidateListings()
	return blog, nil
}

// GetBlog returns a blog post with its comment count, reaction summary,
// and the actor's own reaction attached. Soft-deleted posts are only
// visible to admins.
func (s *BlogService) GetBlog(ctx context.Context, actor *userservice.User, id int) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	// only the anonymous view is cacheable: IsOwner and UserReaction
	// vary per actor, and admins see soft-deleted rows
	cacheable := actor == nil
	if cacheable {
		if cached, ok := s.c.Get(common.CacheKeyBlog(id)); ok {
			if blog, ok := cached.(*Blog); ok {
				return blog, nil
			}
		}
	}

	blog, err := s.m.getBlogByID(ctx, id, canSeeDeleted(actor))
	if err != nil {
		return nil, err
	}

	counts, err := s.m.commentCounts(ctx, []int{blog.ID}, canSeeDeleted(actor))
	if err != nil {
		return nil, err
	}
	blog.CommentCount = counts[blog.ID]

	_, summaries, userReactions, err := s.m.reactionData(ctx, []int{blog.ID}, actorID(actor), canSeeDeleted(actor))
	if err != nil {
		return nil, err
	}
	blog.ReactionSummary = summaries[blog.ID]
	if code, ok := userReactions[blog.ID]; ok {
		blog.UserReaction = &code
	}
	blog.IsOwner = actor != nil && actor.ID == blog.UserID

	if cacheable {
		s.c.Set(common.CacheKeyBlog(id), blog)
	}

	return blog, nil
}

// GetBlogs lists visible blog posts. The anonymous default listing (no
// search, newest-first) is cached; every write path invalidates it.
func (s *BlogService) GetBlogs(ctx context.Context, actor *userservice.User, f BlogFilter) ([]Blog, error) {
	f = normalizeFilter(f)

	cacheable := f.Search == "" && f.SortBy == SortNewest && !canSeeDeleted(actor) && actor == nil
	if cacheable {
		if cached, ok := s.c.Get(common.CacheKeyBlogs(f.Limit, f.Offset)); ok {
			if blogs, ok := cached.([]Blog); ok {
				return blogs, nil
			}
		}
	}

	blogs, err := s.m.getBlogs(ctx, f, canSeeDeleted(actor))
	if err != nil {
		return nil, err
	}

	if err := s.attachAggregates(ctx, actor, blogs); err != nil {
		return nil, err
	}

	if cacheable {
		s.c.Set(common.CacheKeyBlogs(f.Limit, f.Offset), blogs)
	}

	return blogs, nil
}

// GetBlogsByUser returns all posts by a user, newest first.
func (s *BlogService) GetBlogsByUser(ctx context.Context, actor *userservice.User, userID int) ([]Blog, error) {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blogs, err := s.m.getBlogsByUserID(ctx, userID, canSeeDeleted(actor))
	if err != nil {
		return nil, err
	}

	if err := s.attachAggregates(ctx, actor, blogs); err != nil {
		return nil, err
	}

	return blogs, nil
}

type UpdateBlogRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateBlog replaces the title and content of a post. Only the owner or
// an admin may update.
func (s *BlogService) UpdateBlog(ctx context.Context, actor *userservice.User, id int, req *UpdateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog, err := s.m.getBlogByID(ctx, id, canSeeDeleted(actor))
	if err != nil {
		return nil, err
	}

	if !isOwnerOrAdmin(actor, blog.UserID) {
		return nil, ErrNotPermitted
	}

	blog.Title = req.Title
	blog.Content = req.Content
	if err := s.m.updateBlog(ctx, blog); err != nil {
		return nil, err
	}

	s.invalidateBlog(blog.ID)
	return blog, nil
}

// DeleteBlog soft-deletes a post. Only the owner or an admin may delete.
// Deleting an already-deleted post is a no-op for admins, who are the
// only callers that can still address it.
func (s *BlogService) DeleteBlog(ctx context.Context, actor *userservice.User, id int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	blog, err := s.m.getBlogByID(ctx, id, canSeeDeleted(actor))
	if err != nil {
		return err
	}

	if !isOwnerOrAdmin(actor, blog.UserID) {
		return ErrNotPermitted
	}

	if err := s.m.softDeleteBlog(ctx, blog.ID); err != nil {
		return err
	}

	s.invalidateBlog(blog.ID)
	return nil
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

// AddComment adds a comment to a visible blog post.
func (s *BlogService) AddComment(ctx context.Context, actor *userservice.User, blogID int, req *AddCommentRequest) (*Comment, error) {
	if actor == nil {
		return nil, ErrNotPermitted
	}

	v := common.NewValidator()
	validateInt(v, blogID, "blog_id")
	validateCommentContent(v, req.Content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	// the parent must be visible to the actor, not just exist
	if _, err := s.m.getBlogByID(ctx, blogID, canSeeDeleted(actor)); err != nil {
		return nil, err
	}

	comment := &Comment{Content: req.Content, BlogID: blogID, UserID: actor.ID, Username: actor.Username}
	if err := s.m.insertComment(ctx, comment); err != nil {
		return nil, err
	}

	s.invalidateBlog(blogID)
	return comment, nil
}

// GetComments lists the comments of a visible blog post, oldest first.
func (s *BlogService) GetComments(ctx context.Context, actor *userservice.User, blogID int) ([]Comment, error) {
	v := common.NewValidator()
	validateInt(v, blogID, "blog_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if _, err := s.m.getBlogByID(ctx, blogID, canSeeDeleted(actor)); err != nil {
		return nil, err
	}

	return s.m.getComments(ctx, blogID, canSeeDeleted(actor))
}

// DeleteComment soft-deletes a comment. Only the comment author or an
// admin may delete.
func (s *BlogService) DeleteComment(ctx context.Context, actor *userservice.User, blogID, commentID int) error {
	v := common.NewValidator()
	validateInt(v, blogID, "blog_id")
	validateInt(v, commentID, "comment_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	comment, err := s.m.getCommentByID(ctx, blogID, commentID, canSeeDeleted(actor))
	if err != nil {
		return err
	}

	if !isOwnerOrAdmin(actor, comment.UserID) {
		return ErrNotPermitted
	}

	if comment.Deleted {
		return nil
	}

	if err := s.m.softDeleteComment(ctx, blogID, commentID); err != nil {
		return err
	}

	s.invalidateBlog(blogID)
	return nil
}

type ReactRequest struct {
	Code int `json:"code"`
}

// React records the actor's reaction to a visible blog post. A second
// reaction from the same actor replaces the first.
func (s *BlogService) React(ctx context.Context, actor *userservice.User, blogID int, req *ReactRequest) (*Reaction, error) {
	if actor == nil {
		return nil, ErrNotPermitted
	}

	v := common.NewValidator()
	validateInt(v, blogID, "blog_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if _, ok := allowedReactions[req.Code]; !ok {
		return nil, ErrInvalidReaction
	}

	if _, err := s.m.getBlogByID(ctx, blogID, canSeeDeleted(actor)); err != nil {
		return nil, err
	}

	reaction := &Reaction{Code: req.Code, BlogID: blogID, UserID: actor.ID}
	if err := s.m.upsertReaction(ctx, reaction); err != nil {
		return nil, err
	}

	s.invalidateBlog(blogID)
	return reaction, nil
}

// GetReactions returns the reactions of a visible blog post together
// with a per-code summary and the actor's own reaction.
func (s *BlogService) GetReactions(ctx context.Context, actor *userservice.User, blogID int) (*BlogReactions, error) {
	v := common.NewValidator()
	validateInt(v, blogID, "blog_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if _, err := s.m.getBlogByID(ctx, blogID, canSeeDeleted(actor)); err != nil {
		return nil, err
	}

	reactions, summaries, userReactions, err := s.m.reactionData(ctx, []int{blogID}, actorID(actor), canSeeDeleted(actor))
	if err != nil {
		return nil, err
	}

	result := &BlogReactions{
		Reactions: reactions[blogID],
		Summary:   summaries[blogID],
	}
	if code, ok := userReactions[blogID]; ok {
		result.UserReaction = &code
	}

	return result, nil
}

// RemoveReaction soft-deletes a reaction. With ofUserID set the actor is
// removing someone else's reaction, which only admins may do.
func (s *BlogService) RemoveReaction(ctx context.Context, actor *userservice.User, blogID int, ofUserID *int) error {
	if actor == nil {
		return ErrNotPermitted
	}

	v := common.NewValidator()
	validateInt(v, blogID, "blog_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	targetID := actor.ID
	if ofUserID != nil && *ofUserID != actor.ID {
		if !actor.Role.IsAdmin() {
			return ErrNotPermitted
		}
		targetID = *ofUserID
	}

	if _, err := s.m.getBlogByID(ctx, blogID, canSeeDeleted(actor)); err != nil {
		return err
	}

	if err := s.m.softDeleteReaction(ctx, blogID, targetID); err != nil {
		return err
	}

	s.invalidateBlog(blogID)
	return nil
}

// BulkComments returns the comments of many blogs keyed by blog ID.
func (s *BlogService) BulkComments(ctx context.Context, actor *userservice.User, blogIDs []int) (map[int][]Comment, error) {
	v := common.NewValidator()
	validateIDList(v, blogIDs)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.bulkComments(ctx, blogIDs, canSeeDeleted(actor))
}

// BulkReactions returns the reactions of many blogs keyed by blog ID,
// each with its summary and the actor's own reaction.
func (s *BlogService) BulkReactions(ctx context.Context, actor *userservice.User, blogIDs []int) (map[int]BlogReactions, error) {
	v := common.NewValidator()
	validateIDList(v, blogIDs)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	reactions, summaries, userReactions, err := s.m.reactionData(ctx, blogIDs, actorID(actor), canSeeDeleted(actor))
	if err != nil {
		return nil, err
	}

	result := make(map[int]BlogReactions, len(blogIDs))
	for _, id := range blogIDs {
		entry := BlogReactions{
			Reactions: reactions[id],
			Summary:   summaries[id],
		}
		if code, ok := userReactions[id]; ok {
			c := code
			entry.UserReaction = &c
		}
		result[id] = entry
	}

	return result, nil
}

// attachAggregates fills the comment count, reaction summary, user
// reaction, and ownership flag of each blog in place.
func (s *BlogService) attachAggregates(ctx context.Context, actor *userservice.User, blogs []Blog) error {
	if len(blogs) == 0 {
		return nil
	}

	ids := make([]int, len(blogs))
	for i := range blogs {
		ids[i] = blogs[i].ID
	}

	counts, err := s.m.commentCounts(ctx, ids, canSeeDeleted(actor))
	if err != nil {
		return err
	}

	_, summaries, userReactions, err := s.m.reactionData(ctx, ids, actorID(actor), canSeeDeleted(actor))
	if err != nil {
		return err
	}

	for i := range blogs {
		b := &blogs[i]
		b.CommentCount = counts[b.ID]
		b.ReactionSummary = summaries[b.ID]
		if code, ok := userReactions[b.ID]; ok {
			c := code
			b.UserReaction = &c
		}
		b.IsOwner = actor != nil && actor.ID == b.UserID
	}

	return nil
}

func (s *BlogService) invalidateBlog(id int) {
	s.c.Delete(common.CacheKeyBlog(id))
	s.invalidateListings()
}

// invalidateListings drops every cached listing page. The cache only
// holds anonymous default listings, so a flush is cheap and correct.
func (s *BlogService) invalidateListings() {
	s.c.Flush()
}

func normalizeFilter(f BlogFilter) BlogFilter {
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	switch f.SortBy {
	case SortMostCommented, SortMostReacted:
	default:
		f.SortBy = SortNewest
	}
	return f
}

func actorID(actor *userservice.User) int {
	if actor == nil {
		return 0
	}
	return actor.ID
}
