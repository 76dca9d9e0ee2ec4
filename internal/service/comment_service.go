package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

const maxCommentLen = 10000

// CommentService handles comment creation, retrieval, updates, and deletion.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	AuthorID uint
	PostID   uint
	Content  string
}

type UpdateCommentInput struct {
	CallerID  uint
	CommentID uint
	Content   *string
}

type DeleteCommentInput struct {
	CallerID  uint
	CommentID uint
}

// NewCommentService returns a new CommentService.
func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	ctx, span := observability.TraceServiceMethod(ctx, "comment_service", "create_comment")
	defer span.End()

	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Content too long (max 10000 characters)")
	}

	// The parent post must exist before a comment can attach to it.
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content:  in.Content,
		AuthorID: in.AuthorID,
		PostID:   in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	observability.CommentsCreatedTotal.Inc()

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// ListComments returns the post's comments in insertion order.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByPostID(ctx, postID)
}

// UpdateComment applies a partial update. Nil and empty content both keep the
// stored value.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	ctx, span := observability.TraceServiceMethod(ctx, "comment_service", "update_comment")
	defer span.End()

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}

	if comment.AuthorID != in.CallerID {
		return nil, models.NewUnauthorizedError("User not authorized")
	}

	if in.Content != nil && *in.Content != "" {
		if len(*in.Content) > maxCommentLen {
			return nil, models.NewValidationError("Content too long (max 10000 characters)")
		}
		comment.Content = *in.Content
	}

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	ctx, span := observability.TraceServiceMethod(ctx, "comment_service", "delete_comment")
	defer span.End()

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}

	if comment.AuthorID != in.CallerID {
		return models.NewUnauthorizedError("User not authorized")
	}

	return s.commentRepo.Delete(ctx, in.CommentID)
}
