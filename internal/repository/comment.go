package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	GetByPostID(ctx context.Context, postID uint) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uint) error
	DeleteByPost(ctx context.Context, postID uint) (int64, error)
}

type commentRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, metrics: observability.NewDatabaseMetrics(db)}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "comments.create", "comments")
	defer span.End()
	defer r.metrics.TrackQuery("create", "comments")()

	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		span.RecordError(err)
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "comments.get_by_id", "comments")
	defer span.End()
	defer r.metrics.TrackQuery("get_by_id", "comments")()

	var comment models.Comment
	if err := withAuthor(r.db.WithContext(ctx)).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		span.RecordError(err)
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

// GetByPostID lists comments for a post in insertion order.
func (r *commentRepository) GetByPostID(ctx context.Context, postID uint) ([]*models.Comment, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "comments.get_by_post_id", "comments")
	defer span.End()
	defer r.metrics.TrackQuery("get_by_post_id", "comments")()

	var comments []*models.Comment
	if err := withAuthor(r.db.WithContext(ctx)).
		Where("post_id = ?", postID).
		Order("id ASC").
		Find(&comments).Error; err != nil {
		span.RecordError(err)
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "comments.update", "comments")
	defer span.End()
	defer r.metrics.TrackQuery("update", "comments")()

	if err := r.db.WithContext(ctx).Save(comment).Error; err != nil {
		span.RecordError(err)
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "comments.delete", "comments")
	defer span.End()
	defer r.metrics.TrackQuery("delete", "comments")()

	if err := r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error; err != nil {
		span.RecordError(err)
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteByPost removes all comments belonging to the post and reports how
// many rows were affected.
func (r *commentRepository) DeleteByPost(ctx context.Context, postID uint) (int64, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "comments.delete_by_post", "comments")
	defer span.End()
	defer r.metrics.TrackQuery("delete_by_post", "comments")()

	result := r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Comment{})
	if result.Error != nil {
		span.RecordError(result.Error)
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}
