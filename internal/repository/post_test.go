package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	t.Run("Success With Author Projection", func(t *testing.T) {
		postRows := sqlmock.NewRows([]string{"id", "title", "content", "author_id"}).
			AddRow(1, "First", "Hello", 7)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 ORDER BY "posts"."id" LIMIT $2`)).
			WithArgs(1, 1).
			WillReturnRows(postRows)

		// Preload fetches only id and username, never the password hash.
		authorRows := sqlmock.NewRows([]string{"id", "username"}).AddRow(7, "alice")
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","username" FROM "users" WHERE "users"."id" = $1`)).
			WithArgs(7).
			WillReturnRows(authorRows)

		post, err := repo.GetByID(ctx, 1)
		assert.NoError(t, err)
		require.NotNil(t, post)
		assert.Equal(t, "First", post.Title)
		assert.Equal(t, uint(7), post.AuthorID)
		assert.Equal(t, "alice", post.Author.Username)
		assert.Empty(t, post.Author.Password)
		assert.NoError(t, mock.ExpectationsWereMet())

		// The query latency histogram picks up repository calls.
		assert.Positive(t, testutil.CollectAndCount(observability.DatabaseQueryLatency))
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 ORDER BY "posts"."id" LIMIT $2`)).
			WithArgs(99, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		post, err := repo.GetByID(ctx, 99)
		assert.Nil(t, post)

		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, models.CodeNotFound, appErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostRepository_List(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	postRows := sqlmock.NewRows([]string{"id", "title", "author_id"}).
		AddRow(2, "Newer", 7).
		AddRow(1, "Older", 8)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" ORDER BY created_at DESC`)).
		WillReturnRows(postRows)

	authorRows := sqlmock.NewRows([]string{"id", "username"}).
		AddRow(7, "alice").
		AddRow(8, "bob")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","username" FROM "users" WHERE "users"."id" IN ($1,$2)`)).
		WithArgs(7, 8).
		WillReturnRows(authorRows)

	posts, err := repo.List(ctx)
	assert.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Newer", posts[0].Title)
	assert.Equal(t, "alice", posts[0].Author.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Delete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "posts" WHERE "posts"."id" = $1`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), 1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
