package repository

import (
	"context"
	"testing"
	"time"

	"socialnest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	users := createUsers(t, db, "alice", "bob")
	post := createPostAt(t, db, users[0].ID, "post", time.Now().UTC())

	first := &models.Comment{PostID: post.ID, UserID: users[1].ID, Text: "first"}
	second := &models.Comment{PostID: post.ID, UserID: users[0].ID, Text: "second"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Text)

	grouped, err := repo.ListByPosts(ctx, []uint{post.ID})
	require.NoError(t, err)
	require.Len(t, grouped[post.ID], 2)
	assert.Equal(t, first.ID, grouped[post.ID][0].ID)

	require.NoError(t, repo.Delete(ctx, first.ID))
	_, err = repo.GetByID(ctx, first.ID)
	assert.True(t, models.IsKind(err, models.KindNotFound))

	err = repo.Delete(ctx, first.ID)
	assert.True(t, models.IsKind(err, models.KindNotFound))

	empty, err := repo.ListByPosts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
