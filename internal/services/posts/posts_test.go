package posts

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratosphere/internal/domain/models"
	"stratosphere/internal/storage"
)

type fakePostStore struct {
	mu    sync.Mutex
	posts map[string]models.Post
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: make(map[string]models.Post)}
}

func (f *fakePostStore) SavePost(_ context.Context, post models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[post.ID] = post
	return nil
}

func (f *fakePostStore) UpdatePost(_ context.Context, post models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[post.ID] = post
	return nil
}

func (f *fakePostStore) DeletePost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, id)
	return nil
}

func (f *fakePostStore) PostByID(_ context.Context, id string) (models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return models.Post{}, storage.ErrPostNotFound
	}
	return post, nil
}

func newTestPosts(store *fakePostStore) *Posts {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, store, store)
}

func TestCreatePost(t *testing.T) {
	store := newFakePostStore()
	p := newTestPosts(store)
	ctx := context.Background()

	id, err := p.CreatePost(ctx, "u1", "hello world", true)
	require.NoError(t, err)
	assert.Len(t, id, 27)

	post, err := store.PostByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u1", post.OwnerID)
	assert.Equal(t, "hello world", post.Content)
	assert.True(t, post.IsPublic)
}

func TestCreatePost_ContentLimits(t *testing.T) {
	store := newFakePostStore()
	p := newTestPosts(store)
	ctx := context.Background()

	_, err := p.CreatePost(ctx, "u1", "", true)
	require.ErrorIs(t, err, ErrEmptyContent)

	_, err = p.CreatePost(ctx, "u1", strings.Repeat("a", 501), true)
	require.ErrorIs(t, err, ErrContentTooLong)

	_, err = p.CreatePost(ctx, "u1", strings.Repeat("a", 500), true)
	require.NoError(t, err)
}

func TestEditPost(t *testing.T) {
	store := newFakePostStore()
	p := newTestPosts(store)
	ctx := context.Background()

	id, err := p.CreatePost(ctx, "u1", "before", true)
	require.NoError(t, err)

	require.NoError(t, p.EditPost(ctx, "u1", id, "after"))

	post, err := store.PostByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "after", post.Content)
	assert.False(t, post.EditedAt.Before(post.CreatedAt))

	err = p.EditPost(ctx, "u2", id, "hijack")
	require.ErrorIs(t, err, ErrNotOwner)

	err = p.EditPost(ctx, "u1", "missing-post", "nothing")
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeletePost(t *testing.T) {
	store := newFakePostStore()
	p := newTestPosts(store)
	ctx := context.Background()

	id, err := p.CreatePost(ctx, "u1", "to be removed", true)
	require.NoError(t, err)

	err = p.DeletePost(ctx, "u2", id)
	require.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, p.DeletePost(ctx, "u1", id))

	_, err = store.PostByID(ctx, id)
	require.ErrorIs(t, err, storage.ErrPostNotFound)

	err = p.DeletePost(ctx, "u1", id)
	require.ErrorIs(t, err, ErrPostNotFound)
}
