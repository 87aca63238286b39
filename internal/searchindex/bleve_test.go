package searchindex

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photo-search/internal/photo"
)

func newMemBleve(t *testing.T) *Bleve {
	t.Helper()
	idx, err := NewBleve("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func doc(key string, labels ...string) photo.Document {
	return photo.Document{ObjectKey: key, Bucket: "photos-bucket", Labels: labels}
}

func TestBleve_PutExists(t *testing.T) {
	ctx := context.Background()
	idx := newMemBleve(t)

	ok, err := idx.Exists(ctx, "photo_1")
	require.NoError(t, err)
	assert.False(t, ok)

	res, err := idx.Put(ctx, "photo_1", doc("a.jpg", "Dog"))
	require.NoError(t, err)
	assert.Equal(t, Created, res)

	ok, err = idx.Exists(ctx, "photo_1")
	require.NoError(t, err)
	assert.True(t, ok)

	res, err = idx.Put(ctx, "photo_1", doc("a.jpg", "Dog", "Park"))
	require.NoError(t, err)
	assert.Equal(t, Updated, res)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBleve_SearchMatchesAnyLabel(t *testing.T) {
	ctx := context.Background()
	idx := newMemBleve(t)

	_, err := idx.Put(ctx, "photo_1", doc("vacation/beach1.jpg", "Beach", "Ocean", "Sunset"))
	require.NoError(t, err)
	_, err = idx.Put(ctx, "photo_2", doc("pets/rex.jpg", "Dog", "Puppy"))
	require.NoError(t, err)
	_, err = idx.Put(ctx, "photo_3", doc("city/night.jpg", "Building"))
	require.NoError(t, err)

	hits, err := idx.Search(ctx, []string{"puppy", "beach"}, DefaultSearchLimit)
	require.NoError(t, err)

	keys := make([]string, 0, len(hits))
	for _, h := range hits {
		keys = append(keys, h.Document.ObjectKey)
	}
	assert.ElementsMatch(t, []string{"vacation/beach1.jpg", "pets/rex.jpg"}, keys)

	hits, err = idx.Search(ctx, []string{"cat"}, DefaultSearchLimit)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search(ctx, nil, DefaultSearchLimit)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBleve_SearchHonorsLimit(t *testing.T) {
	ctx := context.Background()
	idx := newMemBleve(t)
	for _, id := range []string{"photo_1", "photo_2", "photo_3"} {
		_, err := idx.Put(ctx, id, doc(id+".jpg", "Tree"))
		require.NoError(t, err)
	}

	hits, err := idx.Search(ctx, []string{"tree"}, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestBleve_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	idx := newMemBleve(t)
	for _, id := range []string{"photo_c", "photo_a", "photo_b"} {
		_, err := idx.Put(ctx, id, doc(id+".jpg", "Tree"))
		require.NoError(t, err)
	}

	page, err := idx.List(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, page.Hits, 2)
	assert.Equal(t, "photo_a", page.Hits[0].ID)
	assert.Equal(t, "photo_b", page.Hits[1].ID)
	assert.Equal(t, "photo_b", page.Next)

	page, err = idx.List(ctx, page.Next, 2)
	require.NoError(t, err)
	require.Len(t, page.Hits, 1)
	assert.Equal(t, "photo_c.jpg", page.Hits[0].Document.ObjectKey)
	assert.Empty(t, page.Next)

	require.NoError(t, idx.Delete(ctx, "photo_a"))
	err = idx.Delete(ctx, "photo_a")
	assert.True(t, IsNotFound(err))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBleve_ReopensOnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "photos.bleve")

	idx, err := NewBleve(path)
	require.NoError(t, err)
	_, err = idx.Put(ctx, "photo_1", doc("a.jpg", "Dog"))
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	idx, err = NewBleve(path)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	ok, err := idx.Exists(ctx, "photo_1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	var d Disabled

	_, err := d.Exists(ctx, "photo_1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = d.Put(ctx, "photo_1", doc("a.jpg"))
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = d.Count(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)

	hits, err := d.Search(ctx, []string{"dog"}, DefaultSearchLimit)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBleve_ListCursorVisitsEveryDocumentOnce(t *testing.T) {
	ctx := context.Background()
	idx := newMemBleve(t)
	want := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("photo_%03d", i)
		want = append(want, id)
		_, err := idx.Put(ctx, id, doc(id+".jpg", "Tree"))
		require.NoError(t, err)
	}

	var got []string
	after := ""
	for pages := 0; ; pages++ {
		require.Less(t, pages, 10)
		page, err := idx.List(ctx, after, 7)
		require.NoError(t, err)
		for _, h := range page.Hits {
			got = append(got, h.ID)
		}
		if page.Next == "" {
			break
		}
		after = page.Next
	}
	assert.Equal(t, want, got)
}
