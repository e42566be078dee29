package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membrain/pkg/domain"
)

func TestLoadBatch_PersistsHierarchy(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	item := readyItem(0x01, "https://example.com/cat.png", "https://redd.it/cat")

	res := db.LoadBatch(ctx, []*domain.Item{item})
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Ready)
	assert.Equal(t, 1, res.Loaded)

	meme, err := db.GetMeme(ctx, item.Identity)
	require.NoError(t, err)
	assert.Equal(t, item.Identity, meme.ID)
	assert.Equal(t, "https://example.com/cat.png", meme.URL.String)

	memeCtx, err := db.GetContext(ctx, item.Identity)
	require.NoError(t, err)
	assert.Equal(t, "reddit", memeCtx.Origin)
	assert.Equal(t, "https://redd.it/cat", memeCtx.PostURL)

	img, err := db.GetImage(ctx, item.Identity)
	require.NoError(t, err)
	assert.EqualValues(t, 640, img.Width.Int64)
	assert.EqualValues(t, 480, img.Height.Int64)
	assert.Equal(t, "png", img.Format.String)

	texts, err := db.GetTexts(ctx, item.Identity)
	require.NoError(t, err)
	require.Len(t, texts, 1)
	assert.Equal(t, "Funny Cat Photo", texts[0].Body)
	assert.Equal(t, "title", texts[0].Kind)
	assert.InEpsilon(t, 1.0, texts[0].Confidence, 1e-9)

	sentences, err := db.GetSentences(ctx, texts[0].ID)
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Equal(t, "Funny Cat Photo", sentences[0].Sentence)

	words, err := db.GetWords(ctx, sentences[0].ID)
	require.NoError(t, err)
	require.Len(t, words, 3)
	assert.Equal(t, "Funny", words[0].Word)
	assert.Equal(t, "funny", words[0].Lemma.String)
	assert.Equal(t, "Cat", words[1].Word)
	assert.Equal(t, "Photo", words[2].Word)

	chunks, err := db.GetChunks(ctx, sentences[0].ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestLoadBatch_SkipsNotReady(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	good := readyItem(0x02, "https://example.com/good.png", "https://redd.it/good")
	bad := domain.NewItem("https://example.com/bad.png") // never derived an identity
	bad.SetContext("reddit", "https://redd.it/bad")
	alsoGood := readyItem(0x03, "https://example.com/also.png", "https://redd.it/also")

	res := db.LoadBatch(ctx, []*domain.Item{good, bad, alsoGood})
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Ready)
	assert.Equal(t, 2, res.Loaded)

	count, err := db.CountMemes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestLoadBatch_DuplicateIdentity(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	// identical artifact bytes derive identical identities; the store's
	// uniqueness constraint arbitrates, the second insert is skipped
	first := readyItem(0xAA, "https://example.com/one.png", "https://redd.it/one")
	second := readyItem(0xAA, "https://example.com/two.png", "https://redd.it/two")

	res := db.LoadBatch(ctx, []*domain.Item{first, second})
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Ready)
	assert.Equal(t, 1, res.Loaded)

	count, err := db.CountMemes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// first writer wins, nothing is merged or updated
	meme, err := db.GetMeme(ctx, first.Identity)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/one.png", meme.URL.String)
}

func TestLoadBatch_DuplicateAcrossBatches(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	res := db.LoadBatch(ctx, []*domain.Item{readyItem(0xBB, "https://example.com/x.png", "https://redd.it/x1")})
	assert.Equal(t, 1, res.Loaded)

	// same content re-ingested later: at most once, never revised
	res = db.LoadBatch(ctx, []*domain.Item{readyItem(0xBB, "https://example.com/x.png", "https://redd.it/x2")})
	assert.Equal(t, 0, res.Loaded)

	count, err := db.CountMemes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLoadBatch_DuplicatePostURL(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	// different identities but the same upstream post must not be recorded twice
	first := readyItem(0x0E, "https://example.com/e1.png", "https://redd.it/same")
	second := readyItem(0x0F, "https://example.com/e2.png", "https://redd.it/same")

	res := db.LoadBatch(ctx, []*domain.Item{first, second})
	assert.Equal(t, 1, res.Loaded)

	// the failed item rolled back whole, no orphan meme row without context
	count, err := db.CountMemes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLoadBatch_FailureIsolation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	// a constraint failure in the middle does not abort following items
	items := []*domain.Item{
		readyItem(0x21, "https://example.com/1.png", "https://redd.it/1"),
		readyItem(0x21, "https://example.com/dup.png", "https://redd.it/dup"), // duplicate identity
		readyItem(0x22, "https://example.com/2.png", "https://redd.it/2"),
	}

	res := db.LoadBatch(ctx, items)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Loaded)

	exists, err := db.MemeExists(ctx, items[2].Identity)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLoadBatch_Empty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	res := db.LoadBatch(context.Background(), nil)
	assert.Zero(t, res.Total)
	assert.Zero(t, res.Loaded)
}

func TestIsConstraintErr(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	item := readyItem(0x55, "https://example.com/c.png", "https://redd.it/c")
	require.NoError(t, db.insertItem(ctx, item))

	err := db.insertItem(ctx, item)
	require.Error(t, err)
	assert.True(t, IsConstraintErr(err))
	assert.Equal(t, "constraint violation", errorClass(err))

	assert.False(t, IsConstraintErr(nil))
}
