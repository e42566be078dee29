package lang

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membrain/pkg/domain"
)

func newDecomposer(t *testing.T) *Decomposer {
	t.Helper()
	d, err := New()
	require.NoError(t, err)
	return d
}

func TestDecompose_Title(t *testing.T) {
	d := newDecomposer(t)

	item := domain.NewItem("https://example.com/cat.png")
	item.AddText("Funny Cat Photo", domain.BlockTitle, 1.0)

	d.Decompose(item)

	require.Len(t, item.TextBlocks, 1)
	tb := item.TextBlocks[0]
	require.Len(t, tb.Sentences, 1)
	assert.Equal(t, "Funny Cat Photo", tb.Sentences[0].Text)

	words := make(map[string]string) // word -> lemma
	for _, w := range tb.Sentences[0].Words {
		words[w.Word] = w.Lemma
		assert.NotEmpty(t, w.POSTag)
	}
	assert.Equal(t, "funny", words["Funny"])
	assert.Equal(t, "cat", words["Cat"])
	assert.Equal(t, "photo", words["Photo"])
}

func TestDecompose_StopwordsExcluded(t *testing.T) {
	d := newDecomposer(t)

	item := domain.NewItem("https://example.com/x.png")
	item.AddText("the cat sat on the mat and it was happy", domain.BlockDescription, 0.9)

	d.Decompose(item)

	require.Len(t, item.TextBlocks, 1)
	require.NotEmpty(t, item.TextBlocks[0].Sentences)

	for _, s := range item.TextBlocks[0].Sentences {
		for _, w := range s.Words {
			_, stop := d.stopwords[strings.ToLower(w.Word)]
			assert.False(t, stop, "stopword %q leaked into words", w.Word)
		}
	}
}

func TestDecompose_MultipleSentencesPreserveOrder(t *testing.T) {
	d := newDecomposer(t)

	item := domain.NewItem("https://example.com/x.png")
	item.AddText("First things first. Second things second. Third things third.", domain.BlockComment, 1.0)

	d.Decompose(item)

	require.Len(t, item.TextBlocks, 1)
	sentences := item.TextBlocks[0].Sentences
	require.Len(t, sentences, 3)
	assert.Contains(t, sentences[0].Text, "First")
	assert.Contains(t, sentences[1].Text, "Second")
	assert.Contains(t, sentences[2].Text, "Third")
}

func TestDecompose_MultipleBlocks(t *testing.T) {
	d := newDecomposer(t)

	item := domain.NewItem("https://example.com/x.png")
	item.AddText("Big Brain Time", domain.BlockTitle, 1.0)
	item.AddText("Caption text inside picture", domain.BlockInImage, 0.42)

	d.Decompose(item)

	require.Len(t, item.TextBlocks, 2)
	for _, tb := range item.TextBlocks {
		assert.NotEmpty(t, tb.Sentences, "block %q should decompose", tb.Body)
	}
}

func TestDecompose_ChunksAreNamedEntities(t *testing.T) {
	d := newDecomposer(t)

	item := domain.NewItem("https://example.com/x.png")
	item.AddText("Barack Obama gave a speech in Washington yesterday.", domain.BlockTitle, 1.0)

	d.Decompose(item)

	// entity detection quality is the library's business, but anything it
	// does return must be a named entity span tied to its sentence
	for _, tb := range item.TextBlocks {
		for _, s := range tb.Sentences {
			for _, c := range s.Chunks {
				assert.True(t, c.IsNamedEntity)
				assert.NotEmpty(t, c.Chunk)
			}
		}
	}
}

func TestDecompose_EmptyBlock(t *testing.T) {
	d := newDecomposer(t)

	item := domain.NewItem("https://example.com/x.png")
	item.AddText("", domain.BlockDescription, 1.0)

	d.Decompose(item) // must not panic or fail the item
	require.Len(t, item.TextBlocks, 1)
	assert.Empty(t, item.TextBlocks[0].Sentences)
}

func TestNew_StopwordSetLoaded(t *testing.T) {
	d := newDecomposer(t)

	assert.NotEmpty(t, d.stopwords)
	_, ok := d.stopwords["the"]
	assert.True(t, ok)
	_, ok = d.stopwords["cat"]
	assert.False(t, ok)
}
