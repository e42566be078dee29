package domain

// IdentitySize is the width of a derived content identity in bytes
const IdentitySize = 8

// BlockKind describes how a text block relates to its item
type BlockKind string

// text block kinds
const (
	BlockTitle       BlockKind = "title"
	BlockDescription BlockKind = "description"
	BlockInImage     BlockKind = "in-image"
	BlockComment     BlockKind = "comment"
)

// Context holds source reference information for an item.
// PostURL is globally unique in the store.
type Context struct {
	Origin  string
	PostURL string
}

// Media holds properties of the decoded artifact
type Media struct {
	Width    int
	Height   int
	Channels int
	Format   string
}

// Word is a non-stopword token of a sentence with its part-of-speech tag
// and lemmatized form
type Word struct {
	Word   string
	POSTag string
	Lemma  string
}

// Chunk is a contiguous token span of a sentence
type Chunk struct {
	Chunk         string
	IsNamedEntity bool
}

// Sentence is one sentence of a text block, owning its words and chunks
type Sentence struct {
	Text   string
	Words  []Word
	Chunks []Chunk
}

// TextBlock is one unit of raw text attached to an item. Confidence is 1.0
// for authored text and below 1.0 only for machine-derived text.
type TextBlock struct {
	Body       string
	Kind       BlockKind
	Confidence float64
	Sentences  []Sentence
}

// Item is the transient staging record for one candidate piece of content.
// It is assembled incrementally by a collector and the transform stages and
// is never persisted unless Ready is true and Identity is set.
type Item struct {
	Identity   []byte // 8 bytes once derivation succeeds, nil before
	SourceURL  string
	Ready      bool
	Context    *Context
	Media      *Media
	TextBlocks []*TextBlock
}

// NewItem creates an empty item for the given artifact URL
func NewItem(sourceURL string) *Item {
	return &Item{SourceURL: sourceURL}
}

// SetContext records the item's source context
func (it *Item) SetContext(origin, postURL string) {
	it.Context = &Context{Origin: origin, PostURL: postURL}
}

// SetMedia records the decoded artifact's properties
func (it *Item) SetMedia(width, height, channels int, format string) {
	it.Media = &Media{Width: width, Height: height, Channels: channels, Format: format}
}

// AddText appends a text block and returns it for further assembly
func (it *Item) AddText(body string, kind BlockKind, confidence float64) *TextBlock {
	tb := &TextBlock{Body: body, Kind: kind, Confidence: confidence}
	it.TextBlocks = append(it.TextBlocks, tb)
	return tb
}

// AddSentence appends a sentence to the block and returns its index
func (tb *TextBlock) AddSentence(text string) int {
	tb.Sentences = append(tb.Sentences, Sentence{Text: text})
	return len(tb.Sentences) - 1
}

// AddWord appends a word to the sentence
func (s *Sentence) AddWord(word, posTag, lemma string) {
	s.Words = append(s.Words, Word{Word: word, POSTag: posTag, Lemma: lemma})
}

// AddChunk appends a chunk to the sentence
func (s *Sentence) AddChunk(chunk string, named bool) {
	s.Chunks = append(s.Chunks, Chunk{Chunk: chunk, IsNamedEntity: named})
}

// Title returns the body of the first title block, empty if none
func (it *Item) Title() string {
	for _, tb := range it.TextBlocks {
		if tb.Kind == BlockTitle {
			return tb.Body
		}
	}
	return ""
}
