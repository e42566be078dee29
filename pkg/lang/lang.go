// Package lang decomposes an item's raw text blocks into the linguistic
// hierarchy: sentences, then non-stopword words with part-of-speech tags and
// lemmas, and named-entity chunks. Decomposition is best effort, a sentence
// that fails tagging is skipped without unreadying the item.
package lang

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/go-pkgz/lgr"
	"github.com/jdkato/prose/v2"

	"membrain/pkg/domain"
)

//go:embed stopwords.txt
var stopwordData []byte

// Decomposer populates sentences, words and chunks for items
type Decomposer struct {
	lemmatizer *golem.Lemmatizer
	stopwords  map[string]struct{}
}

// New creates a decomposer for the working language (english)
func New() (*Decomposer, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("init lemmatizer: %w", err)
	}

	stopwords := map[string]struct{}{}
	scanner := bufio.NewScanner(bytes.NewReader(stopwordData))
	for scanner.Scan() {
		if w := strings.TrimSpace(scanner.Text()); w != "" {
			stopwords[w] = struct{}{}
		}
	}

	return &Decomposer{lemmatizer: lemmatizer, stopwords: stopwords}, nil
}

// Decompose fills in the sentence hierarchy for every text block of the
// item, in source order. It never fails the item as a whole.
func (d *Decomposer) Decompose(item *domain.Item) {
	for _, tb := range item.TextBlocks {
		d.decomposeBlock(item.SourceURL, tb)
	}
}

// decomposeBlock splits one text block into sentences and decomposes each
func (d *Decomposer) decomposeBlock(sourceURL string, tb *domain.TextBlock) {
	doc, err := prose.NewDocument(tb.Body,
		prose.WithTokenization(false), prose.WithTagging(false), prose.WithExtraction(false))
	if err != nil {
		lgr.Printf("[WARN] sentence segmentation failed for %s: %v", sourceURL, err)
		return
	}

	for _, sent := range doc.Sentences() {
		idx := tb.AddSentence(sent.Text)
		if err := d.decomposeSentence(&tb.Sentences[idx]); err != nil {
			lgr.Printf("[WARN] skipping sentence %q from %s: %v", sent.Text, sourceURL, err)
		}
	}
}

// decomposeSentence extracts words and entity chunks from one sentence,
// preserving token order
func (d *Decomposer) decomposeSentence(s *domain.Sentence) error {
	doc, err := prose.NewDocument(s.Text, prose.WithSegmentation(false))
	if err != nil {
		return fmt.Errorf("tokenize sentence: %w", err)
	}

	for _, tok := range doc.Tokens() {
		if d.isStopword(tok.Text) {
			continue
		}
		s.AddWord(tok.Text, tok.Tag, d.lemmatizer.LemmaLower(tok.Text))
	}

	// binary entity detection only, the span label is not recorded
	for _, ent := range doc.Entities() {
		s.AddChunk(ent.Text, true)
	}

	return nil
}

// isStopword reports whether a token's surface form is in the stop-word set
func (d *Decomposer) isStopword(word string) bool {
	_, ok := d.stopwords[strings.ToLower(word)]
	return ok
}
