package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-pkgz/lgr"
	"github.com/jmoiron/sqlx"

	"membrain/pkg/domain"
)

// LoadResult summarizes one load-stage invocation over a batch
type LoadResult struct {
	Total  int // items handed to the load stage
	Ready  int // items eligible for persistence
	Loaded int // items committed
}

// LoadBatch persists every ready item of the batch, each as an independent
// unit of work. An item failing to commit, for a uniqueness violation or any
// other storage error, is logged and skipped; it never fails the batch and
// is never retried. Returns the loaded/total counts for observability.
func (db *DB) LoadBatch(ctx context.Context, items []*domain.Item) LoadResult {
	res := LoadResult{Total: len(items)}

	for _, item := range items {
		if !item.Ready || len(item.Identity) != domain.IdentitySize {
			continue
		}
		res.Ready++

		if err := db.insertItem(ctx, item); err != nil {
			lgr.Printf("[ERROR] skipped %s: %s: %v", item.SourceURL, errorClass(err), err)
			continue
		}
		res.Loaded++
	}

	lgr.Printf("[INFO] loaded %d / %d", res.Loaded, res.Total)
	return res
}

// insertItem writes the item and its whole derived subtree in one transaction
func (db *DB) insertItem(ctx context.Context, item *domain.Item) error {
	return db.InTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meme (id, url) VALUES (?, ?)`,
			item.Identity, item.SourceURL); err != nil {
			return fmt.Errorf("insert meme: %w", err)
		}

		if item.Context != nil {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO meme_context (id, origin, post_url) VALUES (?, ?, ?)`,
				item.Identity, item.Context.Origin, item.Context.PostURL); err != nil {
				return fmt.Errorf("insert context: %w", err)
			}
		}

		if item.Media != nil {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO meme_image (id, width, height, channels, format) VALUES (?, ?, ?, ?, ?)`,
				item.Identity, item.Media.Width, item.Media.Height, item.Media.Channels, item.Media.Format); err != nil {
				return fmt.Errorf("insert image: %w", err)
			}
		}

		for _, tb := range item.TextBlocks {
			if err := insertText(ctx, tx, item.Identity, tb); err != nil {
				return err
			}
		}
		return nil
	})
}

// insertText writes one text block with its sentences, words and chunks
func insertText(ctx context.Context, tx *sqlx.Tx, memeID []byte, tb *domain.TextBlock) error {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO meme_text (meme_id, body, kind, confidence) VALUES (?, ?, ?, ?)`,
		memeID, tb.Body, string(tb.Kind), tb.Confidence)
	if err != nil {
		return fmt.Errorf("insert text: %w", err)
	}
	textID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("text insert id: %w", err)
	}

	for _, s := range tb.Sentences {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO meme_sentence (text_id, sentence) VALUES (?, ?)`, textID, s.Text)
		if err != nil {
			return fmt.Errorf("insert sentence: %w", err)
		}
		sentenceID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("sentence insert id: %w", err)
		}

		for _, w := range s.Words {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO meme_word (sentence_id, word, pos_tag, lemma) VALUES (?, ?, ?, ?)`,
				sentenceID, w.Word, w.POSTag, w.Lemma); err != nil {
				return fmt.Errorf("insert word: %w", err)
			}
		}
		for _, c := range s.Chunks {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO meme_chunk (sentence_id, chunk, is_named_entity) VALUES (?, ?, ?)`,
				sentenceID, c.Chunk, c.IsNamedEntity); err != nil {
				return fmt.Errorf("insert chunk: %w", err)
			}
		}
	}
	return nil
}

// IsConstraintErr reports whether an error came from a uniqueness or
// foreign-key rule rather than some other storage failure
func IsConstraintErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "constraint")
}

func errorClass(err error) string {
	if IsConstraintErr(err) {
		return "constraint violation"
	}
	return "storage error"
}
