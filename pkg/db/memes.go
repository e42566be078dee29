package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetMeme retrieves a meme row by identity
func (db *DB) GetMeme(ctx context.Context, id []byte) (*Meme, error) {
	var m Meme
	err := db.conn.GetContext(ctx, &m, `SELECT * FROM meme WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("meme not found")
		}
		return nil, fmt.Errorf("get meme: %w", err)
	}
	return &m, nil
}

// MemeExists reports whether a meme with the given identity is stored
func (db *DB) MemeExists(ctx context.Context, id []byte) (bool, error) {
	var count int
	if err := db.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM meme WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("check meme existence: %w", err)
	}
	return count > 0, nil
}

// CountMemes returns the total number of stored memes
func (db *DB) CountMemes(ctx context.Context) (int64, error) {
	var count int64
	if err := db.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM meme`); err != nil {
		return 0, fmt.Errorf("count memes: %w", err)
	}
	return count, nil
}

// GetContext retrieves the source context of a meme
func (db *DB) GetContext(ctx context.Context, id []byte) (*MemeContext, error) {
	var c MemeContext
	if err := db.conn.GetContext(ctx, &c, `SELECT * FROM meme_context WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("get context: %w", err)
	}
	return &c, nil
}

// GetImage retrieves the image properties of a meme
func (db *DB) GetImage(ctx context.Context, id []byte) (*MemeImage, error) {
	var img MemeImage
	if err := db.conn.GetContext(ctx, &img, `SELECT * FROM meme_image WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return &img, nil
}

// GetTexts retrieves the text blocks of a meme in insertion order
func (db *DB) GetTexts(ctx context.Context, memeID []byte) ([]MemeText, error) {
	var texts []MemeText
	err := db.conn.SelectContext(ctx, &texts,
		`SELECT * FROM meme_text WHERE meme_id = ? ORDER BY id`, memeID)
	if err != nil {
		return nil, fmt.Errorf("get texts: %w", err)
	}
	return texts, nil
}

// GetSentences retrieves the sentences of a text block in insertion order
func (db *DB) GetSentences(ctx context.Context, textID int64) ([]MemeSentence, error) {
	var sentences []MemeSentence
	err := db.conn.SelectContext(ctx, &sentences,
		`SELECT * FROM meme_sentence WHERE text_id = ? ORDER BY id`, textID)
	if err != nil {
		return nil, fmt.Errorf("get sentences: %w", err)
	}
	return sentences, nil
}

// GetWords retrieves the words of a sentence in token order
func (db *DB) GetWords(ctx context.Context, sentenceID int64) ([]MemeWord, error) {
	var words []MemeWord
	err := db.conn.SelectContext(ctx, &words,
		`SELECT * FROM meme_word WHERE sentence_id = ? ORDER BY id`, sentenceID)
	if err != nil {
		return nil, fmt.Errorf("get words: %w", err)
	}
	return words, nil
}

// GetChunks retrieves the chunks of a sentence in token order
func (db *DB) GetChunks(ctx context.Context, sentenceID int64) ([]MemeChunk, error) {
	var chunks []MemeChunk
	err := db.conn.SelectContext(ctx, &chunks,
		`SELECT * FROM meme_chunk WHERE sentence_id = ? ORDER BY id`, sentenceID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	return chunks, nil
}

// CountDescendants returns the number of rows in each child table, used to
// verify cascade behavior
func (db *DB) CountDescendants(ctx context.Context) (texts, sentences, words, chunks int64, err error) {
	counts := []struct {
		table string
		dst   *int64
	}{
		{"meme_text", &texts},
		{"meme_sentence", &sentences},
		{"meme_word", &words},
		{"meme_chunk", &chunks},
	}
	for _, c := range counts {
		if err = db.conn.GetContext(ctx, c.dst, `SELECT COUNT(*) FROM `+c.table); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return texts, sentences, words, chunks, nil
}

// DeleteMeme removes a meme; cascade rules remove the whole derived subtree
func (db *DB) DeleteMeme(ctx context.Context, id []byte) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM meme WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete meme: %w", err)
	}
	return nil
}
