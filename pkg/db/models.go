package db

import "database/sql"

// Meme is the core persisted row, keyed by the 8-byte perceptual identity
type Meme struct {
	ID           []byte         `db:"id"`
	URL          sql.NullString `db:"url"`
	CreatedAt    string         `db:"created_at"`
	LastModified string         `db:"last_modified"`
}

// MemeImage holds file and resolution properties of the meme's image
type MemeImage struct {
	ID       []byte         `db:"id"`
	Width    sql.NullInt64  `db:"width"`
	Height   sql.NullInt64  `db:"height"`
	Channels sql.NullInt64  `db:"channels"`
	Format   sql.NullString `db:"format"`
}

// MemeContext holds the source reference for a meme
type MemeContext struct {
	ID      []byte `db:"id"`
	Origin  string `db:"origin"`
	PostURL string `db:"post_url"`
}

// MemeText is a body of text that accompanied a meme
type MemeText struct {
	ID         int64   `db:"id"`
	MemeID     []byte  `db:"meme_id"`
	Body       string  `db:"body"`
	Kind       string  `db:"kind"`
	Confidence float64 `db:"confidence"`
}

// MemeSentence is one sentence of a meme text
type MemeSentence struct {
	ID       int64  `db:"id"`
	TextID   int64  `db:"text_id"`
	Sentence string `db:"sentence"`
}

// MemeChunk is a token span of a sentence
type MemeChunk struct {
	ID            int64  `db:"id"`
	SentenceID    int64  `db:"sentence_id"`
	Chunk         string `db:"chunk"`
	IsNamedEntity bool   `db:"is_named_entity"`
}

// MemeWord is a non-stopword token of a sentence
type MemeWord struct {
	ID         int64          `db:"id"`
	SentenceID int64          `db:"sentence_id"`
	Word       string         `db:"word"`
	POSTag     sql.NullString `db:"pos_tag"`
	Lemma      sql.NullString `db:"lemma"`
}
