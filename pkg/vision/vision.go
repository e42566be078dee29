// Package vision derives the content identity of an item from its primary
// artifact: fetch the bytes, decode to pixels, reduce to a perceptual hash.
// Every failure is local to the item, the caller just gets a not-ready item.
package vision

import (
	"context"
	"image"
	"strings"
	"time"

	"membrain/pkg/domain"
)

// Extractor runs the identity derivation stage for single items
type Extractor struct {
	fetcher *Fetcher
}

// NewExtractor creates an extractor fetching artifacts with the given timeout
func NewExtractor(timeout time.Duration, userAgent string) *Extractor {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Extractor{fetcher: NewFetcher(timeout, userAgent)}
}

// Extract fetches and decodes the item's artifact, derives its identity and
// records media metadata. On success the item is marked ready. A fetch or
// decode failure leaves the item not ready and is returned for logging, it
// never aborts sibling items.
func (e *Extractor) Extract(ctx context.Context, item *domain.Item) error {
	data, err := e.fetcher.Fetch(ctx, item.SourceURL)
	if err != nil {
		return err
	}

	img, err := Decode(data, item.SourceURL)
	if err != nil {
		return err
	}

	item.Identity = Hash(img)
	item.Ready = true

	width, height, channels, format := mediaMeta(img, item.SourceURL)
	item.SetMedia(width, height, channels, format)
	return nil
}

// mediaMeta extracts decoded artifact properties. Channel count follows the
// decoded color model, format follows the URL extension.
func mediaMeta(img image.Image, sourceURL string) (width, height, channels int, format string) {
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()

	switch img.(type) {
	case *image.Gray, *image.Gray16:
		channels = 1
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64:
		channels = 4
	default: // YCbCr, CMYK, paletted and friends
		channels = 3
	}

	format = strings.TrimPrefix(Ext(sourceURL), ".")
	return width, height, channels, format
}
