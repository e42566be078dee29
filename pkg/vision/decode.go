package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"net/url"
	"path"
	"strings"

	// registered decoders for the default single-frame path
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode indicates artifact bytes could not be interpreted as an image
var ErrDecode = errors.New("artifact decode failed")

type decodeFunc func(data []byte) (image.Image, error)

// decoders maps lowercased file extensions to format-specific decoders.
// Multi-frame formats get a frame-sequence decoder that keeps the first
// frame; everything else falls through to the static decoder.
var decoders = map[string]decodeFunc{
	".gif": decodeFirstFrame,
}

// Decode interprets artifact bytes as an image, dispatching on the source
// URL's file extension with the static decoder as default
func Decode(data []byte, sourceURL string) (image.Image, error) {
	dec, ok := decoders[Ext(sourceURL)]
	if !ok {
		dec = decodeStatic
	}

	img, err := dec(data)
	if err != nil {
		return nil, err
	}

	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: zero spatial extent", ErrDecode)
	}
	return img, nil
}

// decodeStatic decodes a single-frame image in any registered format
func decodeStatic(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// decodeFirstFrame decodes a frame sequence and keeps the first frame
func decodeFirstFrame(data []byte) (image.Image, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrDecode)
	}
	return g.Image[0], nil
}

// Ext returns the lowercased file extension of a URL's path, query stripped
func Ext(sourceURL string) string {
	if u, err := url.Parse(sourceURL); err == nil {
		return strings.ToLower(path.Ext(u.Path))
	}
	return strings.ToLower(path.Ext(sourceURL))
}
