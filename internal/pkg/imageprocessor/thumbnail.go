package imageprocessor

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"io"

	"github.com/disintegration/imaging"
)

const (
	// ThumbnailMaxSize is the bounding box for gallery thumbnails
	ThumbnailMaxSize = 400

	thumbnailJPEGQuality = 82
)

// thumbnailSources lists the content types the decoder can handle. Formats
// outside this set (svg, avif, animated gifs worth keeping) are served as-is.
var thumbnailSources = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

// CanThumbnail reports whether a thumbnail can be generated for the type.
func CanThumbnail(contentType string) bool {
	return thumbnailSources[contentType]
}

// GenerateThumbnail decodes the image and returns a JPEG thumbnail fitted
// into the ThumbnailMaxSize bounding box. The aspect ratio is preserved,
// images already smaller than the box are returned re-encoded but unscaled.
func GenerateThumbnail(r io.Reader) ([]byte, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() > ThumbnailMaxSize || bounds.Dy() > ThumbnailMaxSize {
		src = imaging.Fit(src, ThumbnailMaxSize, ThumbnailMaxSize, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: thumbnailJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}

// ThumbnailObjectKey derives the thumbnail's object key from the original's.
// The extension is replaced because thumbnails are always JPEG.
func ThumbnailObjectKey(objectKey string) string {
	for i := len(objectKey) - 1; i >= 0; i-- {
		if objectKey[i] == '/' {
			break
		}
		if objectKey[i] == '.' {
			return objectKey[:i] + "_thumb.jpg"
		}
	}
	return objectKey + "_thumb.jpg"
}
