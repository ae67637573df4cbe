package recognition

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// PrepareImage shrinks an image to maxWidth (never upscaling), re-encodes it as
// JPEG at the given quality and returns the base64 payload. When the image cannot
// be decoded or encoded, the original bytes are encoded unchanged and the error is
// returned alongside the payload.
func PrepareImage(data []byte, maxWidth, quality int) (string, error) {
	out, err := compress(data, maxWidth, quality)
	if err != nil {
		return base64.StdEncoding.EncodeToString(data), err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

func compress(data []byte, maxWidth, quality int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img := src
	bounds := src.Bounds()
	if maxWidth > 0 && bounds.Dx() > maxWidth {
		height := bounds.Dy() * maxWidth / bounds.Dx()
		if height < 1 {
			height = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
