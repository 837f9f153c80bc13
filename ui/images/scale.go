package images

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/gift"
)

// previewEncoder trades size for speed; previews are re-encoded every cycle.
var previewEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// EncodePNG encodes an image to PNG bytes. Errors are ignored and may return an empty slice.
func EncodePNG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	_ = previewEncoder.Encode(&buf, img)
	return buf.Bytes()
}

// ScaleToFit shrinks src so it fits within maxW x maxH, preserving aspect
// ratio. A source that already fits is returned as is.
func ScaleToFit(src image.Image, maxW, maxH int) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return src
	}
	g := gift.New(gift.ResizeToFit(max(maxW, 1), max(maxH, 1), gift.LinearResampling))
	dst := image.NewRGBA(g.Bounds(b))
	g.Draw(dst, src)
	return dst
}
