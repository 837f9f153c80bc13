package capture

import (
	"image"
	"sync"
)

// Backend images are copied into pooled pixel buffers so steady-state cycles
// reuse the same few slices. The pool holds bare Pix slices; a frame image is
// rebuilt around one on every acquire. Frames that are never recycled are
// simply collected.

var pixPool = sync.Pool{
	New: func() any { return new([]byte) },
}

// acquireFrame returns an opaque-ready RGBA image of w x h at origin whose
// Pix is exactly w*h*4 bytes, backed by a pooled buffer when one is large
// enough.
func acquireFrame(w, h int) *image.RGBA {
	if w <= 0 || h <= 0 {
		return &image.RGBA{Rect: image.Rect(0, 0, max(w, 0), max(h, 0))}
	}
	buf := pixPool.Get().(*[]byte)
	if n := w * h * 4; cap(*buf) >= n {
		*buf = (*buf)[:n]
	} else {
		*buf = make([]byte, n)
	}
	return &image.RGBA{Pix: *buf, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
}

// Recycle hands the frame's pixel buffer back to the pool and clears
// f.Image. The frame must not be used afterwards.
func Recycle(f *Frame) {
	if f == nil || f.Image == nil {
		return
	}
	if pix := f.Image.Pix; cap(pix) > 0 {
		pixPool.Put(&pix)
	}
	f.Image = nil
}
