//go:build windows

package capture

// Windows screen capture using per-frame GDI allocations.
// Each grab creates a temporary top-down DIB, BitBlt's the screen into it,
// converts BGRA->RGBA into a heap-owned *image.RGBA, and frees GDI resources.

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const processPerMonitorDPIAware = 2

var dpiOnce sync.Once

// setDPIAware makes GetSystemMetrics report physical pixels on scaled displays.
func setDPIAware() {
	dpiOnce.Do(func() {
		shcore := windows.NewLazySystemDLL("shcore.dll")
		proc := shcore.NewProc("SetProcessDpiAwareness")
		if proc.Find() == nil {
			_, _, _ = proc.Call(uintptr(processPerMonitorDPIAware))
		}
	})
}

type gdiGrabber struct{}

func newGDIGrabber() (grabber, error) {
	setDPIAware()
	return gdiGrabber{}, nil
}

func (gdiGrabber) screen() (image.Rectangle, error) {
	w := int(win.GetSystemMetrics(win.SM_CXSCREEN))
	h := int(win.GetSystemMetrics(win.SM_CYSCREEN))
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, fmt.Errorf("gdi: invalid screen size w=%d h=%d", w, h)
	}
	return image.Rect(0, 0, w, h), nil
}

func (gdiGrabber) grab(r image.Rectangle) (*image.RGBA, error) {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("gdi: invalid rect %v", r)
	}

	screenDC := win.GetDC(0)
	if screenDC == 0 {
		return nil, errors.New("gdi: GetDC failed")
	}
	defer win.ReleaseDC(0, screenDC)

	memDC := win.CreateCompatibleDC(screenDC)
	if memDC == 0 {
		return nil, errors.New("gdi: CreateCompatibleDC failed")
	}
	defer win.DeleteDC(memDC)

	var bi win.BITMAPINFOHEADER
	bi.BiSize = uint32(unsafe.Sizeof(bi))
	bi.BiWidth = int32(w)
	bi.BiHeight = -int32(h) // top-down
	bi.BiPlanes = 1
	bi.BiBitCount = 32
	bi.BiCompression = win.BI_RGB
	bi.BiSizeImage = uint32(w * h * 4)

	var bits unsafe.Pointer
	bmp := win.CreateDIBSection(memDC, &bi, win.DIB_RGB_COLORS, &bits, 0, 0)
	if bmp == 0 || bits == nil {
		return nil, errors.New("gdi: CreateDIBSection failed")
	}
	defer win.DeleteObject(win.HGDIOBJ(bmp))

	prev := win.SelectObject(memDC, win.HGDIOBJ(bmp))
	if prev == 0 {
		return nil, errors.New("gdi: SelectObject failed")
	}
	defer win.SelectObject(memDC, prev)

	if !win.BitBlt(memDC, 0, 0, int32(w), int32(h), screenDC, int32(r.Min.X), int32(r.Min.Y), win.SRCCOPY) {
		return nil, fmt.Errorf("gdi: BitBlt failed x=%d y=%d w=%d h=%d", r.Min.X, r.Min.Y, w, h)
	}

	pixLen := w * h * 4
	src := unsafe.Slice((*byte)(bits), pixLen)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < pixLen; i += 4 {
		dst.Pix[i+0] = src[i+2]
		dst.Pix[i+1] = src[i+1]
		dst.Pix[i+2] = src[i+0]
		dst.Pix[i+3] = 0xFF
	}
	return dst, nil
}

func (gdiGrabber) close() error { return nil }
