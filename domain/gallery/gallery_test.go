package gallery

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func writePNG(t *testing.T, dir, name string, img image.Image) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestLoad_MissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"), Options{})
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
}

func TestLoad_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir, Options{}); !errors.Is(err, ErrNoTemplates) {
		t.Fatalf("expected ErrNoTemplates, got %v", err)
	}
	g, err := Load(dir, Options{AllowEmpty: true})
	if err != nil || g.Len() != 0 {
		t.Fatalf("empty gallery should be accepted: len=%d err=%v", g.Len(), err)
	}
}

func TestLoad_SkipsUndecodableAndCounts(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "ana.png", solid(4, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 255}))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	g, err := Load(dir, Options{Logger: slog.New(slog.NewTextHandler(&buf, nil)), DuplicateDistance: -1})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if g.Len() != 1 || g.Skipped() != 1 {
		t.Fatalf("expected 1 template and 1 skipped, got %d/%d", g.Len(), g.Skipped())
	}
	tm, ok := g.Get("ana")
	if !ok || tm.W != 4 || tm.H != 3 {
		t.Fatalf("unexpected template %+v", tm)
	}
	if strings.Count(buf.String(), "gallery.skipped") != 1 {
		t.Fatalf("expected a single skip warning, log:\n%s", buf.String())
	}
}

func TestLoad_DuplicateIDFirstWins(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "hero.a.png", solid(2, 2, color.White))
	writePNG(t, dir, "hero.png", solid(3, 3, color.NRGBA{R: 1, A: 255}))
	// Same ID as hero.png, sorts after it.
	writePNG(t, dir, "hero.x", solid(5, 5, color.White))
	g, err := Load(dir, Options{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tm, _ := g.Get("hero")
	if tm == nil || tm.W != 3 {
		t.Fatalf("expected hero.png to win, got %+v", tm)
	}
	if ids := g.IDs(); len(ids) != 2 || ids[0] != "hero" || ids[1] != "hero.a" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if g.Skipped() != 1 {
		t.Fatalf("expected duplicate counted as skipped, got %d", g.Skipped())
	}
}

func TestFlatten_AlphaOntoBackground(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	img.Set(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 0})
	g := FromImages(map[string]image.Image{"t": img}, color.NRGBA{R: 9, G: 8, B: 7, A: 255})
	tm, _ := g.Get("t")
	if c := tm.Image.RGBAAt(0, 0); c != (color.RGBA{200, 100, 50, 255}) {
		t.Fatalf("opaque pixel changed: %+v", c)
	}
	if c := tm.Image.RGBAAt(1, 0); c != (color.RGBA{9, 8, 7, 255}) {
		t.Fatalf("transparent pixel not flattened onto background: %+v", c)
	}
}

func TestFlatten_GreyReplicated(t *testing.T) {
	grey := image.NewGray(image.Rect(0, 0, 2, 2))
	for i := range grey.Pix {
		grey.Pix[i] = 77
	}
	g := FromImages(map[string]image.Image{"g": grey}, nil)
	tm, _ := g.Get("g")
	if c := tm.Image.RGBAAt(1, 1); c != (color.RGBA{77, 77, 77, 255}) {
		t.Fatalf("expected replicated grey, got %+v", c)
	}
}

func TestFromImages_SkipsZeroSize(t *testing.T) {
	g := FromImages(map[string]image.Image{
		"ok":    solid(2, 2, color.White),
		"empty": image.NewRGBA(image.Rect(0, 0, 0, 4)),
	}, nil)
	if g.Len() != 1 || g.Skipped() != 1 {
		t.Fatalf("expected 1/1, got %d/%d", g.Len(), g.Skipped())
	}
	for _, tm := range g.Templates() {
		if tm.W <= 0 || tm.H <= 0 {
			t.Fatalf("template with empty size %+v", tm)
		}
	}
}

func TestLoad_WarnsOnLookAlikes(t *testing.T) {
	dir := t.TempDir()
	stripes := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(0)
			if x%4 < 2 {
				v = 255
			}
			stripes.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	writePNG(t, dir, "one.png", stripes)
	writePNG(t, dir, "two.png", stripes)
	var buf bytes.Buffer
	if _, err := Load(dir, Options{Logger: slog.New(slog.NewTextHandler(&buf, nil)), DuplicateDistance: 2}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(buf.String(), "gallery.look_alike") {
		t.Fatalf("expected look-alike warning, log:\n%s", buf.String())
	}
}
