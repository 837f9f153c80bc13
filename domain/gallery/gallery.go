package gallery

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Template is one reference image. Image is opaque RGBA anchored at (0,0)
// and must not be modified after load.
type Template struct {
	ID    string
	Image *image.RGBA
	W, H  int
}

// Gallery is the immutable set of templates, safe for concurrent reads.
type Gallery struct {
	byID    map[string]*Template
	ids     []string
	skipped int
}

// Options controls how a directory is turned into a Gallery.
type Options struct {
	// Background is the colour translucent pixels are flattened onto.
	// Nil means opaque black.
	Background color.Color
	// AllowEmpty accepts a directory with no usable template.
	AllowEmpty bool
	// DuplicateDistance is the dHash Hamming distance at or below which two
	// templates are reported as look-alikes. Negative disables the check.
	DuplicateDistance int
	Logger            *slog.Logger
}

// Load reads every decodable image in dir. The file name without extension
// is the template ID; when two files share an ID the first in lexical order
// wins. Undecodable files are skipped and reported with a single warning.
func Load(dir string, opts Options) (*Gallery, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Dir: dir, Err: err}
	}
	g := &Gallery{byID: make(map[string]*Template)}
	var failed []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if id == "" {
			continue
		}
		if _, dup := g.byID[id]; dup {
			g.skipped++
			failed = append(failed, name)
			continue
		}
		img, err := imaging.Open(filepath.Join(dir, name), imaging.AutoOrientation(true))
		if err != nil {
			g.skipped++
			failed = append(failed, name)
			if opts.Logger != nil {
				opts.Logger.Debug("gallery.decode_failed", "file", name, "error", err)
			}
			continue
		}
		if !g.add(id, img, opts.Background) {
			g.skipped++
			failed = append(failed, name)
		}
	}
	sort.Strings(g.ids)
	if opts.Logger != nil {
		if g.skipped > 0 {
			opts.Logger.Warn("gallery.skipped", "dir", dir, "count", g.skipped, "files", failed)
		}
		opts.Logger.Info("gallery.loaded", "dir", dir, "templates", len(g.ids))
	}
	if len(g.ids) == 0 && !opts.AllowEmpty {
		return nil, &LoadError{Dir: dir, Err: ErrNoTemplates}
	}
	g.warnLookAlikes(opts.DuplicateDistance, opts.Logger)
	return g, nil
}

// FromImages builds a gallery from in-memory images. Zero-sized images are
// counted as skipped.
func FromImages(images map[string]image.Image, background color.Color) *Gallery {
	g := &Gallery{byID: make(map[string]*Template, len(images))}
	for id, img := range images {
		if !g.add(id, img, background) {
			g.skipped++
		}
	}
	sort.Strings(g.ids)
	return g
}

func (g *Gallery) add(id string, img image.Image, background color.Color) bool {
	if img == nil {
		return false
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return false
	}
	rgba := flatten(img, background)
	g.byID[id] = &Template{ID: id, Image: rgba, W: b.Dx(), H: b.Dy()}
	g.ids = append(g.ids, id)
	return true
}

// flatten composites img over an opaque background and returns opaque RGBA
// at origin. Grey and paletted images come out channel-replicated.
func flatten(img image.Image, background color.Color) *image.RGBA {
	if background == nil {
		background = color.Black
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), background)
	flat := imaging.Overlay(bg, img, image.Point{}, 1.0)
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), flat, flat.Bounds().Min, draw.Src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xFF
	}
	return dst
}

func (g *Gallery) warnLookAlikes(maxDistance int, logger *slog.Logger) {
	if logger == nil || maxDistance < 0 || len(g.ids) < 2 {
		return
	}
	hashes := make([]*goimagehash.ImageHash, len(g.ids))
	for i, id := range g.ids {
		h, err := goimagehash.DifferenceHash(g.byID[id].Image)
		if err != nil {
			continue
		}
		hashes[i] = h
	}
	for i := 0; i < len(hashes); i++ {
		for j := i + 1; j < len(hashes); j++ {
			if hashes[i] == nil || hashes[j] == nil {
				continue
			}
			d, err := hashes[i].Distance(hashes[j])
			if err != nil || d > maxDistance {
				continue
			}
			logger.Warn("gallery.look_alike", "a", g.ids[i], "b", g.ids[j], "distance", d)
		}
	}
}

// Len returns the number of templates.
func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.ids)
}

// IDs returns the template IDs in sorted order.
func (g *Gallery) IDs() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.ids...)
}

// Get returns the template with the given ID.
func (g *Gallery) Get(id string) (*Template, bool) {
	if g == nil {
		return nil, false
	}
	t, ok := g.byID[id]
	return t, ok
}

// Templates returns all templates sorted by ID.
func (g *Gallery) Templates() []*Template {
	if g == nil {
		return nil
	}
	out := make([]*Template, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, g.byID[id])
	}
	return out
}

// Skipped returns how many files were not loaded.
func (g *Gallery) Skipped() int {
	if g == nil {
		return 0
	}
	return g.skipped
}
