package collect

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/artisan-upload/artisan/internal/media"
)

// PreviewSize bounds the longest side of a preview thumbnail.
const PreviewSize = 256

// Preview is the local handle shown to the artisan for one accepted image.
// Path is empty when the image could not be decoded.
type Preview struct {
	Name string
	Path string
}

// ImageCollector holds the artisan's product photos. Each call to
// AcceptFiles replaces the previous set.
type ImageCollector struct {
	// OnAccept receives the accepted set after every AcceptFiles call.
	OnAccept func([]media.Blob)

	mu       sync.Mutex
	dir      string
	ownsDir  bool
	files    []media.Blob
	previews []Preview
}

// NewImageCollector writes previews under dir. An empty dir means a private
// temporary directory that Release removes.
func NewImageCollector(dir string) *ImageCollector {
	return &ImageCollector{dir: dir}
}

// AcceptFiles classifies every entry, keeps the images and replaces the
// held set with them. Every entry gets a verdict, in input order.
func (c *ImageCollector) AcceptFiles(files []media.Blob) []media.Verdict {
	verdicts := make([]media.Verdict, 0, len(files))
	accepted := make([]media.Blob, 0, len(files))
	for _, f := range files {
		v := media.Classify(f, media.KindImage)
		verdicts = append(verdicts, v)
		if v.Accepted {
			accepted = append(accepted, f)
		} else {
			slog.Debug("Image rejected", "name", f.Name, "reason", v.Reason)
		}
	}

	c.mu.Lock()
	c.releaseLocked()
	previews := make([]Preview, 0, len(accepted))
	for i, f := range accepted {
		previews = append(previews, c.preview(i, f))
	}
	c.files = accepted
	c.previews = previews
	onAccept := c.OnAccept
	c.mu.Unlock()

	if onAccept != nil {
		onAccept(append([]media.Blob(nil), accepted...))
	}
	return verdicts
}

// preview must be called with c.mu held.
func (c *ImageCollector) preview(index int, f media.Blob) Preview {
	p := Preview{Name: f.Name}

	if c.dir == "" {
		dir, err := os.MkdirTemp("", "artisan-previews-")
		if err != nil {
			slog.Warn("Unable to create preview directory", "err", err)
			return p
		}
		c.dir = dir
		c.ownsDir = true
	} else if err := os.MkdirAll(c.dir, 0755); err != nil {
		slog.Warn("Unable to create preview directory", "err", err)
		return p
	}

	thumb, err := Thumbnail(f.Data, PreviewSize)
	if err != nil {
		slog.Debug("No preview for image", "name", f.Name, "err", err)
		return p
	}

	base := strings.TrimSuffix(filepath.Base(f.Name), filepath.Ext(f.Name))
	path := filepath.Join(c.dir, fmt.Sprintf("preview_%02d_%s.jpg", index, base))
	if err := os.WriteFile(path, thumb, 0644); err != nil {
		slog.Warn("Unable to write preview", "name", f.Name, "err", err)
		return p
	}
	p.Path = path
	return p
}

// Files returns a copy of the accepted images.
func (c *ImageCollector) Files() []media.Blob {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]media.Blob(nil), c.files...)
}

// Previews returns a copy of the current preview handles.
func (c *ImageCollector) Previews() []Preview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Preview(nil), c.previews...)
}

// PreviewPaths lists the preview files that exist.
func (c *ImageCollector) PreviewPaths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	paths := make([]string, 0, len(c.previews))
	for _, p := range c.previews {
		if p.Path != "" {
			paths = append(paths, p.Path)
		}
	}
	return paths
}

// Release deletes every preview file. It is safe to call more than once.
func (c *ImageCollector) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
	if c.ownsDir && c.dir != "" {
		if err := os.RemoveAll(c.dir); err != nil {
			slog.Warn("Unable to remove preview directory", "dir", c.dir, "err", err)
		}
		c.dir = ""
		c.ownsDir = false
	}
}

func (c *ImageCollector) releaseLocked() {
	for _, p := range c.previews {
		if p.Path == "" {
			continue
		}
		if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
			slog.Warn("Unable to remove preview", "path", p.Path, "err", err)
		}
	}
	c.previews = nil
}

// Thumbnail scales an image down to fit within limit pixels on its longest
// side and encodes it as JPEG. Smaller images keep their size.
func Thumbnail(data []byte, limit int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("empty image")
	}
	if width > limit || height > limit {
		if width >= height {
			height = limit * height / width
			width = limit
		} else {
			width = limit * width / height
			height = limit
		}
		width = max(width, 1)
		height = max(height, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
