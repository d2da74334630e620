// Package artwork places standalone album cover files in destination album
// directories. Covers are found on disk next to the source audio, or failing
// that, extracted from the first source file's embedded picture. Images are
// flattened, scaled down to a size cap, and re-encoded as JPEG.
package artwork

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	"go.senan.xyz/taglib"
	xdraw "golang.org/x/image/draw"

	"repress/internal/fileutil"
)

// Options controls cover discovery and processing.
type Options struct {
	SearchNames  []string
	FallbackName string
	MaxSize      int
	JPEGQuality  int
	Overwrite    bool
}

// Placer copies album cover files into destination directories.
type Placer struct {
	opts   Options
	logger *slog.Logger

	// extractImage pulls the embedded front cover out of an audio file.
	// Swapped in tests.
	extractImage func(path string) ([]byte, error)
}

func NewPlacer(opts Options, logger *slog.Logger) *Placer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Placer{
		opts:         opts,
		logger:       logger,
		extractImage: taglib.ReadImage,
	}
}

// Place finds a cover for the album rooted at sourceDir and writes it into
// destDir. sourceFiles are the album's audio files, used for embedded
// extraction when no cover file exists on disk. It returns the destination
// path, or "" when the album has no cover at all.
func (p *Placer) Place(sourceDir, destDir string, sourceFiles []string) (string, error) {
	coverPath := p.findCoverFile(sourceDir)

	if coverPath != "" {
		dest := filepath.Join(destDir, filepath.Base(coverPath))
		if p.skipExisting(dest) {
			return dest, nil
		}
		if err := p.placeFromFile(coverPath, dest); err != nil {
			return "", err
		}
		return dest, nil
	}

	data, err := p.extractEmbedded(sourceFiles)
	if err != nil {
		return "", err
	}
	if data == nil {
		p.logger.Debug("no cover found", "album", sourceDir)
		return "", nil
	}
	dest := filepath.Join(destDir, p.opts.FallbackName)
	if p.skipExisting(dest) {
		return dest, nil
	}
	if err := p.writeProcessed(data, dest); err != nil {
		return "", err
	}
	p.logger.Debug("extracted embedded cover", "album", sourceDir, "dest", dest)
	return dest, nil
}

func (p *Placer) findCoverFile(dir string) string {
	for _, name := range p.opts.SearchNames {
		path := filepath.Join(dir, name)
		if fileutil.FileExists(path) {
			return path
		}
	}
	return ""
}

func (p *Placer) skipExisting(dest string) bool {
	if p.opts.Overwrite {
		return false
	}
	return fileutil.FileExists(dest)
}

// placeFromFile processes the source image into dest. When the image cannot
// be decoded the bytes are copied unmodified, matching the cover as the
// source tree shipped it.
func (p *Placer) placeFromFile(source, dest string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("read cover %s: %w", source, err)
	}
	if err := p.writeProcessed(data, dest); err != nil {
		p.logger.Warn("cover processing failed, copying as-is", "cover", source, "error", err)
		return fileutil.CopyFile(source, dest)
	}
	return nil
}

func (p *Placer) extractEmbedded(sourceFiles []string) ([]byte, error) {
	if len(sourceFiles) == 0 {
		return nil, nil
	}
	data, err := p.extractImage(sourceFiles[0])
	if err != nil {
		p.logger.Debug("no embedded cover", "file", sourceFiles[0], "error", err)
		return nil, nil
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func (p *Placer) writeProcessed(data []byte, dest string) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode cover image: %w", err)
	}

	img = flatten(img)
	if p.opts.MaxSize > 0 {
		img = scaleToFit(img, p.opts.MaxSize)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create album directory: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create cover %s: %w", dest, err)
	}
	defer out.Close()

	quality := p.opts.JPEGQuality
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}
	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode cover %s: %w", dest, err)
	}
	return out.Close()
}

// flatten composites the image over a white background so transparency in
// PNG sources does not turn black in the JPEG output.
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)
	return flat
}

// scaleToFit shrinks the image so neither dimension exceeds max, keeping
// aspect ratio. Images already within the cap pass through untouched.
func scaleToFit(img image.Image, max int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= max && height <= max {
		return img
	}

	scale := float64(max) / float64(width)
	if height > width {
		scale = float64(max) / float64(height)
	}
	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, xdraw.Src, nil)
	return scaled
}
