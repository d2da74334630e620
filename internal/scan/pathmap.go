package scan

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrOutsideRoot marks sources that do not resolve underneath the input root.
var ErrOutsideRoot = errors.New("source path outside input root")

// MapPath derives the destination for source by rewriting its path relative
// to inputRoot underneath outputRoot and swapping the extension for
// outputExt. The relative portion is NFC-normalized so mixed-normalization
// source trees (macOS NFD file names) produce one consistent output tree.
func MapPath(source, inputRoot, outputRoot, outputExt string) (string, error) {
	rel, err := filepath.Rel(inputRoot, source)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, source)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, source)
	}

	ext := filepath.Ext(rel)
	rel = strings.TrimSuffix(rel, ext) + outputExt
	return filepath.Join(outputRoot, norm.NFC.String(rel)), nil
}
