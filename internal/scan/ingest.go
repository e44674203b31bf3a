package scan

import (
	"bufio"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"

	"linkdedup/internal/models"
)

// LoadManifest reads a JSON-lines manifest: one record per line with
// id, optional url/domain, and optional thumb path or precomputed hash.
func LoadManifest(path string) ([]*models.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var records []*models.Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		rec := &models.Record{}
		if err := json.Unmarshal([]byte(text), rec); err != nil {
			return nil, fmt.Errorf("manifest line %d: %w", line, err)
		}
		if rec.Handle == "" {
			rec.Handle = fmt.Sprintf("%s:%d", filepath.Base(path), line)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return records, nil
}

// LoadFolder walks a folder recursively and returns one record per
// supported image file; items are thumbnail-only, with no URL.
func LoadFolder(folder string) ([]*models.Record, error) {
	var records []*models.Record
	err := filepath.Walk(folder, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if info.IsDir() {
			return nil
		}
		if IsSupportedImage(path) {
			records = append(records, &models.Record{Handle: path, ThumbPath: path})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk folder: %w", err)
	}
	return records, nil
}

// IsSupportedImage checks if a file is a supported image format.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	default:
		return false
	}
}

// DecodeImage decodes an image file into a raw RGBA pixel grid.
func DecodeImage(path string) (*models.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &models.Image{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pix:    rgba.Pix,
	}, nil
}
