// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// manifestFileName is the image record file inside the cache directory.
const manifestFileName = "images.toml"

type (
	// ImageRecord describes one image pybox has built.
	ImageRecord struct {
		Tag        string    `toml:"tag"`
		BaseImage  string    `toml:"base_image"`
		ContextDir string    `toml:"context_dir"`
		Digest     string    `toml:"digest"`
		CreatedAt  time.Time `toml:"created_at"`
	}

	// Manifest is the on-disk index of built images, stored as TOML in the
	// cache directory.
	Manifest struct {
		Images []ImageRecord `toml:"images"`
	}
)

// Upsert records an image, replacing any existing record with the same tag.
func (m *Manifest) Upsert(rec ImageRecord) {
	for i, existing := range m.Images {
		if existing.Tag == rec.Tag {
			m.Images[i] = rec
			return
		}
	}
	m.Images = append(m.Images, rec)
}

// Remove drops the record with the given tag, if present.
func (m *Manifest) Remove(tag string) {
	for i, existing := range m.Images {
		if existing.Tag == tag {
			m.Images = append(m.Images[:i], m.Images[i+1:]...)
			return
		}
	}
}

// Lookup returns the record with the given tag, or nil.
func (m *Manifest) Lookup(tag string) *ImageRecord {
	for i := range m.Images {
		if m.Images[i].Tag == tag {
			return &m.Images[i]
		}
	}
	return nil
}

// loadManifest reads the image manifest from the cache directory. A missing
// file yields an empty manifest.
func loadManifest(cacheDir string) (*Manifest, error) {
	path := filepath.Join(cacheDir, manifestFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{}, nil
		}
		return nil, fmt.Errorf("failed to read image manifest: %w", err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse image manifest %s: %w", path, err)
	}
	return &m, nil
}

// saveManifest writes the image manifest to the cache directory, creating it
// if needed.
func saveManifest(cacheDir string, m *Manifest) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode image manifest: %w", err)
	}

	path := filepath.Join(cacheDir, manifestFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image manifest: %w", err)
	}
	return os.Rename(tmp, path)
}
