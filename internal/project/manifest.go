package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestName is the project manifest looked up from the start directory
// toward the filesystem root.
const ManifestName = "microts.toml"

// Manifest is a located and parsed microts.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Package PackageConfig `toml:"package"`
	Build   BuildConfig   `toml:"build"`
}

type PackageConfig struct {
	Name  string `toml:"name"`
	Entry string `toml:"entry"`
}

type BuildConfig struct {
	Target  string `toml:"target"`
	Prelude string `toml:"prelude"`
	Output  string `toml:"output"`
}

// FindManifest walks from startDir toward the root looking for the
// manifest file.
func FindManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest locates and parses the nearest manifest. The second result
// is false when no manifest exists, which is not an error: the CLI then
// requires an explicit entry path.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, true, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, true, fmt.Errorf("%s: missing [package] section", path)
	}
	if cfg.Package.Entry == "" {
		return nil, true, fmt.Errorf("%s: package.entry is required", path)
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

// EntryPath resolves the manifest's entry file against the project root.
func (m *Manifest) EntryPath() string {
	if filepath.IsAbs(m.Config.Package.Entry) {
		return m.Config.Package.Entry
	}
	return filepath.Join(m.Root, m.Config.Package.Entry)
}
