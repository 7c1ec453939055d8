// Package repo implements repository discovery and creation (C5): the
// metadata directory layout, its INI configuration, and path-composition
// helpers every other component builds on.
//
// Grounded on the teacher's internal/config.Config (JSON-backed, merged
// global/repo layering) for the load/save shape, generalized here to a single
// INI-backed repository config per spec §4.5, following the go-ini usage
// shown by the reference implementations in manifests/Nivl-git-go and
// manifests/showa-93-wyag-go.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// MetaDirName is the conventional name of a repository's metadata
// subdirectory.
const MetaDirName = ".minit"

const description = "This is a minit repository.\n"

// RequiredFormatVersion is the only accepted value of
// core.repositoryformatversion.
const RequiredFormatVersion = "0"

var (
	ErrRepositoryExists = errors.New("repository already exists")
	ErrInvalidPath      = errors.New("invalid path")
	ErrNoRepository     = errors.New("no repository found")
	ErrConfigMissing    = errors.New("config key missing")
	ErrUnsupportedVersion = errors.New("unsupported repository format version")
)

// Repository is an opened minit repository: a worktree root plus its
// metadata directory and loaded config.
type Repository struct {
	WorkTree string
	MetaDir  string
	Config   *ini.File
}

// Create initializes a new repository at path per spec §4.5.
func Create(path string) (*Repository, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %q is not a directory", ErrInvalidPath, path)
		}
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(path, 0o755); mkErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPath, mkErr)
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	metaDir := filepath.Join(path, MetaDirName)
	if entries, statErr := os.ReadDir(metaDir); statErr == nil {
		if len(entries) > 0 {
			return nil, fmt.Errorf("%w: %q", ErrRepositoryExists, metaDir)
		}
	} else if !os.IsNotExist(statErr) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, statErr)
	}

	for _, dir := range []string{"branches", "objects", filepath.Join("refs", "tags"), filepath.Join("refs", "heads")} {
		if err := os.MkdirAll(filepath.Join(metaDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
		}
	}

	if err := os.WriteFile(filepath.Join(metaDir, "description"), []byte(description), 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if err := os.WriteFile(filepath.Join(metaDir, "HEAD"), []byte("ref: refs/heads/master\n"), 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	cfg := defaultConfig()
	if err := cfg.SaveTo(filepath.Join(metaDir, "config")); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	return &Repository{WorkTree: path, MetaDir: metaDir, Config: cfg}, nil
}

func defaultConfig() *ini.File {
	cfg := ini.Empty()
	sec, _ := cfg.NewSection("core")
	_, _ = sec.NewKey("repositoryformatversion", RequiredFormatVersion)
	_, _ = sec.NewKey("filemode", "false")
	_, _ = sec.NewKey("bare", "false")
	return cfg
}

// Discover walks upward from start looking for a metadata directory. If none
// is found, it returns (nil, nil) unless required is true, in which case it
// returns ErrNoRepository.
func Discover(start string, required bool) (*Repository, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	dir := abs
	for {
		metaDir := filepath.Join(dir, MetaDirName)
		if info, err := os.Stat(metaDir); err == nil && info.IsDir() {
			return open(dir, metaDir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			if required {
				return nil, fmt.Errorf("%w: starting from %q", ErrNoRepository, start)
			}
			return nil, nil
		}
		dir = parent
	}
}

func open(workTree, metaDir string) (*Repository, error) {
	cfgPath := filepath.Join(metaDir, "config")
	cfg, err := ini.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigMissing, err)
	}

	key, err := cfg.Section("core").GetKey("repositoryformatversion")
	if err != nil {
		return nil, fmt.Errorf("%w: core.repositoryformatversion", ErrConfigMissing)
	}
	if key.String() != RequiredFormatVersion {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrUnsupportedVersion, key.String(), RequiredFormatVersion)
	}

	return &Repository{WorkTree: workTree, MetaDir: metaDir, Config: cfg}, nil
}

// Path composes segments under the metadata directory, without touching the
// filesystem.
func (r *Repository) Path(segments ...string) string {
	return filepath.Join(append([]string{r.MetaDir}, segments...)...)
}

// PathMkdir composes segments under the metadata directory, creating all but
// the last segment as directories first.
func (r *Repository) PathMkdir(segments ...string) (string, error) {
	if len(segments) == 0 {
		return r.MetaDir, nil
	}
	dir := filepath.Join(append([]string{r.MetaDir}, segments[:len(segments)-1]...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return filepath.Join(dir, segments[len(segments)-1]), nil
}
