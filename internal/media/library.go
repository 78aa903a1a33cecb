package media

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DefaultExtensions are the video formats picked up when none are configured.
var DefaultExtensions = []string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".m4v"}

// HintFileName is dropped into a freshly created video folder.
const HintFileName = "_put_videos_here.txt"

// Library discovers playable files in a folder.
type Library struct {
	fs   afero.Fs
	exts map[string]struct{}
}

// NewLibrary matches exts case-insensitively; an empty list means
// DefaultExtensions.
func NewLibrary(fsys afero.Fs, exts []string) *Library {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = struct{}{}
	}
	return &Library{fs: fsys, exts: m}
}

// List returns the absolute paths of the matching regular files directly
// inside dir, sorted by name. A missing directory is not an error: it simply
// has no videos.
func (l *Library) List(dir string) ([]string, error) {
	dir, err := absDir(dir)
	if err != nil {
		return nil, err
	}
	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.Mode().IsRegular() {
			continue
		}
		if _, ok := l.exts[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// EnsureFolder creates dir if needed and leaves a hint file the first time.
func (l *Library) EnsureFolder(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("video folder not set")
	}
	if err := l.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	hint := filepath.Join(dir, HintFileName)
	if ok, _ := afero.Exists(l.fs, hint); ok {
		return nil
	}
	body := "Put your videos here (" + strings.Join(l.extensions(), ", ") + ").\n"
	if err := afero.WriteFile(l.fs, hint, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write hint: %w", err)
	}
	return nil
}

func (l *Library) extensions() []string {
	out := make([]string, 0, len(l.exts))
	for e := range l.exts {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// absDir resolves dir against the working directory; playlist entries are
// always absolute.
func absDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("video folder not set")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	return abs, nil
}
