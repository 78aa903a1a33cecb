package media

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// Request is everything one playback needs. It is built per invocation and
// thrown away afterwards.
type Request struct {
	Directory string
	Files     []string
	Playlist  string
}

// WritePlaylist writes files, one absolute path per line, to a new temporary
// playlist under dir and returns its path. The caller removes it.
func WritePlaylist(fsys afero.Fs, dir string, files []string) (string, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := afero.TempFile(fsys, dir, "playlist-*.m3u")
	if err != nil {
		return "", fmt.Errorf("create playlist: %w", err)
	}
	body := strings.Join(files, "\n") + "\n"
	if _, err := f.WriteString(body); err != nil {
		_ = f.Close()
		_ = fsys.Remove(f.Name())
		return "", fmt.Errorf("write playlist: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = fsys.Remove(f.Name())
		return "", fmt.Errorf("write playlist: %w", err)
	}
	return f.Name(), nil
}
