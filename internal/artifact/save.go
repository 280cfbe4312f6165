package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Save writes decoded media to dir under a filename derived from the
// artifact key and returns the path. Remote file URIs are not downloaded.
func (m *Media) Save(dir, key string) (string, error) {
	if m.FileURI != "" {
		return "", fmt.Errorf("artifact %s is a remote file: %s", key, m.FileURI)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}

	name := strings.ReplaceAll(key, "/", "_")
	if filepath.Ext(name) == "" {
		name += extensionFor(m.MimeType)
	}
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, m.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}

func extensionFor(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return ".png"
	case strings.HasPrefix(mimeType, "video/"):
		return ".mp4"
	case strings.Contains(mimeType, "pdf"):
		return ".pdf"
	default:
		return ".bin"
	}
}
