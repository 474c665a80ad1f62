package runner

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/homecare/pkg/domain"
)

// FileOpener turns a path typed by the user into a file handle.
type FileOpener func(path string) (domain.FileHandle, error)

// OpenFile reads a local file. The MIME type is sniffed from the content and
// falls back to the extension when sniffing is inconclusive.
func OpenFile(path string) (domain.FileHandle, error) {
	path = strings.Trim(strings.TrimSpace(path), `"'`)
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.FileHandle{}, fmt.Errorf("read %s: %w", path, err)
	}

	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	if mt == "application/octet-stream" {
		if byExt, _, err := mime.ParseMediaType(mime.TypeByExtension(filepath.Ext(path))); err == nil && byExt != "" {
			mt = byExt
		}
	}

	return domain.FileHandle{
		Name:     filepath.Base(path),
		MimeType: mt,
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}

func fileNames(v any) string {
	files := domain.Answers{"f": v}.Files("f")
	if len(files) == 0 {
		return ""
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}
