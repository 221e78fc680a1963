package utils

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedFileType is returned for uploads with an extension
// outside the allowed set.
var ErrUnsupportedFileType = errors.New("unsupported file type")

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

// SaveImageUpload stores a multipart image under baseDir/subdir with a
// random file name and returns the public URL path
// ("/uploads/<subdir>/<name>"). The original file name is never
// trusted; only its extension survives.
func SaveImageUpload(fh *multipart.FileHeader, baseDir, subdir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !imageExts[ext] {
		return "", ErrUnsupportedFileType
	}

	dir := filepath.Join(baseDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return "/uploads/" + subdir + "/" + name, nil
}
