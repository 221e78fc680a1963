package utils

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func uploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestSaveImageUploadStoresFileUnderRandomName(t *testing.T) {
	dir := t.TempDir()
	fh := uploadHeader(t, "chart.PNG", []byte("fake image bytes"))

	url, err := SaveImageUpload(fh, dir, "analysis")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/analysis/"))
	require.True(t, strings.HasSuffix(url, ".png"), "extension is lowercased: %s", url)
	require.NotContains(t, url, "chart", "original name must not survive")

	stored := filepath.Join(dir, "analysis", filepath.Base(url))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	require.Equal(t, []byte("fake image bytes"), data)
}

func TestSaveImageUploadRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	fh := uploadHeader(t, "payload.exe", []byte("nope"))

	_, err := SaveImageUpload(fh, dir, "analysis")
	require.ErrorIs(t, err, ErrUnsupportedFileType)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "nothing is written for rejected uploads")
}

func TestSaveImageUploadDistinctNamesForSameFile(t *testing.T) {
	dir := t.TempDir()
	a := uploadHeader(t, "same.jpg", []byte("x"))
	b := uploadHeader(t, "same.jpg", []byte("x"))

	urlA, err := SaveImageUpload(a, dir, "verifications")
	require.NoError(t, err)
	urlB, err := SaveImageUpload(b, dir, "verifications")
	require.NoError(t, err)
	require.NotEqual(t, urlA, urlB)
}
