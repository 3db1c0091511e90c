package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *CatalogService {
	t.Helper()
	s, err := NewCatalogService(nil, t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSniffImageExt(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}, "jpg"},
		{"png", []byte("\x89PNG\r\n\x1a\n"), "png"},
		{"gif87a", []byte("GIF87a"), "gif"},
		{"gif89a", []byte("GIF89a"), "gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "webp"},
		{"bmp", []byte("BM\x36\x00"), "bmp"},
		{"riff but not webp", []byte("RIFF\x00\x00\x00\x00WAVE"), ""},
		{"truncated riff", []byte("RIFF"), ""},
		{"plain text", []byte("hello"), ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SniffImageExt(tt.content))
		})
	}
}

func TestSanitizeFolderName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "cats", "cats", false},
		{"chinese", "猫猫", "猫猫", false},
		{"surrounding space", "  cats  ", "cats", false},
		{"illegal chars stripped", `ca*t?s<>`, "cats", false},
		{"path separators stripped", `../etc/passwd`, "etcpasswd", false},
		{"trailing dots stripped", "cats..", "cats", false},
		{"only illegal chars", `\/:*?"<>|`, "", true},
		{"only dots", "...", "", true},
		{"empty", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFolderName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFolderName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestFolderPathEscapeGuard verifies folder paths cannot escape the base
// directory.
func TestFolderPathEscapeGuard(t *testing.T) {
	s := newTestService(t)

	path, err := s.folderPath("cats")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.baseDir, "cats"), path)

	_, err = s.folderPath("../outside")
	assert.ErrorIs(t, err, ErrInvalidFolderName)

	_, err = s.folderPath("..")
	assert.ErrorIs(t, err, ErrInvalidFolderName)
}

func TestSaveImage(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	content := append([]byte{0xff, 0xd8}, []byte("fake jpeg body")...)

	fileName, err := s.SaveImage(ctx, "cats", content)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(fileName, ".jpg"), "file name %q", fileName)

	saved, err := os.ReadFile(filepath.Join(s.baseDir, "cats", fileName))
	require.NoError(t, err)
	assert.Equal(t, content, saved)
}

func TestSaveImageRejectsUnknownFormat(t *testing.T) {
	s := newTestService(t)

	_, err := s.SaveImage(context.Background(), "cats", []byte("not an image"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestSaveImageRejectsEscapingFolder(t *testing.T) {
	s := newTestService(t)
	content := []byte{0xff, 0xd8, 0x00}

	_, err := s.SaveImage(context.Background(), "../escape", content)
	assert.ErrorIs(t, err, ErrInvalidFolderName)
}
