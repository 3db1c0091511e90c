// Package service provides business logic implementations.
package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"telegram-duel-bot/internal/repository"
)

// Common errors for catalog operations.
var (
	ErrFolderNotFound    = errors.New("folder not found")
	ErrNoImages          = errors.New("folder contains no images")
	ErrInvalidFolderName = errors.New("folder name contains illegal characters")
	ErrUnknownFormat     = errors.New("content is not a recognized image format")
)

// illegalChars are stripped from user-supplied folder names.
var illegalChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// imageExts are the file extensions served from an image folder.
var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".webp": true, ".bmp": true,
}

// CatalogService manages the on-disk image folders and their alias table.
type CatalogService struct {
	repo    *repository.CatalogRepository
	baseDir string
}

// NewCatalogService creates a CatalogService rooted at baseDir, creating
// the directory if needed.
func NewCatalogService(repo *repository.CatalogRepository, baseDir string) (*CatalogService, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base dir: %w", err)
	}

	return &CatalogService{repo: repo, baseDir: abs}, nil
}

// SanitizeFolderName strips illegal characters and surrounding space.
// Returns ErrInvalidFolderName when nothing usable remains.
func SanitizeFolderName(name string) (string, error) {
	cleaned := illegalChars.ReplaceAllString(strings.TrimSpace(name), "")
	cleaned = strings.Trim(cleaned, ". ")
	if cleaned == "" {
		return "", ErrInvalidFolderName
	}
	return cleaned, nil
}

// folderPath returns the absolute path for a folder, refusing escapes
// from the base directory.
func (s *CatalogService) folderPath(folderName string) (string, error) {
	target := filepath.Join(s.baseDir, folderName)
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve folder path: %w", err)
	}
	if abs != s.baseDir && !strings.HasPrefix(abs, s.baseDir+string(filepath.Separator)) {
		return "", ErrInvalidFolderName
	}
	return abs, nil
}

// Resolve maps a lookup name (folder name or alias) to the folder it
// points at, requiring the folder to exist on disk.
func (s *CatalogService) Resolve(ctx context.Context, name string) (string, error) {
	folderName, err := s.repo.ResolveFolder(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, repository.ErrAliasNotFound) {
			return "", ErrFolderNotFound
		}
		return "", err
	}

	dir, err := s.folderPath(folderName)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", ErrFolderNotFound
	}

	return folderName, nil
}

// RandomImage resolves a lookup name and picks one image file at random
// from the folder.
func (s *CatalogService) RandomImage(ctx context.Context, name string) (string, error) {
	folderName, err := s.Resolve(ctx, name)
	if err != nil {
		return "", err
	}

	dir, err := s.folderPath(folderName)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read folder: %w", err)
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	if len(images) == 0 {
		return "", ErrNoImages
	}

	return images[rand.Intn(len(images))], nil
}

// EnsureFolder resolves name as an existing alias, or registers it as a
// new folder (with its identity alias) after sanitization. Returns the
// folder name and whether it was newly created.
func (s *CatalogService) EnsureFolder(ctx context.Context, name string) (string, bool, error) {
	trimmed := strings.TrimSpace(name)

	folderName, err := s.repo.ResolveFolder(ctx, trimmed)
	if err == nil {
		return folderName, false, nil
	}
	if !errors.Is(err, repository.ErrAliasNotFound) {
		return "", false, err
	}

	folderName, err = SanitizeFolderName(trimmed)
	if err != nil {
		return "", false, err
	}

	if _, err := s.repo.CreateAlias(ctx, folderName, folderName); err != nil {
		if !errors.Is(err, repository.ErrAliasExists) {
			return "", false, err
		}
		return folderName, false, nil
	}

	return folderName, true, nil
}

// SaveImage writes image content into the folder, naming the file from
// the current time and a content hash, with the extension sniffed from
// the magic bytes.
func (s *CatalogService) SaveImage(ctx context.Context, folderName string, content []byte) (string, error) {
	ext := SniffImageExt(content)
	if ext == "" {
		return "", ErrUnknownFormat
	}

	dir, err := s.folderPath(folderName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	sum := md5.Sum(content)
	fileName := fmt.Sprintf("%d_%x.%s", time.Now().Unix(), sum[:4], ext)
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return fileName, nil
}

// AddAlias registers extraName for an existing folder.
func (s *CatalogService) AddAlias(ctx context.Context, folderName, extraName string) error {
	exists, err := s.repo.FolderExists(ctx, folderName)
	if err != nil {
		return err
	}
	if !exists {
		return ErrFolderNotFound
	}

	_, err = s.repo.CreateAlias(ctx, folderName, strings.TrimSpace(extraName))
	return err
}

// DeleteAlias removes a registered alias from a folder.
func (s *CatalogService) DeleteAlias(ctx context.Context, folderName, extraName string) error {
	return s.repo.DeleteAlias(ctx, folderName, strings.TrimSpace(extraName))
}

// ListFolders returns the registered folder names.
func (s *CatalogService) ListFolders(ctx context.Context) ([]string, error) {
	return s.repo.ListFolders(ctx)
}

// ListAliases returns the lookup names registered for a folder.
func (s *CatalogService) ListAliases(ctx context.Context, folderName string) ([]string, error) {
	return s.repo.ListAliases(ctx, folderName)
}

// SniffImageExt identifies an image format from its leading magic bytes.
// Returns an empty string for unrecognized content.
func SniffImageExt(content []byte) string {
	switch {
	case bytes.HasPrefix(content, []byte{0xff, 0xd8}):
		return "jpg"
	case bytes.HasPrefix(content, []byte("\x89PNG")):
		return "png"
	case bytes.HasPrefix(content, []byte("GIF8")):
		return "gif"
	case bytes.HasPrefix(content, []byte("RIFF")) && len(content) >= 12 && bytes.Equal(content[8:12], []byte("WEBP")):
		return "webp"
	case bytes.HasPrefix(content, []byte("BM")):
		return "bmp"
	default:
		return ""
	}
}
