package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var UploadBasePath = "./uploads"

const MaxImageSize = 2 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

func InitLocalStorage() error {
	if err := os.MkdirAll(UploadBasePath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", UploadBasePath, err)
	}
	return nil
}

// ValidateImage rejects files that are not small jpeg, png or webp images.
func ValidateImage(file *multipart.FileHeader) error {
	if file.Size > MaxImageSize {
		return fmt.Errorf("image must be at most %d bytes", MaxImageSize)
	}
	if !allowedImageTypes[file.Header.Get("Content-Type")] {
		return fmt.Errorf("image must be jpeg, png or webp")
	}
	return nil
}

func UploadToLocal(file *multipart.FileHeader, folder string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	dir := filepath.Join(UploadBasePath, filepath.Clean("/"+folder))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	filename := fmt.Sprintf("%s-%s%s",
		time.Now().Format("20060102-150405"),
		uuid.New().String()[:8],
		filepath.Ext(file.Filename),
	)
	fullPath := filepath.Join(dir, filename)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	rel, err := filepath.Rel(UploadBasePath, fullPath)
	if err != nil {
		return "", err
	}
	return "/uploads/" + filepath.ToSlash(rel), nil
}

func DeleteFromLocal(fileURL string) error {
	rel := strings.TrimPrefix(fileURL, "/uploads/")
	filePath := filepath.Join(UploadBasePath, filepath.Clean("/"+rel))

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}
	baseAbs, err := filepath.Abs(UploadBasePath)
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}
	if !strings.HasPrefix(absPath, baseAbs+string(filepath.Separator)) {
		return fmt.Errorf("file path outside uploads directory")
	}

	if err := os.Remove(absPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", fileURL)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
