package utils

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SaveUploadedFile stores the upload under mediaRoot/subDir with a random
// name and returns the path relative to mediaRoot.
func SaveUploadedFile(file *multipart.FileHeader, mediaRoot, subDir string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	destDir := filepath.Join(mediaRoot, subDir)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	newFilename := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(destDir, newFilename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return filepath.ToSlash(filepath.Join(subDir, newFilename)), nil
}

// RemoveUploadedFile deletes a file previously returned by SaveUploadedFile.
// A missing file is not an error.
func RemoveUploadedFile(mediaRoot, relPath string) error {
	if relPath == "" {
		return nil
	}
	err := os.Remove(filepath.Join(mediaRoot, filepath.FromSlash(relPath)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func GetFileURL(filePath string) string {
	if filePath == "" {
		return ""
	}
	return "/media/" + filePath
}
