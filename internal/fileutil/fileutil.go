// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors for file utility operations.
var (
	ErrPrefixEmpty         = errors.New("temp prefix cannot be empty")
	ErrPrefixPathTraversal = errors.New("temp prefix contains path separator or null byte")
)

// TempPrefix marks working copies written next to user documents.
const TempPrefix = ".html2pdf-"

// File permission constants.
const (
	DirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	FilePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// WriteSiblingTemp writes content to a new file in the same directory as
// original. The name is prefix + random id + "-" + base name of original, so
// relative references inside the content resolve exactly as they would for
// the original file. Returns the file path and a cleanup function.
func WriteSiblingTemp(original, prefix string, content []byte) (path string, cleanup func(), err error) {
	if err := ValidatePrefix(prefix); err != nil {
		return "", nil, err
	}

	dir := filepath.Dir(original)
	name := prefix + uuid.NewString() + "-" + filepath.Base(original)
	path = filepath.Join(dir, name)

	// #nosec G304 -- path built from a validated prefix and a random id
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FilePermissions)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	cleanup = func() { _ = os.Remove(path) }

	if _, writeErr := f.Write(content); writeErr != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", writeErr)
	}

	if closeErr := f.Close(); closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", closeErr)
	}

	return path, cleanup, nil
}

// WriteFileAtomic writes data to a temporary file in the destination
// directory and renames it into place, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, TempPrefix+"*.part")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, FilePermissions); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// PartPath returns a unique staging path next to path, keeping its extension.
// An external writer fills it and the caller renames it over path once the
// write succeeded.
func PartPath(path string) string {
	return filepath.Join(filepath.Dir(path), TempPrefix+uuid.NewString()+".part"+filepath.Ext(path))
}

// ValidatePrefix checks that the prefix is safe for use in temp file names.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return ErrPrefixEmpty
	}
	if strings.ContainsAny(prefix, "/\\\x00") {
		return ErrPrefixPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// HasScheme returns true if s starts with a URL scheme this tool resolves
// itself (http, https, file) or one that must never be touched (data).
func HasScheme(s string) bool {
	lower := strings.ToLower(s)
	for _, scheme := range []string{"http://", "https://", "file://", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// IsURL returns true if the string looks like a network URL.
func IsURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// PathToFileURL converts an absolute path to a file:// URL.
// Handles both Unix and Windows paths correctly.
func PathToFileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	// Windows drive paths need a leading slash: file:///C:/docs
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{
		Scheme: "file",
		Path:   p,
	}
	return u.String()
}

// DirToFileURL converts an absolute directory path to a file:// URL with a
// trailing slash, so relative references resolve inside the directory.
func DirToFileURL(absDir string) string {
	u := PathToFileURL(absDir)
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}
