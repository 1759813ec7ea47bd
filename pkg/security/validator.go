package security

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
)

// Validator guards extraction of fetched library archives. A library bundle
// comes from object storage as a tarball; nothing inside it may escape the
// extraction root or blow past the configured size limits.
type Validator struct {
	maxFileSize         int64
	maxTotalSize        int64
	maxCompressionRatio float64

	mu               sync.Mutex
	currentTotalSize int64
}

// NewValidator creates a new extraction validator
func NewValidator(maxFileSize, maxTotalSize int64, maxCompressionRatio float64) *Validator {
	slog.Info("extract_validator_init",
		"max_file_size_mb", maxFileSize/1024/1024,
		"max_total_size_mb", maxTotalSize/1024/1024,
		"max_compression_ratio", maxCompressionRatio)

	return &Validator{
		maxFileSize:         maxFileSize,
		maxTotalSize:        maxTotalSize,
		maxCompressionRatio: maxCompressionRatio,
	}
}

// ValidatePath checks an archive entry path for traversal outside the
// extraction root.
func (v *Validator) ValidatePath(entryPath string) error {
	if filepath.IsAbs(entryPath) {
		slog.Error("extract_path_rejected", "path", entryPath, "reason", "absolute_path")
		return fmt.Errorf("archive: absolute path not allowed: %s", entryPath)
	}

	clean := filepath.Clean(entryPath)
	if strings.HasPrefix(clean, "..") {
		slog.Error("extract_path_rejected", "path", entryPath, "reason", "path_traversal")
		return fmt.Errorf("archive: path traversal detected: %s", entryPath)
	}

	return nil
}

// ValidateSymlink validates a symlink target in the context of the symlink's
// location inside the bundle. Relative targets must stay within the bundle
// root; absolute targets are rejected outright, a library bundle never
// carries them.
func (v *Validator) ValidateSymlink(linkPath, targetPath string) error {
	if filepath.IsAbs(targetPath) {
		slog.Error("extract_symlink_rejected", "link", linkPath, "target", targetPath, "reason", "absolute_target")
		return fmt.Errorf("archive: absolute symlink target not allowed: %s -> %s", linkPath, targetPath)
	}

	resolved := filepath.Clean(filepath.Join(filepath.Dir(linkPath), targetPath))

	// Count directory depth from the bundle root; negative depth escapes it.
	depth := 0
	for _, part := range strings.Split(resolved, string(filepath.Separator)) {
		switch part {
		case "..":
			depth--
		case "", ".":
		default:
			depth++
		}
		if depth < 0 {
			slog.Error("extract_symlink_rejected",
				"link", linkPath, "target", targetPath, "resolved", resolved)
			return fmt.Errorf("archive: symlink escapes bundle: %s -> %s", linkPath, targetPath)
		}
	}

	return nil
}

// ValidateFileSize checks if a single entry exceeds the max file size
func (v *Validator) ValidateFileSize(size int64) error {
	if size > v.maxFileSize {
		slog.Error("extract_file_size_exceeded",
			"file_size_mb", size/1024/1024,
			"max_file_size_mb", v.maxFileSize/1024/1024)
		return fmt.Errorf("archive: file size %d exceeds max %d", size, v.maxFileSize)
	}
	return nil
}

// AddExtractedSize tracks total extracted size and checks against the limit
func (v *Validator) AddExtractedSize(size int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.currentTotalSize += size
	if v.currentTotalSize > v.maxTotalSize {
		slog.Error("extract_total_size_exceeded",
			"current_total_mb", v.currentTotalSize/1024/1024,
			"max_total_mb", v.maxTotalSize/1024/1024)
		return fmt.Errorf("archive: total extracted size %d exceeds max %d",
			v.currentTotalSize, v.maxTotalSize)
	}
	return nil
}

// ValidateCompressionRatio checks the whole archive for compression bombs
func (v *Validator) ValidateCompressionRatio(compressedSize, uncompressedSize int64) error {
	if compressedSize == 0 {
		return fmt.Errorf("archive: compressed size cannot be zero")
	}

	ratio := float64(uncompressedSize) / float64(compressedSize)
	if ratio > v.maxCompressionRatio {
		slog.Error("extract_compression_bomb",
			"ratio", ratio,
			"max_ratio", v.maxCompressionRatio)
		return fmt.Errorf("archive: compression ratio %.2f exceeds max %.2f",
			ratio, v.maxCompressionRatio)
	}
	return nil
}

// Reset resets the total size counter
func (v *Validator) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.currentTotalSize = 0
}
