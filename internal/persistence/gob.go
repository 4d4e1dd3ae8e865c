package persistence

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// SaveGob encodes the given object using gob, compresses it with zstd and saves it
// to the specified filePath. It creates necessary directories if they don't exist.
// The file is written to a temporary sibling first and renamed into place.
func SaveGob(filePath string, object interface{}) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := filePath + ".tmp"
	file, err := os.Create(tmpPath) // #nosec G304 -- filePath is controlled by application config, not user input
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", tmpPath, err)
	}

	encoder, err := zstd.NewWriter(file)
	if err != nil {
		closeQuietly(file, tmpPath)
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}

	if err := gob.NewEncoder(encoder).Encode(object); err != nil {
		_ = encoder.Close()
		closeQuietly(file, tmpPath)
		return fmt.Errorf("failed to gob encode to file %s: %w", tmpPath, err)
	}
	if err := encoder.Close(); err != nil {
		closeQuietly(file, tmpPath)
		return fmt.Errorf("failed to flush zstd stream for %s: %w", tmpPath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", filePath, err)
	}
	return nil
}

// LoadGob decodes a zstd-compressed gob file from filePath into the provided object pointer.
// If the file does not exist, it returns os.ErrNotExist, allowing callers to handle
// fresh starts gracefully.
func LoadGob(filePath string, objectPointer interface{}) error {
	file, err := os.Open(filePath) // #nosec G304 -- filePath is controlled by application config, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer closeQuietly(file, filePath)

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create zstd reader for %s: %w", filePath, err)
	}
	defer decoder.Close()

	if err := gob.NewDecoder(decoder).Decode(objectPointer); err != nil {
		return fmt.Errorf("failed to gob decode from file %s: %w", filePath, err)
	}
	return nil
}

func closeQuietly(file *os.File, path string) {
	if closeErr := file.Close(); closeErr != nil {
		slog.Warn("failed to close file", "path", path, "error", closeErr)
	}
}
