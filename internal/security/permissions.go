package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
)

// SecretFileMode is owner read/write only
const SecretFileMode os.FileMode = 0600

// CheckFilePermissions tightens path to expected if it is more permissive.
// A missing file is not an error.
func CheckFilePermissions(path string, expected os.FileMode, logger *zap.Logger) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to check file permissions: %w", err)
	}

	actual := info.Mode().Perm()
	if actual == expected {
		return nil
	}

	logger.Warn("Fixing file permissions",
		zap.String("path", path),
		zap.String("actual", fmt.Sprintf("%o", actual)),
		zap.String("expected", fmt.Sprintf("%o", expected)))

	if err := os.Chmod(path, expected); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	return nil
}

// EnsureSecurePermissions restricts the settings file and the SQLite
// database (with its WAL and SHM companions) to the owner. Empty paths
// are skipped. Failures are logged, never fatal.
func EnsureSecurePermissions(logger *zap.Logger, settingsPath, dbPath string) {
	var paths []string
	if settingsPath != "" {
		paths = append(paths, settingsPath)
	}
	if dbPath != "" {
		paths = append(paths, dbPath, dbPath+"-wal", dbPath+"-shm")
	}

	for _, p := range paths {
		if err := CheckFilePermissions(p, SecretFileMode, logger); err != nil {
			logger.Warn("Could not secure file permissions", zap.String("path", p), zap.Error(err))
		}
	}
}
