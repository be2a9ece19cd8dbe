package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"cleanerguard/internal/config"
	"cleanerguard/internal/logging"
	"cleanerguard/internal/truststore"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDefinitionDir verifies a definition directory. Rejected files are
// deleted from it, so write access is required when it exists.
func CheckDefinitionDir(path string) Result {
	const name = "Definition directory"
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (absent, nothing to scan)", path)}
	}
	return CheckDirectoryAccess(name, path)
}

// CheckStore opens the configured trust store under its lock and counts the
// records, so a corrupt store fails here instead of at the next scan. A store
// that does not exist yet is not created.
func CheckStore(ctx context.Context, cfg *config.Config) Result {
	const name = "Trust store"
	path := cfg.Store.Path

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s, not created yet)", path, cfg.Store.Backend)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}

	lock, err := truststore.AcquireLock(cfg.LockPath())
	if err != nil {
		if errors.Is(err, truststore.ErrLocked) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (in use by another cleanerguard process, not inspected)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer lock.Release()

	store, err := truststore.Open(cfg, logging.NewNop())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()

	records, err := store.Records(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s, %d trusted)", path, cfg.Store.Backend, len(records))}
}
