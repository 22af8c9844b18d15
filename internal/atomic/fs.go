//go:build !windows

package atomic

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// isSamePartition checks if the source and destination reside on the same
// filesystem partition. The destination usually does not exist yet, so its
// nearest existing ancestor decides.
func isSamePartition(src, dst string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, fmt.Errorf("failed to get source file stats: %w", err)
	}

	dstDir := filepath.Dir(dst)
	dstInfo, err := os.Stat(dstDir)
	for os.IsNotExist(err) {
		parent := filepath.Dir(dstDir)
		if parent == dstDir {
			break
		}
		dstDir = parent
		dstInfo, err = os.Stat(dstDir)
	}
	if err != nil {
		return false, fmt.Errorf("failed to get destination stats: %w", err)
	}

	srcSys, ok := srcInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return false, fmt.Errorf("failed to get source system info")
	}

	dstSys, ok := dstInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return false, fmt.Errorf("failed to get destination system info")
	}

	return srcSys.Dev == dstSys.Dev, nil
}
