// Package atomic moves and copies files with a manifest-friendly contract:
// a move reports success only once the source is gone and the destination
// is complete, including the cross-device copy+delete fallback.
package atomic

import (
	"fmt"
	"os"
	"path/filepath"

	cp "github.com/otiai10/copy"
)

// MoveOptions specifies options for move operations
type MoveOptions struct {
	AllowCrossDev bool // Allow falling back to copy+delete across devices
	Force         bool // Replace the destination if it exists
}

// Move moves src to dst. Same-partition moves use rename(2); cross-device
// moves degrade to copy+delete when AllowCrossDev is set. Metadata is
// preserved where the filesystem allows.
func Move(src, dst string, opts MoveOptions) error {
	if err := validatePaths(src, dst); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &MoveError{Op: "create_parent", Src: src, Dst: dst, Err: err}
	}

	if !opts.Force {
		if _, err := os.Lstat(dst); err == nil {
			return ErrDestinationExists
		}
	}

	if sameDevice, _ := isSamePartition(src, dst); sameDevice {
		if err := os.Rename(src, dst); err == nil {
			return nil
		}
	}

	if !opts.AllowCrossDev {
		return &MoveError{Op: "rename", Src: src, Dst: dst, Err: fmt.Errorf("cross-device move not allowed")}
	}
	return copyAndDelete(src, dst)
}

// Copy copies src to dst, preserving timestamps and ownership where the
// filesystem allows. The source is left in place.
func Copy(src, dst string, force bool) error {
	if err := validatePaths(src, dst); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &MoveError{Op: "create_parent", Src: src, Dst: dst, Err: err}
	}

	if !force {
		if _, err := os.Lstat(dst); err == nil {
			return ErrDestinationExists
		}
	}

	if err := cp.Copy(src, dst, copyOptions()); err != nil {
		return &MoveError{Op: "copy", Src: src, Dst: dst, Err: err}
	}
	return nil
}

// copyAndDelete copies src and then removes it. The destination is torn
// down again if the source delete fails, so the caller never observes a
// "success" that left two copies behind.
func copyAndDelete(src, dst string) error {
	if err := cp.Copy(src, dst, copyOptions()); err != nil {
		return &MoveError{Op: "copy", Src: src, Dst: dst, Err: err}
	}

	if err := os.RemoveAll(src); err != nil {
		if rmErr := os.RemoveAll(dst); rmErr != nil {
			return &MoveError{
				Op:  "cleanup",
				Src: src,
				Dst: dst,
				Err: fmt.Errorf("failed to remove both source and destination: %v, %v", err, rmErr),
			}
		}
		return &MoveError{Op: "remove_source", Src: src, Dst: dst, Err: err}
	}

	return nil
}

func copyOptions() cp.Options {
	return cp.Options{
		OnSymlink: func(string) cp.SymlinkAction {
			return cp.Shallow
		},
		PreserveTimes: true,
		PreserveOwner: true,
		Sync:          true,
	}
}

func validatePaths(src, dst string) error {
	if src == "" || dst == "" {
		return ErrInvalidPath
	}

	if _, err := os.Lstat(src); err != nil {
		if os.IsNotExist(err) {
			return ErrSourceNotFound
		}
		return err
	}
	return nil
}
