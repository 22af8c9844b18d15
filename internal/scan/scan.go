// Package scan walks a source tree and produces immutable file snapshots
// for planning. The walk is lexicographic so discovery order, and with it
// plan and manifest order, is reproducible across runs.
package scan

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/sfo-dev/sfo/internal/core/types"
)

// Options controls which files a walk yields.
type Options struct {
	// IgnoreGlobs are matched against the source-relative path; matching
	// files are dropped from discovery entirely.
	IgnoreGlobs []string

	// Prune lists absolute directories the walk must not descend into,
	// typically the destination root and the trash directory, so a run
	// never reorganizes files a prior run already placed.
	Prune []string

	// SniffMIME enables content-type detection on each record. Only set
	// when the rule set contains mime rules; sniffing reads file headers.
	SniffMIME bool
}

// Walk discovers all regular files under root in lexicographic order and
// returns one snapshot per file. An empty tree yields an empty slice.
func Walk(root string, opts Options) ([]types.FileRecord, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	globs := make([]glob.Glob, 0, len(opts.IgnoreGlobs))
	for _, g := range opts.IgnoreGlobs {
		compiled, err := glob.Compile(g)
		if err != nil {
			// Ignore globs are validated at config load; a failure here
			// means the caller bypassed config parsing.
			return nil, err
		}
		globs = append(globs, compiled)
	}

	pruned := make(map[string]struct{}, len(opts.Prune))
	for _, p := range opts.Prune {
		if abs, err := filepath.Abs(p); err == nil {
			pruned[abs] = struct{}{}
		}
	}

	var records []types.FileRecord
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("walk error, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if _, skip := pruned[path]; skip && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		for _, g := range globs {
			if g.Match(rel) {
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			slog.Warn("stat failed, skipping", "path", path, "error", err)
			return nil
		}

		records = append(records, snapshot(path, rel, info))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if opts.SniffMIME {
		if err := sniffAll(records); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Record snapshots a single file outside of a tree walk, for rule
// inspection. The relative path is the base name. sniff enables
// content-type detection.
func Record(path string, sniff bool) (types.FileRecord, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return types.FileRecord{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return types.FileRecord{}, err
	}
	if info.IsDir() {
		return types.FileRecord{}, fmt.Errorf("%s is a directory", path)
	}

	rec := snapshot(abs, filepath.Base(abs), info)
	if sniff {
		if mt, err := mimetype.DetectFile(abs); err == nil {
			rec.MIME = mt.String()
		}
	}
	return rec, nil
}

// snapshot captures everything the planner will ever need from this file,
// so nothing re-reads the filesystem mid-run.
func snapshot(path, rel string, info os.FileInfo) types.FileRecord {
	base := filepath.Base(path)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		// Dotfiles like ".gitignore" have no stem per filepath.Ext; treat
		// the whole base name as the name with no extension.
		name = base
		ext = ""
	}

	return types.FileRecord{
		Path:    path,
		RelPath: rel,
		Name:    name,
		Ext:     strings.ToLower(ext),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

// sniffAll fills in content types concurrently. Records keep their slice
// positions, so discovery order is unaffected.
func sniffAll(records []types.FileRecord) error {
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())

	for i := range records {
		g.Go(func() error {
			mt, err := mimetype.DetectFile(records[i].Path)
			if err != nil {
				slog.Debug("mime detection failed", "path", records[i].Path, "error", err)
				return nil
			}
			records[i].MIME = mt.String()
			return nil
		})
	}
	return g.Wait()
}
