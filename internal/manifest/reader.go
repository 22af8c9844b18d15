package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Manifest is a fully parsed manifest file.
type Manifest struct {
	Header Header

	// Lines holds every entry record in append order, including both
	// lines of two-phase staged entries.
	Lines []Entry
}

// Read parses the manifest at path. A truncated final line (from a run
// killed mid-append) is tolerated and dropped; garbage anywhere else is
// ErrCorrupt and fatal for the caller.
func Read(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	var m Manifest

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	sawHeader := false
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		lineNo++
		if len(line) == 0 {
			continue
		}

		var r record
		if err := json.Unmarshal(line, &r); err != nil {
			// Only the final line may be a partial write.
			if scanner.Scan() {
				return nil, fmt.Errorf("%w: line %d: %v", ErrCorrupt, lineNo, err)
			}
			break
		}

		switch {
		case r.Header != nil:
			if sawHeader {
				return nil, fmt.Errorf("%w: duplicate header at line %d", ErrCorrupt, lineNo)
			}
			m.Header = *r.Header
			sawHeader = true
		case r.Entry != nil:
			if !sawHeader {
				return nil, fmt.Errorf("%w: entry before header at line %d", ErrCorrupt, lineNo)
			}
			m.Lines = append(m.Lines, *r.Entry)
		default:
			return nil, fmt.Errorf("%w: empty record at line %d", ErrCorrupt, lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if !sawHeader {
		return nil, ErrMissingHeader
	}

	return &m, nil
}

// Entries coalesces state-transition lines by entry ID, in order of first
// appearance. For a staged entry whose final move completed, the terminal
// line wins; for one that never completed, the staged line remains and its
// status tells undo to restore from the staging path.
func (m *Manifest) Entries() []Entry {
	byID := make(map[string]int)
	var out []Entry

	for _, e := range m.Lines {
		idx, seen := byID[e.ID]
		if !seen || e.ID == "" {
			byID[e.ID] = len(out)
			out = append(out, e)
			continue
		}

		// Later lines supersede, but the staging path is sticky: the
		// terminal line may legitimately repeat it, never erase it.
		if e.TrashStage == "" {
			e.TrashStage = out[idx].TrashStage
		}
		out[idx] = e
	}
	return out
}
