package executor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sfo-dev/sfo/internal/core/types"
	"github.com/sfo-dev/sfo/internal/manifest"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func entry(src, dst string, op types.Operation, pol types.CollisionPolicy) types.PlanEntry {
	base := filepath.Base(src)
	return types.PlanEntry{
		Record: types.FileRecord{
			Path:    src,
			RelPath: base,
			Name:    base,
			ModTime: time.Now(),
		},
		RuleName:    "test",
		Destination: dst,
		Operation:   op,
		Collision:   pol,
	}
}

// runPlan executes entries against a fresh manifest and returns the result
// plus the parsed manifest.
func runPlan(t *testing.T, opts Options, entries ...types.PlanEntry) (Result, *manifest.Manifest) {
	t.Helper()
	manifestPath := filepath.Join(t.TempDir(), "m.jsonl")

	w, err := manifest.Create(manifestPath, manifest.Header{RunID: "test-run", Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("manifest.Create() error = %v", err)
	}

	opts.RunID = "test-run"
	res, err := New(w, opts).Execute(&types.Plan{Entries: entries})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	w.Close()

	m, err := manifest.Read(manifestPath)
	if err != nil {
		t.Fatalf("manifest.Read() error = %v", err)
	}
	return res, m
}

func TestExecuteMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.txt")
	dst := filepath.Join(dir, "dest", "docs", "a.txt")
	write(t, src, "hello")

	res, m := runPlan(t, Options{}, entry(src, dst, types.OperationMove, types.CollisionRename))

	if res.Succeeded != 1 || res.Failed != 0 {
		t.Errorf("result = %+v, want 1 success", res)
	}
	if got := readBack(t, dst); got != "hello" {
		t.Errorf("destination content = %q", got)
	}

	entries := m.Entries()
	if len(entries) != 1 {
		t.Fatalf("manifest entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Status != manifest.StatusSucceeded || e.Source != src || e.Destination != dst {
		t.Errorf("manifest entry = %+v", e)
	}
}

func TestExecuteCollisionRename(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.txt")
	dst := filepath.Join(dir, "sorted", "a.txt")
	write(t, src, "incoming")
	write(t, dst, "resident") // appeared after planning

	res, m := runPlan(t, Options{}, entry(src, dst, types.OperationMove, types.CollisionRename))

	if res.Succeeded != 1 {
		t.Fatalf("result = %+v, want 1 success", res)
	}

	renamed := filepath.Join(dir, "sorted", "a_1.txt")
	if got := readBack(t, renamed); got != "incoming" {
		t.Errorf("renamed destination content = %q", got)
	}
	if got := readBack(t, dst); got != "resident" {
		t.Errorf("original destination content = %q, want untouched", got)
	}

	e := m.Entries()[0]
	if e.Destination != renamed {
		t.Errorf("manifest destination = %q, want %q (the disambiguated path)", e.Destination, renamed)
	}
}

func TestExecuteCollisionSkip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.txt")
	dst := filepath.Join(dir, "sorted", "a.txt")
	write(t, src, "incoming")
	write(t, dst, "resident")

	res, m := runPlan(t, Options{}, entry(src, dst, types.OperationMove, types.CollisionSkip))

	if res.Skipped != 1 || res.Succeeded != 0 {
		t.Errorf("result = %+v, want 1 skip", res)
	}
	if got := readBack(t, src); got != "incoming" {
		t.Error("source moved despite skip policy")
	}
	if got := readBack(t, dst); got != "resident" {
		t.Error("destination changed despite skip policy")
	}
	if e := m.Entries()[0]; e.Status != manifest.StatusSkipped {
		t.Errorf("manifest status = %q, want skipped", e.Status)
	}
}

func TestExecuteCollisionOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.txt")
	dst := filepath.Join(dir, "sorted", "a.txt")
	write(t, src, "incoming")
	write(t, dst, "resident")

	res, m := runPlan(t, Options{}, entry(src, dst, types.OperationMove, types.CollisionOverwrite))

	if res.Succeeded != 1 {
		t.Fatalf("result = %+v, want 1 success", res)
	}
	// Exactly one file occupies the destination: the one that moved last.
	if got := readBack(t, dst); got != "incoming" {
		t.Errorf("destination content = %q, want %q", got, "incoming")
	}
	if e := m.Entries()[0]; e.Status != manifest.StatusSucceeded {
		t.Errorf("manifest status = %q", e.Status)
	}
}

func TestExecuteFailureContinues(t *testing.T) {
	dir := t.TempDir()
	srcOK1 := filepath.Join(dir, "src", "ok1.txt")
	srcBad := filepath.Join(dir, "src", "locked.db")
	srcOK2 := filepath.Join(dir, "src", "ok2.txt")
	write(t, srcOK1, "1")
	write(t, srcBad, "x")
	write(t, srcOK2, "2")

	blocker := filepath.Join(dir, "blocker")
	write(t, blocker, "")

	res, m := runPlan(t, Options{},
		entry(srcOK1, filepath.Join(dir, "dest", "ok1.txt"), types.OperationMove, types.CollisionRename),
		entry(srcBad, filepath.Join(blocker, "locked.db"), types.OperationMove, types.CollisionRename),
		entry(srcOK2, filepath.Join(dir, "dest", "ok2.txt"), types.OperationMove, types.CollisionRename),
	)

	if res.Succeeded != 2 || res.Failed != 1 {
		t.Fatalf("result = %+v, want 2 succeeded 1 failed", res)
	}

	entries := m.Entries()
	if len(entries) != 3 {
		t.Fatalf("manifest entries = %d, want 3 (failure recorded too)", len(entries))
	}
	if entries[1].Status != manifest.StatusFailed || entries[1].Error == "" {
		t.Errorf("failed entry = %+v, want failed status with error detail", entries[1])
	}
	if _, err := os.Stat(srcBad); err != nil {
		t.Error("failed file no longer at its source")
	}
}

func TestExecuteNoOpRecordedAsSkipped(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dest", "a.txt")
	write(t, src, "x")

	e := entry(src, src, types.OperationNone, types.CollisionRename)
	res, m := runPlan(t, Options{}, e)

	if res.Skipped != 1 {
		t.Errorf("result = %+v, want 1 skipped", res)
	}
	if got := m.Entries()[0]; got.Status != manifest.StatusSkipped {
		t.Errorf("manifest status = %q, want skipped", got.Status)
	}
}

func TestExecuteTrashStaging(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.txt")
	dst := filepath.Join(dir, "dest", "a.txt")
	trash := filepath.Join(dir, "trash")
	write(t, src, "hello")

	res, m := runPlan(t, Options{TrashDir: trash},
		entry(src, dst, types.OperationMove, types.CollisionRename))

	if res.Succeeded != 1 {
		t.Fatalf("result = %+v", res)
	}
	if got := readBack(t, dst); got != "hello" {
		t.Errorf("destination content = %q", got)
	}

	// Two journal lines, one coalesced entry carrying the staging path.
	if len(m.Lines) != 2 {
		t.Fatalf("manifest lines = %d, want 2 (staged + succeeded)", len(m.Lines))
	}
	if m.Lines[0].Status != manifest.StatusStaged || m.Lines[0].TrashStage == "" {
		t.Errorf("first line = %+v, want staged with trash path", m.Lines[0])
	}
	e := m.Entries()[0]
	if e.Status != manifest.StatusSucceeded || e.TrashStage == "" {
		t.Errorf("coalesced entry = %+v", e)
	}
	if _, err := os.Stat(e.TrashStage); !os.IsNotExist(err) {
		t.Error("file still in staging after successful final move")
	}
}

func TestExecuteTrashStagingSkipUnstages(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.txt")
	dst := filepath.Join(dir, "sorted", "a.txt")
	trash := filepath.Join(dir, "trash")
	write(t, src, "incoming")
	write(t, dst, "resident")

	res, _ := runPlan(t, Options{TrashDir: trash},
		entry(src, dst, types.OperationMove, types.CollisionSkip))

	if res.Skipped != 1 {
		t.Fatalf("result = %+v, want 1 skipped", res)
	}
	if got := readBack(t, src); got != "incoming" {
		t.Error("skip policy did not return the file to its source")
	}
}

func TestExecuteTrashStagingFailureLeavesFileInTrash(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.txt")
	trash := filepath.Join(dir, "trash")
	write(t, src, "hello")

	blocker := filepath.Join(dir, "blocker")
	write(t, blocker, "")

	res, m := runPlan(t, Options{TrashDir: trash},
		entry(src, filepath.Join(blocker, "a.txt"), types.OperationMove, types.CollisionRename))

	if res.Failed != 1 || res.Staged != 1 {
		t.Fatalf("result = %+v, want 1 failed stranded in staging", res)
	}

	e := m.Entries()[0]
	if e.Status != manifest.StatusFailed || e.TrashStage == "" {
		t.Fatalf("entry = %+v, want failed with trash stage recorded", e)
	}
	if got := readBack(t, e.TrashStage); got != "hello" {
		t.Errorf("staged content = %q, want recoverable %q", got, "hello")
	}
}

func TestExecuteCopyKeepsSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.txt")
	dst := filepath.Join(dir, "dest", "a.txt")
	write(t, src, "hello")

	res, m := runPlan(t, Options{}, entry(src, dst, types.OperationCopy, types.CollisionRename))

	if res.Succeeded != 1 {
		t.Fatalf("result = %+v", res)
	}
	if got := readBack(t, src); got != "hello" {
		t.Error("copy removed the source")
	}
	if got := readBack(t, dst); got != "hello" {
		t.Errorf("destination content = %q", got)
	}
	if e := m.Entries()[0]; e.Operation != types.OperationCopy {
		t.Errorf("manifest operation = %q, want copy", e.Operation)
	}
}
