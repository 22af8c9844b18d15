package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalkOrderAndCoverage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.txt"), "b")
	writeFile(t, filepath.Join(root, "a.txt"), "a")
	writeFile(t, filepath.Join(root, "sub", "c.txt"), "c")

	records, err := Walk(root, Options{})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	got := make([]string, 0, len(records))
	for _, r := range records {
		got = append(got, r.RelPath)
	}

	want := []string{"a.txt", "b.txt", "sub/c.txt"}
	if len(got) != len(want) {
		t.Fatalf("Walk() yielded %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record[%d] = %q, want %q (lexicographic order)", i, got[i], want[i])
		}
	}
}

func TestWalkEmptyTree(t *testing.T) {
	records, err := Walk(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Walk() yielded %d records, want 0", len(records))
	}
}

func TestWalkIgnoreGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), "x")
	writeFile(t, filepath.Join(root, "junk.tmp"), "x")
	writeFile(t, filepath.Join(root, "node_modules", "dep.js"), "x")

	records, err := Walk(root, Options{
		IgnoreGlobs: []string{"*.tmp", "node_modules/**"},
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	if len(records) != 1 || records[0].RelPath != "keep.txt" {
		t.Errorf("Walk() yielded %+v, want only keep.txt", records)
	}
}

func TestWalkPrunesDestination(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "new.txt"), "x")
	// A prior run already placed files under sorted/; they must not be
	// rediscovered.
	writeFile(t, filepath.Join(root, "sorted", "old.txt"), "x")

	records, err := Walk(root, Options{
		Prune: []string{filepath.Join(root, "sorted")},
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	if len(records) != 1 || records[0].RelPath != "new.txt" {
		t.Errorf("Walk() yielded %+v, want only new.txt", records)
	}
}

func TestWalkSkipsNonRegular(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "real.txt"), "x")
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	records, err := Walk(root, Options{})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(records) != 1 || records[0].RelPath != "real.txt" {
		t.Errorf("Walk() yielded %+v, want only real.txt", records)
	}
}

func TestSnapshotFields(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Report.PDF"), "hello")
	writeFile(t, filepath.Join(root, ".gitignore"), "x")

	records, err := Walk(root, Options{})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Walk() yielded %d records, want 2", len(records))
	}

	// Lexicographic: ".gitignore" sorts before "Report.PDF".
	dot := records[0]
	if dot.Name != ".gitignore" || dot.Ext != "" {
		t.Errorf("dotfile snapshot = name %q ext %q, want name .gitignore with no ext", dot.Name, dot.Ext)
	}

	rep := records[1]
	if rep.Name != "Report" {
		t.Errorf("Name = %q, want Report", rep.Name)
	}
	if rep.Ext != "pdf" {
		t.Errorf("Ext = %q, want pdf (lowercased)", rep.Ext)
	}
	if rep.Size != int64(len("hello")) {
		t.Errorf("Size = %d, want %d", rep.Size, len("hello"))
	}
	if !filepath.IsAbs(rep.Path) {
		t.Errorf("Path = %q, want absolute", rep.Path)
	}
}

func TestWalkSniffsMIME(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "doc.txt"), "plain text content")

	records, err := Walk(root, Options{SniffMIME: true})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Walk() yielded %d records, want 1", len(records))
	}
	if records[0].MIME == "" {
		t.Error("MIME not populated with SniffMIME set")
	}
}

func TestRecord(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "single.txt")
	writeFile(t, path, "x")

	rec, err := Record(path, false)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if rec.RelPath != "single.txt" {
		t.Errorf("RelPath = %q, want single.txt", rec.RelPath)
	}

	if _, err := Record(root, false); err == nil {
		t.Error("Record() accepted a directory")
	}
}
