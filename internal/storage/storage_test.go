package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGenerateStoreName(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 30, 5, 0, time.Local)
	tests := []struct {
		name     string
		original string
		rule     string
		expected string
	}{
		{"default rule", "Notes.PDF", "{group_id}_{timestamp}{suffix}", "7_20250301083005.pdf"},
		{"no extension", "README", "{group_id}_{timestamp}{suffix}", "7_20250301083005"},
		{"custom rule", "a.docx", "g{group_id}-{timestamp}{suffix}", "g7-20250301083005.docx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateStoreName(7, tt.original, tt.rule, now); got != tt.expected {
				t.Errorf("GenerateStoreName() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestGenerateStoreName_SameSecondCollides(t *testing.T) {
	now := time.Now()
	a := GenerateStoreName(1, "a.pdf", "{group_id}_{timestamp}{suffix}", now)
	b := GenerateStoreName(1, "b.pdf", "{group_id}_{timestamp}{suffix}", now)
	if a != b {
		t.Errorf("expected identical names, got %q and %q", a, b)
	}
}

func TestSave_CreatesGroupDir(t *testing.T) {
	base := t.TempDir()
	content := []byte("hello study group")

	path, err := Save(bytes.NewReader(content), base, 3, "3_x.txt")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != filepath.Join(base, "3", "3_x.txt") {
		t.Errorf("path = %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content mismatch: %q", got)
	}
	if Path(base, 3, "3_x.txt") != path {
		t.Error("Path() should match the saved location")
	}
}

func TestDelete(t *testing.T) {
	base := t.TempDir()
	path, err := Save(strings.NewReader("x"), base, 1, "f.txt")
	if err != nil {
		t.Fatal(err)
	}

	if !Delete(path) {
		t.Error("first Delete() should report true")
	}
	if Exists(path) {
		t.Error("file should be gone")
	}
	if Delete(path) {
		t.Error("Delete() of a missing file should report false")
	}
}

func TestSizeKB(t *testing.T) {
	r := bytes.NewReader(make([]byte, 3*1024+100))
	kb, err := SizeKB(r)
	if err != nil {
		t.Fatal(err)
	}
	if kb != 3 {
		t.Errorf("SizeKB() = %d, expected 3", kb)
	}
	if pos, _ := r.Seek(0, 1); pos != 0 {
		t.Errorf("reader not rewound, at %d", pos)
	}

	path, err := Save(bytes.NewReader(make([]byte, 2048)), t.TempDir(), 1, "two.bin")
	if err != nil {
		t.Fatal(err)
	}
	if kb, err := SizeKBOfPath(path); err != nil || kb != 2 {
		t.Errorf("SizeKBOfPath() = %d, %v", kb, err)
	}
}

func TestContentType(t *testing.T) {
	dir := t.TempDir()
	unknown, err := Save(strings.NewReader("%PDF-1.4\n%âãÏÓ\n"), dir, 1, "blob.dat")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		original string
		path     string
		expected string
	}{
		{"report.PDF", "", "application/pdf"},
		{"slides.pptx", "", "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
		{"photo.jpeg", "", "image/jpeg"},
		{"notes.txt", "", "text/plain"},
		{"blob.dat", unknown, "application/pdf"},
		{"missing.dat", filepath.Join(dir, "nope"), "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := ContentType(tt.original, tt.path); got != tt.expected {
			t.Errorf("ContentType(%q) = %q, expected %q", tt.original, got, tt.expected)
		}
	}
}

func TestInline(t *testing.T) {
	for name, expected := range map[string]bool{
		"a.pdf": true, "a.PNG": true, "a.gif": true, "a.jpeg": true,
		"a.docx": false, "a.txt": false, "a": false,
	} {
		if got := Inline(name); got != expected {
			t.Errorf("Inline(%q) = %v, expected %v", name, got, expected)
		}
	}
}
