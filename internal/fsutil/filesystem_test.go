package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/laser/internal/testutil"
	"github.com/banshee-data/laser/las"
)

func TestOSFileSystem_ReadFile(t *testing.T) {
	fsys := OSFileSystem{}

	data, err := fsys.ReadFile("filesystem.go")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty file content")
	}
}

func TestOSFileSystem_CreateOpenReadAt(t *testing.T) {
	fsys := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "data.bin")

	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	w, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("0123456789")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := fsys.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 4)
	if n, err := f.ReadAt(buf, 3); err != nil || n != 4 || string(buf) != "3456" {
		t.Errorf("ReadAt(3) = %d, %v, %q", n, err, buf)
	}
	if n, err := f.ReadAt(buf, 8); !errors.Is(err, io.EOF) || n != 2 {
		t.Errorf("ReadAt(8) = %d, %v; want 2, EOF", n, err)
	}

	if err := fsys.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := fsys.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist after Remove, got %v", err)
	}
}

func TestOSFileSystem_OpenNonExistent(t *testing.T) {
	f, err := OSFileSystem{}.Open(filepath.Join(t.TempDir(), "missing.las"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	if f != nil {
		t.Error("expected nil File on error")
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("hello, world")
	if err := mfs.WriteFile("/test.txt", testData, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/test.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}

	if _, err := mfs.ReadFile("/missing.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/preview.png")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("first ")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := w.Write([]byte("second")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if data, _ := mfs.ReadFile("/out/preview.png"); len(data) != 0 {
		t.Errorf("expected empty file before Close, got %q", data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := mfs.ReadFile("/out/preview.png")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "first second" {
		t.Errorf("expected 'first second', got %q", data)
	}
}

func TestMemoryFileSystem_OpenReadAt(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if err := mfs.WriteFile("/a.bin", []byte("abcdefgh"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := mfs.Open("/a.bin")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	tests := []struct {
		name    string
		off     int64
		size    int
		want    string
		wantErr error
	}{
		{"middle", 2, 3, "cde", nil},
		{"to end", 5, 3, "fgh", nil},
		{"short", 6, 4, "gh", io.EOF},
		{"at end", 8, 1, "", io.EOF},
		{"past end", 20, 1, "", io.EOF},
		{"negative", -1, 1, "", fs.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.size)
			n, err := f.ReadAt(buf, tt.off)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if got := string(buf[:n]); got != tt.want {
				t.Errorf("read %q, want %q", got, tt.want)
			}
		})
	}

	// ReadAt does not move the sequential cursor.
	all, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(all) != "abcdefgh" {
		t.Errorf("sequential read = %q", all)
	}
}

func TestMemoryFileSystem_OpenNonExistent(t *testing.T) {
	_, err := NewMemoryFileSystem().Open("/nope.las")
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) || pathErr.Op != "open" || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected open PathError with ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_OpenSnapshot(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/s.bin", []byte("old"), 0644)

	f, err := mfs.Open("/s.bin")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = mfs.WriteFile("/s.bin", []byte("new"), 0644)

	buf := make([]byte, 3)
	if _, err := f.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if string(buf) != "old" {
		t.Errorf("open file saw %q after rewrite, want old contents", buf)
	}
}

func TestMemoryFileSystem_StatAndMkdirAll(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/data/tile.las", make([]byte, 300), 0640)
	if err := mfs.MkdirAll("/out/previews/2026", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	info, err := mfs.Stat("/data/tile.las")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "tile.las" || info.Size() != 300 || info.Mode() != 0640 || info.IsDir() {
		t.Errorf("unexpected file info: %s %d %v %v", info.Name(), info.Size(), info.Mode(), info.IsDir())
	}
	if !info.ModTime().IsZero() || info.Sys() != nil {
		t.Error("expected zero ModTime and nil Sys")
	}

	for _, dir := range []string{"/out", "/out/previews", "/out/previews/2026"} {
		info, err := mfs.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("Stat(%s) = %v, %v; want directory", dir, info, err)
		}
	}

	if _, err := mfs.Stat("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_Remove(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/a", []byte("x"), 0644)
	_ = mfs.MkdirAll("/d", 0755)

	if err := mfs.Remove("/a"); err != nil {
		t.Errorf("Remove file failed: %v", err)
	}
	if err := mfs.Remove("/d"); err != nil {
		t.Errorf("Remove dir failed: %v", err)
	}
	if err := mfs.Remove("/a"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist on second Remove, got %v", err)
	}
}

func TestMemoryFileSystem_PathCleaning(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/a/b/../c.txt", []byte("clean"), 0644)

	data, err := mfs.ReadFile("/a/c.txt")
	if err != nil || string(data) != "clean" {
		t.Errorf("ReadFile(/a/c.txt) = %q, %v", data, err)
	}
}

func TestMemoryFileSystem_DataIsolation(t *testing.T) {
	mfs := NewMemoryFileSystem()
	src := []byte("orig")
	_ = mfs.WriteFile("/i", src, 0644)
	src[0] = 'X'

	data, _ := mfs.ReadFile("/i")
	if string(data) != "orig" {
		t.Errorf("WriteFile kept a reference to the caller's slice: %q", data)
	}
	data[0] = 'Y'
	again, _ := mfs.ReadFile("/i")
	if string(again) != "orig" {
		t.Errorf("ReadFile returned shared storage: %q", again)
	}
}

// Both implementations feed the streaming decoder through io.ReaderAt.
func TestFileSystems_StreamLAS(t *testing.T) {
	image := testutil.LASFile{
		PointFormat: 1,
		Points:      make([]testutil.LASPoint, 150),
	}.Bytes()

	dir := t.TempDir()
	osPath := filepath.Join(dir, "tile.las")
	if err := os.WriteFile(osPath, image, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	mfs := NewMemoryFileSystem()
	testutil.AssertNoError(t, mfs.WriteFile("/tile.las", image, 0644))

	systems := []struct {
		name string
		fsys FileSystem
		path string
	}{
		{"os", OSFileSystem{}, osPath},
		{"memory", mfs, "/tile.las"},
	}
	for _, s := range systems {
		t.Run(s.name, func(t *testing.T) {
			f, err := s.fsys.Open(s.path)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer f.Close()

			info, err := las.InfoFromReader(f)
			testutil.AssertNoError(t, err)
			if info.PointCount != 150 {
				t.Errorf("PointCount = %d, want 150", info.PointCount)
			}
			pts := make([]las.Point, info.PointCount)
			testutil.AssertNoError(t, las.ReadPointsFromReader(pts, f, 0, las.AllPoints, las.WithScratchSize(500)))
			testutil.AssertError(t, las.ReadPointsFromReader(pts, f, 100, 51))
		})
	}
}
