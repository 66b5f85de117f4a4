package kvfile

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_Real_Create_Fails_If_Exists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "store.idx")
	fsys := NewReal()

	f1, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f1.Close()

	if _, err := fsys.Create(path); !os.IsExist(err) {
		t.Fatalf("second Create(%q): err=%v, want os.ErrExist", path, err)
	}
}

func Test_Real_Open_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "store.idx")
	fsys := NewReal()

	created, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := []byte("hello, urchin")
	if _, err := created.Write(want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	created.Close()

	opened, err := fsys.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer opened.Close()

	got := make([]byte, len(want))
	if _, err := opened.Read(got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("Read: got %q, want %q", got, want)
	}
}

func Test_Real_Exists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "store.idx")
	fsys := NewReal()

	ok, err := fsys.Exists(path)
	if err != nil || ok {
		t.Fatalf("Exists(%q) before create: ok=%v err=%v, want false,nil", path, ok, err)
	}

	f, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.Close()

	ok, err = fsys.Exists(path)
	if err != nil || !ok {
		t.Fatalf("Exists(%q) after create: ok=%v err=%v, want true,nil", path, ok, err)
	}
}
