package flash

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestFileCreateIsErased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.bin")
	f, err := CreateFile(path, 4, 16, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	buf := make([]byte, 16)
	if err := f.Read(2, buf); err != nil {
		t.Fatal(err)
	}
	want := bytes.Repeat([]byte{0xff}, 16)
	if !bytes.Equal(buf, want) {
		t.Fatalf("freshly created block not erased: %x", buf)
	}
}

func TestFileWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.bin")
	f, err := CreateFile(path, 4, 16, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	want := bytes.Repeat([]byte{0x42}, 16)
	if err := f.Write(3, want); err != nil {
		t.Fatal(err)
	}

	got := make([]byte, 16)
	if err := f.Read(3, got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("read back %x, want %x", got, want)
	}
}

func TestFileReopenPreservesContentAndBlockCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.bin")
	f, err := CreateFile(path, 4, 16, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := bytes.Repeat([]byte{0x7e}, 16)
	if err := f.Write(1, want); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenFile(path, 16, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if reopened.BlockCount() != 4 {
		t.Fatalf("BlockCount() = %d, want 4", reopened.BlockCount())
	}

	got := make([]byte, 16)
	if err := reopened.Read(1, got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("read back %x after reopen, want %x", got, want)
	}
}

func TestFileEraseRequiresAlignment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.bin")
	f, err := CreateFile(path, 4, 16, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := f.Erase(1, 2); err == nil {
		t.Fatal("expected alignment error for unaligned index")
	}
	if err := f.Erase(0, 1); err == nil {
		t.Fatal("expected alignment error for unaligned length")
	}
}

func TestFileBoundsChecked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.bin")
	f, err := CreateFile(path, 2, 16, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	buf := make([]byte, 16)
	if err := f.Read(5, buf); err == nil {
		t.Fatal("expected bounds error")
	}
	if err := f.Erase(0, 4); err == nil {
		t.Fatal("expected bounds error on oversized erase")
	}
}
