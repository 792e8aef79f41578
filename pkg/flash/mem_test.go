package flash

import "testing"

func TestMemErasedByDefault(t *testing.T) {
	m := NewMem(4, 16, 2)
	buf := make([]byte, 16)
	if err := m.Read(0, buf); err != nil {
		t.Fatal(err)
	}
	for _, b := range buf {
		if b != 0xff {
			t.Fatalf("freshly created block not erased: %x", buf)
		}
	}
}

func TestMemWriteRead(t *testing.T) {
	m := NewMem(4, 16, 2)
	want := make([]byte, 16)
	for i := range want {
		want[i] = byte(i)
	}
	if err := m.Write(1, want); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 16)
	if err := m.Read(1, got); err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("read back %v, want %v", got, want)
		}
	}
}

func TestMemEraseRequiresAlignment(t *testing.T) {
	m := NewMem(4, 16, 2)
	if err := m.Erase(1, 2); err == nil {
		t.Fatal("expected alignment error")
	}
	if err := m.Erase(0, 2); err != nil {
		t.Fatal(err)
	}
}

func TestMemBoundsChecked(t *testing.T) {
	m := NewMem(2, 16, 2)
	buf := make([]byte, 16)
	if err := m.Read(5, buf); err == nil {
		t.Fatal("expected bounds error")
	}
}

func TestMemSimulatedFailure(t *testing.T) {
	m := NewMem(2, 16, 2)
	m.FailWrite = func(n uint32) bool { return n == 1 }
	if err := m.Write(0, make([]byte, 16)); err != nil {
		t.Fatal(err)
	}
	if err := m.Write(1, make([]byte, 16)); err == nil {
		t.Fatal("expected simulated failure")
	}
}
