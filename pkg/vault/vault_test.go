package vault

import (
	"errors"
	"testing"

	"github.com/sunela/vault/pkg/flash"
	"github.com/sunela/vault/pkg/secret"
	"github.com/sunela/vault/pkg/vaulterr"
)

const (
	testPadBlocks  = 4
	testDataBlocks = 20
	testBlockSize  = 256
)

func testDeviceSecret() [secret.Size]byte {
	var s [secret.Size]byte
	for i := range s {
		s[i] = byte(7 * i)
	}
	return s
}

func newProvisionedProvider(t *testing.T, pin uint32) flash.Provider {
	t.Helper()
	p := flash.NewMem(testPadBlocks+testDataBlocks, testBlockSize, 2)
	if _, err := secret.Provision(p, 0, testPadBlocks, testDeviceSecret(), pin); err != nil {
		t.Fatal(err)
	}
	return p
}

func openTestVault(t *testing.T, p flash.Provider, pin uint32) *Vault {
	t.Helper()
	mgr, err := secret.Open(p, 0, testPadBlocks, testDeviceSecret())
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.Unlock(pin); err != nil {
		t.Fatal(err)
	}
	v, err := Open(p, mgr, testPadBlocks, testDataBlocks)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestOpenFreshDeviceIsAllErased(t *testing.T) {
	p := newProvisionedProvider(t, 1234)
	v := openTestVault(t, p, 1234)

	if v.stats.Total != testDataBlocks {
		t.Fatalf("Total = %d, want %d", v.stats.Total, testDataBlocks)
	}
	if v.stats.Erased != testDataBlocks {
		t.Fatalf("Erased = %d, want %d", v.stats.Erased, testDataBlocks)
	}
	if len(v.entries) != 0 {
		t.Fatalf("expected no entries on a fresh device, got %d", len(v.entries))
	}
}

func TestNewEntryChangeFieldSurvivesReopen(t *testing.T) {
	p := newProvisionedProvider(t, 1234)
	v := openTestVault(t, p, 1234)

	e, err := v.NewEntry("demo")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ChangeField(e, FieldUser, []byte("alice")); err != nil {
		t.Fatal(err)
	}

	v2 := openTestVault(t, p, 1234)
	var got *Entry
	v2.Iterate(func(e *Entry) bool {
		if e.Name == "demo" {
			got = e
			return false
		}
		return true
	})
	if got == nil {
		t.Fatal("entry did not survive reopen")
	}
	f, ok := got.FieldFind(FieldUser)
	if !ok || string(f.Data) != "alice" {
		t.Fatalf("user field = %+v, ok=%v, want alice", f, ok)
	}
	if v2.stats.Data != 1 {
		t.Fatalf("Data = %d, want 1", v2.stats.Data)
	}
}

func TestNewEntryRejectsDuplicateName(t *testing.T) {
	p := newProvisionedProvider(t, 1234)
	v := openTestVault(t, p, 1234)

	if _, err := v.NewEntry("demo"); err != nil {
		t.Fatal(err)
	}
	if _, err := v.NewEntry("demo"); !errors.Is(err, vaulterr.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestRenameUpdatesFollowersPrevField(t *testing.T) {
	p := newProvisionedProvider(t, 1234)
	v := openTestVault(t, p, 1234)

	a, err := v.NewEntry("a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := v.NewEntry("b")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ChangeField(b, FieldPrev, []byte("a")); err != nil {
		t.Fatal(err)
	}

	if err := v.Rename(a, "a2"); err != nil {
		t.Fatal(err)
	}
	p2, ok := b.prevName()
	if !ok || p2 != "a2" {
		t.Fatalf("b.prev = %q, ok=%v, want a2", p2, ok)
	}

	v2 := openTestVault(t, p, 1234)
	var reopenedB *Entry
	v2.Iterate(func(e *Entry) bool {
		if e.Name == "b" {
			reopenedB = e
			return false
		}
		return true
	})
	if reopenedB == nil {
		t.Fatal("entry b missing after reopen")
	}
	if pv, ok := reopenedB.prevName(); !ok || pv != "a2" {
		t.Fatalf("reopened b.prev = %q, ok=%v, want a2", pv, ok)
	}
}

func TestDeferUpdateCoalescesWrites(t *testing.T) {
	p := newProvisionedProvider(t, 1234)
	v := openTestVault(t, p, 1234)

	e, err := v.NewEntry("demo")
	if err != nil {
		t.Fatal(err)
	}
	genBefore := v.Generation()

	if err := v.DeferUpdate(e, true); err != nil {
		t.Fatal(err)
	}
	if err := v.ChangeField(e, FieldUser, []byte("alice")); err != nil {
		t.Fatal(err)
	}
	if err := v.ChangeField(e, FieldEmail, []byte("alice@example.com")); err != nil {
		t.Fatal(err)
	}
	if v.Generation() != genBefore {
		t.Fatal("deferred changes must not write to flash immediately")
	}

	if err := v.DeferUpdate(e, false); err != nil {
		t.Fatal(err)
	}
	if v.Generation() != genBefore+1 {
		t.Fatalf("Generation = %d, want %d after one coalesced write", v.Generation(), genBefore+1)
	}
	if v.stats.Data != 1 {
		t.Fatalf("Data = %d, want 1", v.stats.Data)
	}
}

func TestDeleteEntryRemovesItAndFreesBlock(t *testing.T) {
	p := newProvisionedProvider(t, 1234)
	v := openTestVault(t, p, 1234)

	e, err := v.NewEntry("demo")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.DeleteEntry(e); err != nil {
		t.Fatal(err)
	}

	found := false
	v.Iterate(func(e *Entry) bool {
		if e.Name == "demo" {
			found = true
		}
		return true
	})
	if found {
		t.Fatal("deleted entry still present")
	}

	v2 := openTestVault(t, p, 1234)
	if v2.stats.Data != 0 {
		t.Fatalf("Data = %d, want 0 after delete", v2.stats.Data)
	}
	if v2.stats.Deleted == 0 {
		t.Fatal("expected at least one deleted block after delete")
	}
}

func TestMoveAfterReordersEntries(t *testing.T) {
	p := newProvisionedProvider(t, 1234)
	v := openTestVault(t, p, 1234)

	a, _ := v.NewEntry("a")
	b, _ := v.NewEntry("b")
	c, _ := v.NewEntry("c")

	if err := v.MoveAfter(c, a); err != nil {
		t.Fatal(err)
	}

	var order []string
	v.Iterate(func(e *Entry) bool { order = append(order, e.Name); return true })

	idx := func(name string) int {
		for i, n := range order {
			if n == name {
				return i
			}
		}
		return -1
	}
	if idx("c") != idx("a")+1 {
		t.Fatalf("order = %v, want c immediately after a", order)
	}
	_ = b
}

func TestUpdateSettingsRoundTrip(t *testing.T) {
	p := newProvisionedProvider(t, 1234)
	v := openTestVault(t, p, 1234)

	if err := v.UpdateSettings(Settings{Crosshair: true, StrictRMT: false}); err != nil {
		t.Fatal(err)
	}

	v2 := openTestVault(t, p, 1234)
	got := v2.Settings()
	if !got.Crosshair || got.StrictRMT {
		t.Fatalf("Settings = %+v, want {Crosshair:true StrictRMT:false}", got)
	}
	if v2.stats.Special != 1 {
		t.Fatalf("Special = %d, want 1", v2.stats.Special)
	}
}

func TestMkdirChdirPwd(t *testing.T) {
	p := newProvisionedProvider(t, 1234)
	v := openTestVault(t, p, 1234)

	dir, err := v.NewEntry("work")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Mkdir(dir); err != nil {
		t.Fatal(err)
	}
	if !dir.IsDir() {
		t.Fatal("expected work to be a directory")
	}

	if err := v.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	name, ok := v.Pwd()
	if !ok || name != "work" {
		t.Fatalf("Pwd() = %q, %v, want work, true", name, ok)
	}
	if v.DirParent() != dir {
		t.Fatal("DirParent() should return the entry passed to Chdir")
	}

	if err := v.Mkentry(dir); !errors.Is(err, vaulterr.ErrInvalidInput) {
		t.Fatalf("expected Mkentry on the current directory to be rejected, got %v", err)
	}

	if err := v.Chdir(nil); err != nil {
		t.Fatal(err)
	}
	if err := v.Mkentry(dir); err != nil {
		t.Fatal(err)
	}
	if dir.IsDir() {
		t.Fatal("expected Mkentry to clear the dir field")
	}
}

func TestWriteEntryRefusesPastSequenceLimit(t *testing.T) {
	p := newProvisionedProvider(t, 1234)
	v := openTestVault(t, p, 1234)

	e, err := v.NewEntry("demo")
	if err != nil {
		t.Fatal(err)
	}
	e.Sequence = 1<<15 - 1

	if err := v.writeEntry(e); !errors.Is(err, vaulterr.ErrSequenceExhausted) {
		t.Fatalf("err = %v, want ErrSequenceExhausted", err)
	}
}

func TestOpenScansAllBlocksAcrossMultipleEraseGroups(t *testing.T) {
	// testDataBlocks (20) spans multiple 2-block erase groups, so Open's
	// shard-per-erase-group scan fan-out must still account for every
	// block and merge results in the original block order.
	p := newProvisionedProvider(t, 1234)
	v := openTestVault(t, p, 1234)

	names := []string{"a", "b", "c", "d", "e"}
	for _, n := range names {
		if _, err := v.NewEntry(n); err != nil {
			t.Fatal(err)
		}
	}

	v2 := openTestVault(t, p, 1234)
	if v2.stats.Total != testDataBlocks {
		t.Fatalf("Total = %d, want %d", v2.stats.Total, testDataBlocks)
	}
	if v2.stats.Data != uint32(len(names)) {
		t.Fatalf("Data = %d, want %d", v2.stats.Data, len(names))
	}
	var got []string
	v2.Iterate(func(e *Entry) bool { got = append(got, e.Name); return true })
	if len(got) != len(names) {
		t.Fatalf("got %d entries, want %d", len(got), len(names))
	}
}

func TestAllocBlockFailsWhenExhausted(t *testing.T) {
	p := newProvisionedProvider(t, 1234)
	v := openTestVault(t, p, 1234)

	// Drain every pool directly to simulate a full database without
	// writing testDataBlocks entries one at a time.
	for {
		if _, ok := v.erased.PopOne(); !ok {
			break
		}
	}
	v.deleted.FreeAll()
	v.empty.FreeAll()

	if _, err := v.allocBlock(); !errors.Is(err, vaulterr.ErrOutOfSpace) {
		t.Fatalf("err = %v, want ErrOutOfSpace", err)
	}
}
