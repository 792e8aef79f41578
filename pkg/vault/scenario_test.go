package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunela/vault/pkg/flash"
	"github.com/sunela/vault/pkg/secret"
)

// These tests walk through the six concrete end-to-end scenarios the
// database's invariants are specified against, one test per scenario.

func TestScenarioFreshDeviceSetup(t *testing.T) {
	p := flash.NewMem(testPadBlocks+testDataBlocks, testBlockSize, 2)
	_, err := secret.Provision(p, 0, testPadBlocks, testDeviceSecret(), 1234)
	require.NoError(t, err)

	mgr, err := secret.Open(p, 0, testPadBlocks, testDeviceSecret())
	require.NoError(t, err)
	require.NoError(t, mgr.Unlock(1234))

	v, err := Open(p, mgr, testPadBlocks, testDataBlocks)
	require.NoError(t, err)

	assert.Equal(t, uint32(testDataBlocks), v.stats.Total)
	assert.Equal(t, uint32(testDataBlocks), v.stats.Erased)
	assert.Zero(t, v.stats.Data)
}

func TestScenarioWriteRebootRead(t *testing.T) {
	p := flash.NewMem(testPadBlocks+testDataBlocks, testBlockSize, 2)
	_, err := secret.Provision(p, 0, testPadBlocks, testDeviceSecret(), 1234)
	require.NoError(t, err)

	v := openTestVault(t, p, 1234)
	e, err := v.NewEntry("demo")
	require.NoError(t, err)
	require.NoError(t, v.ChangeField(e, FieldUser, []byte("alice")))
	wroteBlock := e.Block

	v2 := openTestVault(t, p, 1234)
	var got *Entry
	v2.Iterate(func(c *Entry) bool {
		if c.Name == "demo" {
			got = c
			return false
		}
		return true
	})
	require.NotNil(t, got)
	f, ok := got.FieldFind(FieldUser)
	require.True(t, ok)
	assert.Equal(t, "alice", string(f.Data))
	assert.Equal(t, wroteBlock, got.Block)
	assert.EqualValues(t, 1, v2.stats.Data)
	assert.Equal(t, int(testDataBlocks)-int(v2.stats.Data)-int(v2.stats.Deleted), int(v2.stats.Erased))
}

func TestScenarioPINChangePreservesData(t *testing.T) {
	p := newProvisionedProvider(t, 1111)
	v := openTestVault(t, p, 1111)

	a, err := v.NewEntry("a")
	require.NoError(t, err)
	_, err = v.NewEntry("b")
	require.NoError(t, err)
	_, err = v.NewEntry("c")
	require.NoError(t, err)
	require.NoError(t, v.ChangeField(a, FieldUser, []byte("alice")))

	mgr, err := secret.Open(p, 0, testPadBlocks, testDeviceSecret())
	require.NoError(t, err)
	require.NoError(t, mgr.Unlock(1111))
	require.NoError(t, mgr.ChangePIN(2222))

	mgr2, err := secret.Open(p, 0, testPadBlocks, testDeviceSecret())
	require.NoError(t, err)
	require.NoError(t, mgr2.Unlock(2222))
	v2, err := Open(p, mgr2, testPadBlocks, testDataBlocks)
	require.NoError(t, err)

	var names []string
	v2.Iterate(func(e *Entry) bool { names = append(names, e.Name); return true })
	assert.ElementsMatch(t, []string{"a", "b", "c"}, names)

	mgr3, err := secret.Open(p, 0, testPadBlocks, testDeviceSecret())
	require.NoError(t, err)
	assert.Error(t, mgr3.Unlock(1111))
}

func TestScenarioPowerLossMidWriteNewerSequenceWins(t *testing.T) {
	p := flash.NewMem(testPadBlocks+testDataBlocks, testBlockSize, 2)
	_, err := secret.Provision(p, 0, testPadBlocks, testDeviceSecret(), 1234)
	require.NoError(t, err)

	v := openTestVault(t, p, 1234)
	e, err := v.NewEntry("demo")
	require.NoError(t, err)
	firstBlock := e.Block

	p.FailWrite = func(n uint32) bool { return n == firstBlock }
	require.NoError(t, v.ChangeField(e, FieldUser, []byte("alice")))
	secondBlock := e.Block
	require.NotEqual(t, firstBlock, secondBlock)
	p.FailWrite = nil

	// Both blocks now read back as data records for "demo": the delete of
	// firstBlock was silently dropped, simulating a crash between the new
	// block's write and the old block's invalidation.
	v2 := openTestVault(t, p, 1234)
	var got *Entry
	v2.Iterate(func(c *Entry) bool {
		if c.Name == "demo" {
			got = c
			return false
		}
		return true
	})
	require.NotNil(t, got)
	assert.Equal(t, secondBlock, got.Block, "the block with the newer sequence must win")
	f, ok := got.FieldFind(FieldUser)
	require.True(t, ok)
	assert.Equal(t, "alice", string(f.Data))
}

func TestScenarioReclamation(t *testing.T) {
	const dataBlocks = 4
	p := flash.NewMem(testPadBlocks+dataBlocks, testBlockSize, 2)
	_, err := secret.Provision(p, 0, testPadBlocks, testDeviceSecret(), 1234)
	require.NoError(t, err)

	mgr, err := secret.Open(p, 0, testPadBlocks, testDeviceSecret())
	require.NoError(t, err)
	require.NoError(t, mgr.Unlock(1234))
	v, err := Open(p, mgr, testPadBlocks, dataBlocks)
	require.NoError(t, err)

	// Rewriting one entry until every block has been used leaves one live
	// block and dataBlocks-1 deleted ones, so reclamation has a deleted
	// erase group to work with.
	last, err := v.NewEntry("a")
	require.NoError(t, err)
	for i := 1; i < dataBlocks; i++ {
		require.NoError(t, v.ChangeField(last, FieldUser, []byte{byte('0' + i)}))
	}
	require.Zero(t, v.stats.Erased)

	// One more mutation must reclaim a deleted block rather than fail.
	require.NoError(t, v.ChangeField(last, FieldUser, []byte("x")))
}

func TestScenarioAuthenticationFailure(t *testing.T) {
	p := flash.NewMem(testPadBlocks+testDataBlocks, testBlockSize, 2)
	_, err := secret.Provision(p, 0, testPadBlocks, testDeviceSecret(), 1234)
	require.NoError(t, err)

	v := openTestVault(t, p, 1234)
	e, err := v.NewEntry("demo")
	require.NoError(t, err)
	corruptBlock := e.Block

	raw := p.RawBlock(corruptBlock)
	raw[len(raw)-1] ^= 0xff
	require.NoError(t, p.Write(corruptBlock, raw))

	v2 := openTestVault(t, p, 1234)
	assert.EqualValues(t, 1, v2.stats.Invalid)
	var found bool
	v2.Iterate(func(c *Entry) bool {
		if c.Name == "demo" {
			found = true
		}
		return true
	})
	assert.False(t, found, "an entry behind a corrupted block must not appear in the entry list")
}
