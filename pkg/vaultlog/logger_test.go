package vaultlog

import "testing"

func TestNilViewIsSilent(t *testing.T) {
	var v View = Nil
	v.Infof("should not panic: %d", 1)
	v.Errorf("should not panic")
	if v.IsDebugEnabled() || v.IsInfoEnabled() {
		t.Fatal("nil view must report logging as disabled")
	}
	p := v.NewProgress("test", 10)
	p.Increment(5)
	p.Finish(true)
}

func TestCLIDisableTTYUsesNilProgress(t *testing.T) {
	c := &CLI{DisableTTY: true}
	p := c.NewProgress("test", 0)
	if _, ok := p.(*nilProgress); !ok {
		t.Fatalf("NewProgress with DisableTTY = %T, want *nilProgress", p)
	}
	p.Increment(1)
	p.Finish(false)
}
