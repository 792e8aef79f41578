// Package vflag provides typed, repeatable command-line flags for
// cmd/sunela-vault, built on top of github.com/spf13/pflag.
package vflag

import "github.com/spf13/pflag"

// Flag is a datatype-agnostic interface for flag objects, so a command can
// hold a slice of heterogeneous flags and add/validate them uniformly.
type Flag interface {
	FlagKey() string
	FlagUsage() string
	FlagValidate() error
	AddTo(flagSet *pflag.FlagSet)
}

// Part carries the fields common to every flag type.
type Part struct {
	Key   string
	short string
	usage string
}

// NewPart returns a new Part.
func NewPart(key, short, usage string) Part {
	return Part{Key: key, short: short, usage: usage}
}

func (p Part) FlagKey() string   { return p.Key }
func (p Part) FlagUsage() string { return p.usage }

// List is a group of flags that can be registered and validated together.
type List []Flag

// AddTo registers every flag in the list.
func (l List) AddTo(flagSet *pflag.FlagSet) {
	for _, f := range l {
		f.AddTo(flagSet)
	}
}

// Validate runs FlagValidate on every flag, stopping at the first error.
func (l List) Validate() error {
	for _, f := range l {
		if err := f.FlagValidate(); err != nil {
			return err
		}
	}
	return nil
}
