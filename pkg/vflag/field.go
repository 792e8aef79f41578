package vflag

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// KV is one name=value pair parsed out of a repeated FieldFlag occurrence.
type KV struct {
	Name  string
	Value string
}

// FieldFlag handles a repeatable "--field name=value" flag, the way
// sunela-vault set accepts one or more field assignments per invocation.
// Unlike the teacher's NStringFlag, which pre-allocates one real pflag flag
// per index up to a known total, FieldFlag relies on pflag's native
// StringArray support and parses each occurrence itself — the total number
// of fields on an entry isn't known ahead of a flag parse.
type FieldFlag struct {
	Part
	raw      []string
	Value    []KV
	Validate func(FieldFlag) error
}

// NewFieldFlag creates a new FieldFlag.
func NewFieldFlag(key, short, usage string, validate func(FieldFlag) error) *FieldFlag {
	return &FieldFlag{Part: NewPart(key, short, usage), Validate: validate}
}

func (f *FieldFlag) AddTo(flagSet *pflag.FlagSet) {
	if f.short == "" {
		flagSet.StringArrayVar(&f.raw, f.Key, f.raw, f.usage)
	} else {
		flagSet.StringArrayVarP(&f.raw, f.Key, f.short, f.raw, f.usage)
	}
}

// FlagValidate parses every occurrence into a KV pair and runs the custom
// validator, if any.
func (f *FieldFlag) FlagValidate() error {
	f.Value = f.Value[:0]
	for _, r := range f.raw {
		name, value, ok := strings.Cut(r, "=")
		if !ok {
			return fmt.Errorf("--%s: %q is not in name=value form", f.Key, r)
		}
		f.Value = append(f.Value, KV{Name: name, Value: value})
	}
	if f.Validate == nil {
		return nil
	}
	return f.Validate(*f)
}
