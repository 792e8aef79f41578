package vflag

import "github.com/spf13/pflag"

// StringFlag handles a single string-valued flag.
type StringFlag struct {
	Part
	Value    string
	Validate func(StringFlag) error
}

// NewStringFlag creates a new StringFlag.
func NewStringFlag(key, short, usage string, validate func(StringFlag) error) *StringFlag {
	return &StringFlag{Part: NewPart(key, short, usage), Validate: validate}
}

func (f *StringFlag) AddTo(flagSet *pflag.FlagSet) {
	if f.short == "" {
		flagSet.StringVar(&f.Value, f.Key, f.Value, f.usage)
	} else {
		flagSet.StringVarP(&f.Value, f.Key, f.short, f.Value, f.usage)
	}
}

func (f StringFlag) FlagValidate() error {
	if f.Validate == nil {
		return nil
	}
	return f.Validate(f)
}

// BoolFlag handles a single boolean flag.
type BoolFlag struct {
	Part
	Value bool
}

// NewBoolFlag creates a new BoolFlag.
func NewBoolFlag(key, short, usage string) *BoolFlag {
	return &BoolFlag{Part: NewPart(key, short, usage)}
}

func (f *BoolFlag) AddTo(flagSet *pflag.FlagSet) {
	if f.short == "" {
		flagSet.BoolVar(&f.Value, f.Key, f.Value, f.usage)
	} else {
		flagSet.BoolVarP(&f.Value, f.Key, f.short, f.Value, f.usage)
	}
}

func (f BoolFlag) FlagValidate() error { return nil }

// Uint32Flag handles a single uint32 flag, used for PINs.
type Uint32Flag struct {
	Part
	Value    uint32
	Validate func(Uint32Flag) error
}

// NewUint32Flag creates a new Uint32Flag.
func NewUint32Flag(key, short, usage string, validate func(Uint32Flag) error) *Uint32Flag {
	return &Uint32Flag{Part: NewPart(key, short, usage), Validate: validate}
}

func (f *Uint32Flag) AddTo(flagSet *pflag.FlagSet) {
	if f.short == "" {
		flagSet.Uint32Var(&f.Value, f.Key, f.Value, f.usage)
	} else {
		flagSet.Uint32VarP(&f.Value, f.Key, f.short, f.Value, f.usage)
	}
}

func (f Uint32Flag) FlagValidate() error {
	if f.Validate == nil {
		return nil
	}
	return f.Validate(f)
}
