package vaultlog

// Nil is a View that discards everything. Callers that don't want CLI
// output (such as vaultcfg.WithDefaults in tests) pass this in place of a
// *CLI.
var Nil View = nilView{}

type nilView struct{}

func (nilView) Debugf(format string, x ...interface{}) {}
func (nilView) Errorf(format string, x ...interface{}) {}
func (nilView) Infof(format string, x ...interface{})  {}
func (nilView) Printf(format string, x ...interface{}) {}
func (nilView) Warnf(format string, x ...interface{})  {}
func (nilView) IsInfoEnabled() bool                    { return false }
func (nilView) IsDebugEnabled() bool                   { return false }

func (nilView) NewProgress(label string, total int64) Progress {
	return &nilProgress{total: total}
}
