package vault

// Entry is the in-memory representation of one account or directory
// record. Block 0 means the entry is virtual: created in memory but
// never yet written to flash.
type Entry struct {
	Name     string
	Sequence uint16
	Block    uint32
	Fields   []Field

	deferred bool
	dirty    bool // a change is pending a write once deferred is cleared
}

// FieldFind returns the first field of the given type, if any.
func (e *Entry) FieldFind(t FieldType) (Field, bool) {
	for _, f := range e.Fields {
		if f.Type == t {
			return f, true
		}
	}
	return Field{}, false
}

// IsDir reports whether this entry is a directory (carries a dir field).
func (e *Entry) IsDir() bool {
	_, ok := e.FieldFind(FieldDir)
	return ok
}

// IsAccount reports whether this entry is clearly an account: it carries
// at least one of the account-only fields. An entry with none of these
// fields and no dir field could still become either, so it reports false.
func (e *Entry) IsAccount() bool {
	if e.IsDir() {
		return false
	}
	for _, t := range []FieldType{FieldUser, FieldEmail, FieldPassword,
		FieldHOTPSecret, FieldTOTPSecret, FieldComment, FieldPassword2} {
		if _, ok := e.FieldFind(t); ok {
			return true
		}
	}
	return false
}

func (e *Entry) prevName() (string, bool) {
	f, ok := e.FieldFind(FieldPrev)
	if !ok {
		return "", false
	}
	return string(f.Data), true
}

func (e *Entry) setField(t FieldType, data []byte) {
	for i, f := range e.Fields {
		if f.Type == t {
			e.Fields[i].Data = data
			return
		}
	}
	e.Fields = append(e.Fields, Field{Type: t, Data: data})
}

func (e *Entry) removeField(t FieldType) bool {
	for i, f := range e.Fields {
		if f.Type == t {
			e.Fields = append(e.Fields[:i], e.Fields[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Entry) clone() *Entry {
	fields := make([]Field, len(e.Fields))
	for i, f := range e.Fields {
		data := make([]byte, len(f.Data))
		copy(data, f.Data)
		fields[i] = Field{Type: f.Type, Data: data}
	}
	return &Entry{
		Name:     e.Name,
		Sequence: e.Sequence,
		Block:    e.Block,
		Fields:   fields,
		deferred: e.deferred,
		dirty:    e.dirty,
	}
}

func (e *Entry) restore(saved *Entry) {
	e.Name = saved.Name
	e.Sequence = saved.Sequence
	e.Block = saved.Block
	e.Fields = saved.Fields
	e.deferred = saved.deferred
	e.dirty = saved.dirty
}
