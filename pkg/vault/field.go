package vault

import "fmt"

// FieldType identifies one TLV field within a record's payload.
type FieldType byte

const (
	FieldEnd         FieldType = 0 // terminator; never stored in an Entry's Fields
	FieldID          FieldType = 1 // entry name; required, always first
	FieldPrev        FieldType = 2 // name of the preceding entry, for user-defined order
	FieldUser        FieldType = 3
	FieldEmail       FieldType = 4
	FieldPassword    FieldType = 5
	FieldHOTPSecret  FieldType = 6
	FieldHOTPCounter FieldType = 7
	FieldTOTPSecret  FieldType = 8
	FieldComment     FieldType = 9
	FieldPassword2   FieldType = 10
	FieldDir         FieldType = 11
)

// Length limits from the field table; encodeFields and decodeFields both
// enforce them so a record round-trips exactly or is rejected up front.
const (
	MaxNameLen   = 16
	MaxStringLen = 64
	MaxSecretLen = 20
)

// Field is one decoded TLV value attached to an Entry.
type Field struct {
	Type FieldType
	Data []byte
}

func maxLenFor(t FieldType) int {
	switch t {
	case FieldID, FieldPrev:
		return MaxNameLen
	case FieldHOTPSecret, FieldTOTPSecret:
		return MaxSecretLen
	case FieldHOTPCounter:
		return 8
	case FieldDir:
		return 0
	default:
		return MaxStringLen
	}
}

func validateField(t FieldType, data []byte) error {
	if len(data) > 255 {
		return fmt.Errorf("vault: field %d: %d bytes exceeds the 255-byte TLV limit", t, len(data))
	}
	if max := maxLenFor(t); max > 0 && len(data) > max {
		return fmt.Errorf("vault: field %d: %d bytes exceeds the %d-byte limit for this field", t, len(data), max)
	}
	return nil
}

// encodeFields renders fields as a terminated TLV sequence: one byte type,
// one byte length, then the value, repeated, ending with a field_type == 0
// terminator.
func encodeFields(fields []Field) ([]byte, error) {
	var out []byte
	for _, f := range fields {
		if f.Type == FieldEnd {
			return nil, fmt.Errorf("vault: field_end is a reserved terminator, not a storable field")
		}
		if err := validateField(f.Type, f.Data); err != nil {
			return nil, err
		}
		out = append(out, byte(f.Type), byte(len(f.Data)))
		out = append(out, f.Data...)
	}
	out = append(out, byte(FieldEnd))
	return out, nil
}

// decodeFields parses a TLV sequence produced by encodeFields. It stops at
// the first field_end terminator or the end of the buffer, whichever
// comes first.
func decodeFields(buf []byte) ([]Field, error) {
	var fields []Field
	i := 0
	for i < len(buf) {
		t := FieldType(buf[i])
		if t == FieldEnd {
			return fields, nil
		}
		if i+1 >= len(buf) {
			return nil, fmt.Errorf("vault: truncated field header at offset %d", i)
		}
		length := int(buf[i+1])
		start := i + 2
		if start+length > len(buf) {
			return nil, fmt.Errorf("vault: field %d at offset %d: length %d overruns payload", t, i, length)
		}
		data := make([]byte, length)
		copy(data, buf[start:start+length])
		fields = append(fields, Field{Type: t, Data: data})
		i = start + length
	}
	return fields, nil
}
