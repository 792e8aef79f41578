package vault

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeFieldsRoundTrip(t *testing.T) {
	fields := []Field{
		{Type: FieldID, Data: []byte("demo")},
		{Type: FieldUser, Data: []byte("alice")},
		{Type: FieldPassword, Data: []byte("hunter2")},
	}
	encoded, err := encodeFields(fields)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := decodeFields(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != len(fields) {
		t.Fatalf("decoded %d fields, want %d", len(decoded), len(fields))
	}
	for i, f := range fields {
		if decoded[i].Type != f.Type || !bytes.Equal(decoded[i].Data, f.Data) {
			t.Fatalf("field %d = %+v, want %+v", i, decoded[i], f)
		}
	}
}

func TestEncodeFieldsRejectsOverlongName(t *testing.T) {
	_, err := encodeFields([]Field{{Type: FieldID, Data: bytes.Repeat([]byte{'a'}, MaxNameLen+1)}})
	if err == nil {
		t.Fatal("expected overlong id field to be rejected")
	}
}

func TestDecodeFieldsRejectsTruncatedPayload(t *testing.T) {
	_, err := decodeFields([]byte{byte(FieldUser), 5, 'a', 'b'})
	if err == nil {
		t.Fatal("expected truncated field to be rejected")
	}
}

func TestDecodeFieldsStopsAtTerminator(t *testing.T) {
	buf := []byte{byte(FieldUser), 1, 'x', byte(FieldEnd), byte(FieldEmail), 1, 'y'}
	fields, err := decodeFields(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 1 || fields[0].Type != FieldUser {
		t.Fatalf("fields = %+v, want only the field before the terminator", fields)
	}
}
