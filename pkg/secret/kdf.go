package secret

import (
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/nacl/box"
)

// Size is the length, in bytes, of every secret value handled by this
// package: the device secret, the master pattern, the master key, and
// every pad and ID entry.
const Size = 32

// hash is SHA256 over the concatenation of parts, in order. None of the
// compositions in this package are commutative: hash(a, b) != hash(b, a).
func hash(parts ...[]byte) [Size]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// mult combines a scalar n with a curve point p the same asymmetric way
// the original implementation's crypto_box_beforenm(out, p, n) does: it is
// NaCl's X25519 Diffie-Hellman step followed by HSalsa20, with p read as
// the public key and n as the private scalar. mult(n, p) != mult(p, n).
func mult(n, p *[Size]byte) [Size]byte {
	var out [Size]byte
	box.Precompute(&out, p, n)
	return out
}

// encodePIN renders a numeric PIN as the little-endian uint32 the original
// protocol hashes, so the KDFs below match it byte for byte.
func encodePIN(pin uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], pin)
	return b[:]
}

// masterHash derives the master pattern from the device secret and a PIN.
// It combines four hashes and one scalar multiplication, none of which
// commute, so changing the order of any operand changes the result:
//
//	A = hash(pin)
//	B = hash(deviceSecret + A)
//	C = hash(A + deviceSecret)
//	master = hash(B * C)
func masterHash(deviceSecret *[Size]byte, pin uint32) [Size]byte {
	pinBytes := encodePIN(pin)
	a := hash(pinBytes)
	b := hash(deviceSecret[:], a[:])
	c := hash(a[:], deviceSecret[:])
	bc := mult(&b, &c)
	return hash(bc[:])
}

// idHash derives the (non-secret) pad lookup key from the device secret
// and a PIN:
//
//	A = hash(pin)
//	B = hash(deviceSecret + pin)
//	C = A * B
//	D = B * A
//	A' = hash(C + D)
//	id = hash(A' + C)
func idHash(deviceSecret *[Size]byte, pin uint32) [Size]byte {
	pinBytes := encodePIN(pin)
	a := hash(pinBytes)
	b := hash(deviceSecret[:], pinBytes)
	c := mult(&a, &b)
	d := mult(&b, &a)
	a2 := hash(c[:], d[:])
	return hash(a2[:], c[:])
}
