// Package codec holds the L85 text encoding used for human-readable index keys.
//
// L85 is a base85 variant whose alphabet is in ascending ASCII order, so for
// inputs whose length is a multiple of four, byte order of the encodings equals
// byte order of the inputs. Index keys are built from fixed-width big-endian
// fields and keep their sort order when stored as L85.
package codec

import (
	"errors"
	"fmt"
)

// L85Alphabet lists the 85 digits in ascending byte order
const L85Alphabet = "!$%&()+,-./" +
	"0123456789:;<=>@" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ[]_`" +
	"abcdefghijklmnopqrstuvwxyz{}"

// ErrInvalidCharacter indicates a byte outside the alphabet
var ErrInvalidCharacter = errors.New("invalid L85 character")

// digit value + 1; zero marks bytes outside the alphabet
var l85Digits [256]byte

func init() {
	for i := 0; i < len(L85Alphabet); i++ {
		l85Digits[L85Alphabet[i]] = byte(i + 1)
	}
}

// EncodedLen returns the encoded length of n input bytes
func EncodedLen(n int) int {
	full := n / 4 * 5
	if rem := n % 4; rem > 0 {
		return full + rem + 1
	}
	return full
}

// AppendL85 appends the encoding of src to dst
func AppendL85(dst, src []byte) []byte {
	for len(src) > 0 {
		var group [4]byte
		n := copy(group[:], src)
		src = src[n:]

		v := uint32(group[0])<<24 | uint32(group[1])<<16 | uint32(group[2])<<8 | uint32(group[3])
		var digits [5]byte
		for j := 4; j >= 0; j-- {
			digits[j] = L85Alphabet[v%85]
			v /= 85
		}
		// A partial group of n bytes needs n+1 digits
		dst = append(dst, digits[:n+1]...)
	}
	return dst
}

// EncodeL85 encodes bytes to L85
func EncodeL85(src []byte) string {
	return string(AppendL85(make([]byte, 0, EncodedLen(len(src))), src))
}

// DecodeL85 decodes an L85 string
func DecodeL85(src string) ([]byte, error) {
	out := make([]byte, 0, len(src)*4/5+4)
	for i := 0; i < len(src); i += 5 {
		end := i + 5
		if end > len(src) {
			end = len(src)
		}
		group := src[i:end]
		if len(group) == 1 {
			return nil, errors.New("invalid L85 encoding: incomplete group")
		}

		var v uint32
		for j := 0; j < 5; j++ {
			d := byte(85) // pad partial groups with the highest digit
			if j < len(group) {
				d = l85Digits[group[j]]
				if d == 0 {
					return nil, fmt.Errorf("%w at position %d: %q", ErrInvalidCharacter, i+j, group[j])
				}
			}
			v = v*85 + uint32(d-1)
		}

		word := [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
		out = append(out, word[:len(group)-1]...)
	}
	return out, nil
}
