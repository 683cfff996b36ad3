package quiz

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet is the join-code symbol set: uppercase letters and digits
// with the visually ambiguous 0/O/1/I/L removed.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// CodeLength is the number of symbols in a join code. Six symbols over a
// 31-character alphabet give roughly a billion codes, which makes collisions
// among concurrently live sessions negligible; allocation still retries on
// the off chance.
const CodeLength = 6

// GenerateJoinCode returns a fresh human-enterable join code.
func GenerateJoinCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading randomness for join code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// ValidJoinCode reports whether s has the shape of a join code. It does not
// check liveness, only length and alphabet membership.
func ValidJoinCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for _, c := range s {
		found := false
		for _, a := range codeAlphabet {
			if c == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
