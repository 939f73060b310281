// internal/lobby/codes.go
package lobby

import "math/rand"

// codeAlphabet is the fixed alphabet lobby codes are sampled from.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the number of characters in a lobby code.
const CodeLength = 6

// generateCode samples codeAlphabet until it produces a code the taken
// predicate does not already know. With a 36^6 space collisions are rare; the
// retry loop just makes uniqueness unconditional.
func generateCode(rng *rand.Rand, taken func(string) bool) string {
	buf := make([]byte, CodeLength)
	for {
		for i := range buf {
			buf[i] = codeAlphabet[rng.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if !taken(code) {
			return code
		}
	}
}
