package ident

import (
	"crypto/rand"
	"encoding/hex"
	"sync/atomic"
)

var counter atomic.Uint32

// New returns a 16-character lowercase hex identifier. The first 12
// characters come from a cryptographic random source; the last 4 encode a
// process-wide counter so ids minted in the same instant stay distinct.
func New() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:6]); err != nil {
		panic(err)
	}
	n := uint16(counter.Add(1))
	buf[6] = byte(n >> 8)
	buf[7] = byte(n)
	return hex.EncodeToString(buf[:])
}
