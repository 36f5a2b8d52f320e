package cache

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// RetrievalKey identifies a cached knowledge-base lookup. The query is hashed
// so arbitrarily long transcripts map to fixed-size keys.
func RetrievalKey(query string, k int, minScore float64) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(k)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(minScore, 'g', -1, 64)))
	return fmt.Sprintf("kb:retrieve:%s", hex.EncodeToString(h.Sum(nil)))
}

// RateLimitKey is the per-client request counter for the current window.
func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}
