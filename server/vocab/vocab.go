// Package vocab adapts a host-supplied tokenizer vocabulary, as received
// over the wire in a session-creation request, into an oracle.Oracle. A real
// in-process host implements oracle.Oracle directly against its own
// tokenizer; the HTTP server has no such object and must reconstruct an
// equivalent from JSON, so it builds one of these instead.
package vocab

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/dekarrin/gramlock/oracle"
)

// Table is the wire form of a vocabulary: Decoded[i] is the exact string
// token id i spells out, and EOS is the end-of-sequence id. Every id in
// [0, len(Decoded)) must be present.
type Table struct {
	EOS     int      `json:"eos_id"`
	Decoded []string `json:"decoded"`
}

// Validate reports whether t is usable as an oracle.Oracle: non-empty, and
// EOS in range.
func (t Table) Validate() error {
	if len(t.Decoded) == 0 {
		return fmt.Errorf("vocab table has no decoded strings")
	}
	if t.EOS < 0 || t.EOS >= len(t.Decoded) {
		return fmt.Errorf("eos_id %d is out of range for a %d-entry vocab table", t.EOS, len(t.Decoded))
	}
	return nil
}

// hash identifies a Table's contents for the oracle cache below: two
// sessions created against byte-identical vocab tables share one Oracle
// value, and so share oracle.DecodeDictionary's build-once cache, exactly
// the reuse oracle.Oracle's own doc comment recommends.
func (t Table) hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d\n", t.EOS)
	for _, s := range t.Decoded {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type tableOracle struct {
	eos     int
	decoded []string
}

func (o *tableOracle) VocabSize() int      { return len(o.decoded) }
func (o *tableOracle) EOSID() int          { return o.eos }
func (o *tableOracle) Decode(id int) string {
	if id < 0 || id >= len(o.decoded) {
		return ""
	}
	return o.decoded[id]
}

// Encode is unused by the mask/advance hot path (see oracle.Oracle's doc
// comment) and the server never needs to re-tokenize text server-side, so it
// is unimplemented here.
func (o *tableOracle) Encode(s string) []int { return nil }

var (
	mu     sync.Mutex
	cached = map[string]oracle.Oracle{}
)

// OracleFor returns the process-wide Oracle for t's contents, building one
// on first use and reusing it for every later session created against an
// identical table.
func OracleFor(t Table) oracle.Oracle {
	key := t.hash()

	mu.Lock()
	defer mu.Unlock()

	if o, ok := cached[key]; ok {
		return o
	}

	decoded := make([]string, len(t.Decoded))
	copy(decoded, t.Decoded)
	o := &tableOracle{eos: t.EOS, decoded: decoded}
	cached[key] = o
	return o
}
