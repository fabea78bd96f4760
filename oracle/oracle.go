// Package oracle defines the Tokenizer Oracle boundary (component A):
// the minimal vocabulary surface a host's tokenizer must expose for a
// Session to mask and advance against it, plus the process-wide decode
// dictionary cache every matcher tree consults. Grounded on
// original_source/utils.py's get_token_dictionary and shared.tokenizer
// usage.
package oracle

import "sync"

// Oracle is the tokenizer surface a host must provide. Decode and Encode
// are called only at grammar-load/cache-build time and in test fixtures;
// the hot mask/advance path goes through the cached dictionary this
// package builds from Decode once per Oracle.
type Oracle interface {
	// VocabSize is the number of distinct token ids, i.e. the width of the
	// scores vector Session.MaskScores operates on.
	VocabSize() int

	// EOSID is the id of the end-of-sequence token.
	EOSID() int

	// Decode returns the exact string a single token id spells out.
	Decode(id int) string

	// Encode tokenizes s into the oracle's own token ids. Used only by
	// fixtures and callers constructing test input; the matcher tree never
	// calls it.
	Encode(s string) []int
}

var (
	dictMu    sync.Mutex
	dictCache = map[Oracle]map[int]string{}
)

// DecodeDictionary returns the process-wide {id: decoded string} map for o,
// building it once on first use and reusing it thereafter for the lifetime
// of the process, exactly mirroring get_token_dictionary's
// build-once-per-tokenizer-identity cache. o is used as a map key, so
// distinct Oracle values (even structurally identical ones) get distinct
// dictionaries; callers should share a single Oracle value across sessions
// that use the same vocabulary to benefit from the cache.
func DecodeDictionary(o Oracle) map[int]string {
	dictMu.Lock()
	defer dictMu.Unlock()

	if d, ok := dictCache[o]; ok {
		return d
	}

	d := make(map[int]string, o.VocabSize())
	for i := 0; i < o.VocabSize(); i++ {
		d[i] = o.Decode(i)
	}
	dictCache[o] = d
	return d
}
