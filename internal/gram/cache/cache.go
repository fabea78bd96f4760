// Package cache sits between the oracle's raw per-id decode dictionary and
// the RegExp matcher: it NFC-normalizes every decoded string once, at
// dictionary-build time, rather than on every Advance/AllowedTokens call.
// A tokenizer vocabulary that mixes precomposed and decomposed Unicode forms
// (e.g. "é" as one code point versus "e" + a combining acute) would otherwise
// make a character-class match spuriously fail or succeed depending on which
// form a particular token id happened to spell. Terminal matching is left on
// oracle.DecodeDictionary's raw strings: a Terminal's literal is matched
// byte-index by byte-index against the grammar author's own text, which is
// assumed to already be in whatever normal form that author used, and
// normalizing mid-literal would break the running byte offset.
package cache

import (
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/dekarrin/gramlock/oracle"
)

var (
	mu    sync.Mutex
	built = map[oracle.Oracle]map[int]string{}
)

// Normalized returns the process-wide {id: NFC-normalized decoded string}
// map for o, building it once per Oracle identity on first use, mirroring
// oracle.DecodeDictionary's own build-once cache.
func Normalized(o oracle.Oracle) map[int]string {
	mu.Lock()
	defer mu.Unlock()

	if d, ok := built[o]; ok {
		return d
	}

	src := oracle.DecodeDictionary(o)
	d := make(map[int]string, len(src))
	for id, s := range src {
		d[id] = norm.NFC.String(s)
	}
	built[o] = d
	return d
}
