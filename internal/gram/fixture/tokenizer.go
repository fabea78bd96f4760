// Package fixture provides the toy 127-id tokenizer used throughout the
// test suite, grounded verbatim on original_source/test_tokenizer.py: a
// small vocabulary with a handful of reserved multi-character token ids
// (ordered longest-to-shortest, order matters for Encode's greedy match)
// plus every printable ASCII character as its own single-rune token.
package fixture

// Tokenizer is a deliberately tiny oracle.Oracle implementation for tests.
// Use NewTokenizer to get one; its methods have pointer receivers so that
// distinct *Tokenizer values are distinguishable map keys in the oracle
// package's process-wide decode cache, matching how a host's real tokenizer
// object identity is used to invalidate that cache.
type Tokenizer struct {
	ids     []int
	byID    map[int]string
	orderID []int // ids in encode-preference order, longest string first
}

// NewTokenizer builds the fixture vocabulary described in spec.md section 8:
// id 0 is EOS ("\x00"), id 10 is newline, ids 1-9 and 11-31 are reserved
// multi-character strings, and ids 32-126 are the single printable ASCII
// characters with that codepoint.
func NewTokenizer() *Tokenizer {
	reserved := map[int]string{
		0:  "\x00",
		10: "\n",
		1:  "Universe",
		2:  "token",
		3:  "world",
		4:  "stock",
		5:  `..."`,
		6:  "hall",
		7:  "the",
		8:  "...",
		9:  "and",
		11: "com",
		12: "Neg",
		13: "   ",
		14: "end",
		15: "six",
		16: "tab",
		17: "- [",
		18: "gg",
		19: "He",
		20: "- ",
		21: "ni",
		22: "oo",
		23: "[]",
		24: "or",
		25: "ro",
		26: "),",
		27: "of",
		28: "to",
		29: "by",
		30: "++",
		31: "],",
	}

	t := &Tokenizer{byID: map[int]string{}}
	// preference order matches the Python dict's insertion order: reserved
	// ids first (already longest-to-shortest by construction), then the
	// printable-ASCII range in id order.
	order := []int{0, 10, 1, 2, 3, 4, 5, 6, 7, 8, 9, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31}
	for _, id := range order {
		t.byID[id] = reserved[id]
	}
	for r := 32; r < 127; r++ {
		t.byID[r] = string(rune(r))
		order = append(order, r)
	}
	t.orderID = order
	t.ids = order

	return t
}

func (t *Tokenizer) VocabSize() int { return 127 }

func (t *Tokenizer) EOSID() int { return 0 }

func (t *Tokenizer) Decode(id int) string {
	s, ok := t.byID[id]
	if !ok {
		return ""
	}
	return s
}

// Encode greedily tokenizes text using the same "first match in preference
// order wins, else drop one rune and retry" loop as test_tokenizer.py's
// encode function. It exists for building test input sequences, not for any
// hot path in the matcher tree.
func (t *Tokenizer) Encode(text string) []int {
	var ids []int
	runes := []rune(text)
	for len(runes) > 0 {
		s := string(runes)
		matched := false
		for _, id := range t.orderID {
			tok := t.byID[id]
			if tok != "" && len(tok) <= len(s) && s[:len(tok)] == tok {
				ids = append(ids, id)
				runes = []rune(s[len(tok):])
				matched = true
				break
			}
		}
		if !matched {
			runes = runes[1:]
		}
	}
	return ids
}

// DecodeAll returns a map of every id to its decoded string, mirroring
// get_token_dictionary's output shape for tests that want to inspect the
// full dictionary directly instead of going through oracle.DecodeDictionary.
func (t *Tokenizer) DecodeAll() map[int]string {
	out := make(map[int]string, len(t.byID))
	for id, s := range t.byID {
		out[id] = s
	}
	return out
}
