package matcher

import (
	"fmt"

	"github.com/dekarrin/rezi"
)

// EncodeCursor serializes c via rezi's reflective binary codec, the same
// encoding the teacher lineage uses for its own save-game state in
// server/dao/sqlite/sessions.go. Cursor is plain exported data with no
// bespoke Marshal method precisely so this can be a one-line call.
func EncodeCursor(c Cursor) []byte {
	return rezi.EncBinary(c)
}

// DecodeCursor reverses EncodeCursor. It returns an error if data is not a
// valid Cursor encoding, or if trailing bytes remain once the Cursor has
// been fully decoded.
func DecodeCursor(data []byte) (Cursor, error) {
	var c Cursor
	n, err := rezi.DecBinary(data, &c)
	if err != nil {
		return Cursor{}, fmt.Errorf("rezi decode cursor: %w", err)
	}
	if n != len(data) {
		return Cursor{}, fmt.Errorf("rezi decode cursor: consumed %d of %d bytes", n, len(data))
	}
	return c, nil
}
