package types

import (
	"bytes"
	"encoding/hex"
)

// BlobValue is an opaque byte sequence. Field stores copy blobs on the way in
// and out, so a BlobValue held by a caller never aliases stored bytes.
type BlobValue []byte

func (v BlobValue) Kind() Kind {
	return BlobKind
}

// String renders the blob as hex, truncated after 32 bytes.
func (v BlobValue) String() string {
	const maxShown = 32
	if len(v) > maxShown {
		return "0x" + hex.EncodeToString(v[:maxShown]) + "..."
	}
	return "0x" + hex.EncodeToString(v)
}

// Equals treats nil and empty blobs as equal.
func (v BlobValue) Equals(other Value) bool {
	o, ok := other.(BlobValue)
	return ok && bytes.Equal(v, o)
}

// Clone returns a copy that shares no memory with v.
func (v BlobValue) Clone() BlobValue {
	if v == nil {
		return nil
	}
	return bytes.Clone(v)
}
