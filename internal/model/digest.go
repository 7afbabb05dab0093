package model

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// digestWriter accumulates canonical field encodings into a sha256 state.
// Fields are written in a fixed order with length prefixes, so two values
// hash equal iff their canonical forms are identical.
type digestWriter struct {
	h hash.Hash
}

func newDigestWriter() *digestWriter {
	return &digestWriter{h: sha256.New()}
}

func (w *digestWriter) writeString(s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	w.h.Write(n[:])
	w.h.Write([]byte(s))
}

func (w *digestWriter) writeUint64(v uint64) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], v)
	w.h.Write(n[:])
}

func (w *digestWriter) writeInt64(v int64) {
	w.writeUint64(uint64(v))
}

// writeStringMap contributes map entries in key order so that insertion
// order never affects the digest.
func (w *digestWriter) writeStringMap(m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w.writeUint64(uint64(len(keys)))
	for _, k := range keys {
		w.writeString(k)
		w.writeString(m[k])
	}
}

// writeStringsSorted contributes a sorted copy of the slice.
func (w *digestWriter) writeStringsSorted(ss []string) {
	sorted := make([]string, len(ss))
	copy(sorted, ss)
	sort.Strings(sorted)
	w.writeUint64(uint64(len(sorted)))
	for _, s := range sorted {
		w.writeString(s)
	}
}

func (w *digestWriter) sum() chainhash.Hash {
	var digest chainhash.Hash
	copy(digest[:], w.h.Sum(nil))
	return digest
}

// HashHex renders a digest as plain (non-reversed) hex. Block and
// transaction hashes travel on the wire in this form.
func HashHex(h chainhash.Hash) string {
	return hex.EncodeToString(h[:])
}
