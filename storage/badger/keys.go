package badger

import "encoding/binary"

// Key prefixes for persisted index data
const (
	indexManifestKey = "emidx:manifest"
	indexEntryPrefix = "emidx:entry"
)

// makeEntryKey generates a key for an index entry by ordinal.
// Format: prefix:ordinal. The ordinal is written in BigEndian order so
// lexicographic key iteration yields entries in insertion order.
func makeEntryKey(ordinal int) []byte {
	prefix := indexEntryPrefix + ":"
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(ordinal))
	return buf
}

// entryPrefix returns the shared prefix of all entry keys.
func entryPrefix() []byte {
	return []byte(indexEntryPrefix + ":")
}
