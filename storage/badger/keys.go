package badger

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/poiesic/flowmate/storage"
)

const (
	collectionPrefix = "vcol"
	entryPrefix      = "vent"
)

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, "/:") {
		return fmt.Errorf("%w: invalid collection name %q", storage.ErrInvalidQuery, name)
	}
	return nil
}

// makeCollectionKey generates the key holding a collection's header.
func makeCollectionKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", collectionPrefix, name))
}

// makeEntryPrefix generates the prefix shared by all entries of a collection.
// Format: prefix:name/
func makeEntryPrefix(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s/", entryPrefix, name))
}

// makeEntryKey generates the key of one entry.
// Format: prefix:name/id, id in BigEndian so iteration follows chunk order.
func makeEntryKey(name string, id uint64) []byte {
	prefix := makeEntryPrefix(name)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], id)
	return buf
}
