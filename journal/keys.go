package journal

import (
	"github.com/oklog/ulid/v2"
)

// Key prefixes for different record types in BadgerDB.
const (
	prefixEntry = "e:" // Primary entry storage
	prefixName  = "n:" // Name index: n:<event name>:<ulid>
	ulidLen     = 26
	entryKeyLen = len(prefixEntry) + ulidLen
)

// encodeEntryKey creates a primary entry key.
// Format: e:<ulid>
func encodeEntryKey(id ulid.ULID) []byte {
	key := make([]byte, 0, entryKeyLen)
	key = append(key, prefixEntry...)
	key = append(key, id.String()...)
	return key
}

// decodeEntryKey extracts the ULID from a primary entry key.
func decodeEntryKey(key []byte) (ulid.ULID, error) {
	if len(key) < entryKeyLen {
		return ulid.ULID{}, ErrNotFound
	}
	return ulid.ParseStrict(string(key[len(prefixEntry):]))
}

// encodeNameIndexKey creates a name index key.
// Format: n:<event name>:<ulid>
func encodeNameIndexKey(name string, id ulid.ULID) []byte {
	key := make([]byte, 0, len(prefixName)+len(name)+1+ulidLen)
	key = append(key, prefixName...)
	key = append(key, name...)
	key = append(key, ':')
	key = append(key, id.String()...)
	return key
}

// encodeNameIndexPrefix creates a prefix for scanning all entries of an
// event name. Names containing ':' may share a prefix with other names, so
// scans must re-check the stored entry.
// Format: n:<event name>:
func encodeNameIndexPrefix(name string) []byte {
	prefix := make([]byte, 0, len(prefixName)+len(name)+1)
	prefix = append(prefix, prefixName...)
	prefix = append(prefix, name...)
	prefix = append(prefix, ':')
	return prefix
}

// decodeIndexKey extracts the ULID from an index key.
// The ULID is always the last 26 characters.
func decodeIndexKey(key []byte) (ulid.ULID, error) {
	if len(key) < ulidLen {
		return ulid.ULID{}, ErrNotFound
	}
	return ulid.ParseStrict(string(key[len(key)-ulidLen:]))
}

// entryKeyPrefix returns the prefix for all entry keys.
func entryKeyPrefix() []byte {
	return []byte(prefixEntry)
}

// prefixEnd returns the key that is just past all keys with the given prefix.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)

	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end
		}
	}

	// All bytes were 0xFF, return nil to scan to the end
	return nil
}
