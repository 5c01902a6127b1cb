package schema

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"
)

// positionCacheSize bounds the process-wide position cache. Readers typically
// touch a handful of struct types at a time, so a few hundred entries is far
// more than the working set.
const positionCacheSize = 512

var positions *freelru.SyncedLRU[uint64, map[string]int]

func init() {
	cache, err := freelru.NewSynced[uint64, map[string]int](positionCacheSize, hashStructID)
	if err != nil {
		panic(err)
	}
	positions = cache
}

func hashStructID(id uint64) uint32 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], id)
	return uint32(xxhash.Sum64(b[:]))
}

// resolvePositions returns the name-to-position table for st, building and
// caching it on first use. The table is derived solely from field order, so
// concurrent callers racing on an uncached struct build identical tables and
// the duplicate work is harmless. Keys are the struct's numeric id, not the
// struct itself: the cache never keeps a StructType reachable, and LRU
// eviction bounds its footprint.
func resolvePositions(st *StructType) map[string]int {
	if m, ok := positions.Get(st.id); ok {
		return m
	}

	m := make(map[string]int, len(st.fields))
	for i, f := range st.fields {
		m[f.Name] = i
	}
	positions.Add(st.id, m)
	return m
}
