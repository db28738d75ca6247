package core

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/go-crypt/x/blake2b"
)

// CatalogDigest computes a BLAKE2b-256 content hash over every product field
// the vector index reads, in catalog order. Identical catalogs produce identical digests.
func CatalogDigest(products []Product) string {
	h, _ := blake2b.New(32, nil)
	var buf [8]byte
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}

	binary.LittleEndian.PutUint64(buf[:], uint64(len(products)))
	h.Write(buf[:])
	for i := range products {
		p := &products[i]
		writeString(p.ID)
		writeString(p.Name)
		writeString(p.Description)
		writeString(p.Category)
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(p.Price))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(p.Stock)))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
