package chunk

import "hash/fnv"

// ID computes the stable chunk identifier for a line-range excerpt of a
// workspace-relative path. Identical (path, startLine, endLine) always
// yields the identical ID, even across re-indexing runs, so long as the
// chunk boundaries themselves are unchanged.
func ID(relpath string, startLine, endLine int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(relpath))
	_, _ = h.Write([]byte{0})
	writeInt(h, startLine)
	_, _ = h.Write([]byte{0})
	writeInt(h, endLine)
	return h.Sum64()
}

func writeInt(h interface{ Write([]byte) (int, error) }, v int) {
	var buf [8]byte
	u := uint64(v)
	for i := 0; i < 8; i++ {
		buf[i] = byte(u >> (8 * i))
	}
	_, _ = h.Write(buf[:])
}
