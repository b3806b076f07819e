package chainindex

import "bytes"

// bucketSeparator joins a bucket's name to its keys, mirroring
// daglabs-btcd's dbaccess bucket convention (database2.MakeBucket).
var bucketSeparator = []byte{0x00}

// Bucket namespaces a flat keyspace into a column family by prefixing
// every key with the bucket's own path.
type Bucket struct {
	path []byte
}

// MakeBucket returns a top-level bucket identified by name.
func MakeBucket(name []byte) Bucket {
	return Bucket{path: append([]byte(nil), name...)}
}

// Bucket returns a sub-bucket nested under b, for grouping related column
// families (unused today, kept for the same reason the teacher keeps it:
// cursors can scan an entire nested namespace at once).
func (b Bucket) Bucket(name []byte) Bucket {
	return Bucket{path: bytes.Join([][]byte{b.path, name}, bucketSeparator)}
}

// Path returns b's own key prefix, usable directly as a Cursor scan range.
func (b Bucket) Path() []byte {
	return append([]byte(nil), b.path...)
}

// Key returns the full key for suffix within b.
func (b Bucket) Key(suffix []byte) []byte {
	return bytes.Join([][]byte{b.path, suffix}, bucketSeparator)
}
