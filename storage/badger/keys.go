package badger

// Key prefixes for different data types
const (
	blobPrefix     = "blob"
	checksumPrefix = "sum"
)

// makeBlobKey generates the key holding the blob stored under key.
func makeBlobKey(key string) []byte {
	return []byte(blobPrefix + ":" + key)
}

// makeChecksumKey generates the key holding the digest of the blob stored under key.
func makeChecksumKey(key string) []byte {
	return []byte(checksumPrefix + ":" + key)
}
