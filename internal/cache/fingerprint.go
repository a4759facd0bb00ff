package cache

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/JohanChane/cmdbridge/internal/config"
)

// fingerprintKey is the 32-byte key for BLAKE3 keyed hashing of the
// configuration tree. It is a fixed constant: changing it invalidates
// every existing cache fingerprint. The bytes are the ASCII domain name
// zero-padded to 32, which keeps the key readable in hex dumps.
var fingerprintKey = [32]byte{
	'c', 'm', 'd', 'b', 'r', 'i', 'd', 'g', 'e', '.',
	'c', 'o', 'n', 'f', 'i', 'g', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Fingerprint computes the hex BLAKE3 keyed hash of a configuration
// file list. Each path and each content is length-prefixed so file
// boundaries cannot be forged by concatenation, and LoadSnapshot sorts
// the list by path, so the same tree always fingerprints identically
// regardless of directory read order.
func Fingerprint(files []config.ConfigFile) string {
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		// NewKeyed only fails on a wrong key length, which the fixed
		// array rules out.
		panic("cache: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	var frame [binary.MaxVarintLen64]byte
	writeChunk := func(data []byte) {
		n := binary.PutUvarint(frame[:], uint64(len(data)))
		hasher.Write(frame[:n])
		hasher.Write(data)
	}

	for _, file := range files {
		writeChunk([]byte(file.RelPath))
		writeChunk(file.Data)
	}

	return hex.EncodeToString(hasher.Sum(nil))
}
