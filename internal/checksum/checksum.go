// Package checksum fingerprints side-channel payloads and document paths.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/starford/wordmd/internal/models"
)

// Content returns the hex-encoded SHA-256 digest of a payload. Assets are
// folded in name order, each prefixed by its name, so renaming an asset
// changes the digest.
func Content(c models.Content) string {
	h := sha256.New()
	h.Write([]byte(c.Markdown))
	for _, name := range c.AssetNames() {
		h.Write([]byte{0})
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write(c.Assets[name])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Key returns a stable file-name-safe key for an absolute path.
func Key(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}
