package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashText returns the hex SHA-256 digest of the UTF-8 bytes of text.
func HashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// NewExtractedText pairs text with its content hash.
func NewExtractedText(text string) ExtractedText {
	return ExtractedText{Text: text, Hash: HashText(text)}
}
