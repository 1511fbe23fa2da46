package ingestion

import "github.com/jonathan/justabill/internal/types"

// Change is the outcome of comparing freshly extracted text against the stored version.
type Change struct {
	Hash    string
	Changed bool
}

// DetectChange hashes text and compares it with lastHash, the content hash of the
// bill's most recent version. Without a prior version the text is always a change.
func DetectChange(text string, lastHash string, hasPrior bool) Change {
	hash := types.HashText(text)
	return Change{
		Hash:    hash,
		Changed: !hasPrior || hash != lastHash,
	}
}
