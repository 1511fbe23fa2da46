package status

import (
	"fmt"

	"github.com/jonathan/justabill/internal/types"
)

// IntroducedOnlyError rejects a bill that shows no procedural movement.
type IntroducedOnlyError struct {
	Bill types.BillIdentity
}

func (e *IntroducedOnlyError) Error() string {
	return fmt.Sprintf("bill %s is only 'introduced' - not actively progressing through legislative process", e.Bill)
}

// Gate returns the status to persist. An override always wins; otherwise an
// introduced-only classification is rejected with *IntroducedOnlyError.
func Gate(bill types.BillIdentity, classified types.Status, override *types.Status) (types.Status, error) {
	if override != nil {
		return *override, nil
	}
	if classified == types.StatusIntroduced {
		return "", &IntroducedOnlyError{Bill: bill}
	}
	return classified, nil
}
