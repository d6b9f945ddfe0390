package services

import (
	"fmt"

	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
)

// CheckAndBumpVersion validates an optimistic-concurrency precondition:
// the caller read storedVersion and intends to write on top of it. When the
// expectation holds the next version number is returned. This check is a
// fast path only; the unique (user_id, version) index on the plan table is
// what makes the write itself race-free.
func CheckAndBumpVersion(storedVersion, expectedVersion int) (int, error) {
	if expectedVersion != storedVersion {
		return 0, apierr.Conflict(apierr.CodeVersionConflict,
			fmt.Errorf("plan changed: stored version %d, expected %d", storedVersion, expectedVersion))
	}
	return storedVersion + 1, nil
}
