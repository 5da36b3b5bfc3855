package publish

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// PreconditionError reports that the published registry package carries a
// version outside the pinned major/minor constraints. Someone manually
// tagged an incompatible version; the run halts rather than publishing on
// top of it.
type PreconditionError struct {
	Published     *semver.Version
	ExpectedMinor uint64
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("published version %s violates version constraints (want major 0, minor %d)",
		e.Published, e.ExpectedMinor)
}
