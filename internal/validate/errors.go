package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/typings-labs/typepub/internal/fsutil"
)

// MismatchError reports that the installed artifact's file tree does not
// match the locally generated bundle. Report carries a diff-style rendering
// of the content differences for operator diagnosis.
type MismatchError struct {
	Package string
	Diffs   []fsutil.Difference
	Report  string
}

func (e *MismatchError) Error() string {
	paths := make([]string, len(e.Diffs))
	for i, d := range e.Diffs {
		paths[i] = d.String()
	}
	msg := fmt.Sprintf("installed %s does not match generated output: %s",
		e.Package, strings.Join(paths, ", "))
	if e.Report != "" {
		msg += "\n" + e.Report
	}
	return msg
}

// SubsetError reports that a previously uploaded index contains keys the
// freshly generated index cannot account for. Promoting such an artifact
// would expose entries nobody generated; the run must abort instead.
type SubsetError struct {
	Keys []string
}

func (e *SubsetError) Error() string {
	keys := append([]string(nil), e.Keys...)
	sort.Strings(keys)
	return "published index contains unaccounted keys: " + strings.Join(keys, ", ")
}
