// Package snapshot builds the per-run registry snapshot: the mapping from
// every known typings package to its filtered dist-tag set, together with the
// deterministic content hash used to decide whether a new registry package
// must be published.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Snapshot maps package names to their filtered tag sets. It is built fresh
// each run and never mutated after construction.
type Snapshot struct {
	Entries map[string]TagSet `json:"entries"`
}

// New returns an empty snapshot.
func New() *Snapshot {
	return &Snapshot{Entries: make(map[string]TagSet)}
}

// Names returns the snapshot's package names in sorted order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.Entries))
	for name := range s.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Serialize returns the canonical JSON encoding of the snapshot. Map keys
// are emitted in sorted order by encoding/json, so identical snapshots always
// serialize to identical bytes regardless of insertion order or prior
// process state.
func (s *Snapshot) Serialize() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Hash returns the content hash of the snapshot's canonical encoding.
func (s *Snapshot) Hash() (string, error) {
	data, err := s.Serialize()
	if err != nil {
		return "", err
	}
	return ComputeHash(data), nil
}

// ComputeHash returns the hex-encoded sha256 digest of data. It is a pure
// function of its input; the same bytes always hash to the same value.
func ComputeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Parse decodes a serialized snapshot, as read back from a published
// index.json.
func Parse(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if s.Entries == nil {
		s.Entries = make(map[string]TagSet)
	}
	return &s, nil
}
