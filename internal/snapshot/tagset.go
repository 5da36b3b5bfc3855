package snapshot

// LatestTag is the dist-tag the registry resolves installs to by default.
const LatestTag = "latest"

// TagSet maps dist-tag names to the version each tag points at.
type TagSet map[string]string

// FilterTags returns the subset of tags worth recording in the snapshot. The
// "latest" entry is always kept. Every other tag is kept only if its version
// differs from latest's; tags that are redundant aliases of latest are
// dropped. When no "latest" entry exists there is nothing to compare against
// and every tag is kept.
func FilterTags(tags TagSet) TagSet {
	latest, hasLatest := tags[LatestTag]

	out := make(TagSet, len(tags))
	for tag, version := range tags {
		if tag == LatestTag || !hasLatest || version != latest {
			out[tag] = version
		}
	}
	return out
}
