package snapshot

import "testing"

func TestFilterTags_KeepsLatest(t *testing.T) {
	tags := TagSet{"latest": "1.2.3"}
	got := FilterTags(tags)

	if got["latest"] != "1.2.3" {
		t.Errorf("expected latest to be kept, got %v", got)
	}
}

func TestFilterTags_DropsRedundantAliases(t *testing.T) {
	tags := TagSet{
		"latest": "1.2.3",
		"stable": "1.2.3",
		"next":   "2.0.0-beta.1",
	}
	got := FilterTags(tags)

	if _, ok := got["stable"]; ok {
		t.Error("expected stable (alias of latest) to be dropped")
	}
	if got["next"] != "2.0.0-beta.1" {
		t.Errorf("expected next to be kept, got %v", got)
	}
	if got["latest"] != "1.2.3" {
		t.Errorf("expected latest to be kept, got %v", got)
	}
}

func TestFilterTags_NoLatest_ReturnsUnchanged(t *testing.T) {
	tags := TagSet{
		"next": "2.0.0",
		"beta": "2.0.0",
	}
	got := FilterTags(tags)

	if len(got) != len(tags) {
		t.Fatalf("expected %d entries, got %d", len(tags), len(got))
	}
	for tag, version := range tags {
		if got[tag] != version {
			t.Errorf("expected %s=%s to survive, got %v", tag, version, got)
		}
	}
}

func TestFilterTags_Empty(t *testing.T) {
	if got := FilterTags(TagSet{}); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestFilterTags_NoSideEffects(t *testing.T) {
	tags := TagSet{"latest": "1.0.0", "stable": "1.0.0"}
	FilterTags(tags)

	if len(tags) != 2 {
		t.Errorf("input was mutated: %v", tags)
	}
}
