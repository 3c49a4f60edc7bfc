package reconcile

import (
	"github.com/agentstation/leadsync/pkg/normalize"
)

// Field kinds with selectable options.
const (
	kindLabels   = "labels"
	kindDropDown = "drop_down"
)

// MergeTags returns existing followed by every derived tag not already
// present under normalized comparison, and the tags that were added.
// Existing tags are never removed or reordered.
func MergeTags(existing, derived []string) (merged, added []string) {
	seen := make(map[string]bool, len(existing)+len(derived))
	merged = append(merged, existing...)
	for _, t := range existing {
		seen[normalize.Text(t)] = true
	}
	for _, t := range derived {
		key := normalize.Text(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, t)
		added = append(added, t)
	}
	return merged, added
}

// mergeIDs returns the union of existing and resolved option ids, existing
// first, and whether anything new was added.
func mergeIDs(existing, resolved []string) ([]string, bool) {
	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing)+len(resolved))
	for _, id := range existing {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	changed := false
	for _, id := range resolved {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
			changed = true
		}
	}
	return merged, changed
}

// optionIDs reads the option ids held by a labels field value. The API
// returns either a list of ids or a list of option objects.
func optionIDs(v any) []string {
	var ids []string
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			switch o := item.(type) {
			case string:
				ids = append(ids, o)
			case map[string]any:
				if id, ok := o["id"].(string); ok {
					ids = append(ids, id)
				}
			}
		}
	case []string:
		ids = append(ids, x...)
	case string:
		if x != "" {
			ids = append(ids, x)
		}
	}
	return ids
}

// derivedTags returns the normalized product names plus the region.
func derivedTags(products []string, region string) []string {
	tags := make([]string, 0, len(products)+1)
	for _, p := range products {
		tags = append(tags, normalize.Text(p))
	}
	if r := normalize.Text(region); r != "" {
		tags = append(tags, r)
	}
	return normalize.Unique(tags)
}
