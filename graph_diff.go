package craft

import (
	"shanhu.io/misc/strutil"
)

// GraphDiff lists the operators that changed between two graphs.
type GraphDiff struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty tells if the diff is empty.
func (d *GraphDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

func diffDigests(old, cur map[string]string) *GraphDiff {
	added := make(map[string]bool)
	removed := make(map[string]bool)
	changed := make(map[string]bool)
	for id, d := range cur {
		oldDigest, ok := old[id]
		if !ok {
			added[id] = true
		} else if oldDigest != d {
			changed[id] = true
		}
	}
	for id := range old {
		if _, ok := cur[id]; !ok {
			removed[id] = true
		}
	}
	return &GraphDiff{
		Added:   strutil.SortedList(added),
		Removed: strutil.SortedList(removed),
		Changed: strutil.SortedList(changed),
	}
}

// DiffGraphs compares the operators of two graphs by their digests. A nil
// old graph is taken as empty.
func DiffGraphs(old, cur *Graph) (*GraphDiff, error) {
	oldDigests := make(map[string]string)
	if old != nil {
		m, err := Digests(old)
		if err != nil {
			return nil, err
		}
		oldDigests = m
	}
	curDigests, err := Digests(cur)
	if err != nil {
		return nil, err
	}
	return diffDigests(oldDigests, curDigests), nil
}
