// Package rank holds the pure list transformations behind manual ordering:
// draft/published dedupe, moves, full rank reassignment and patch building.
// Every function returns a new slice and leaves its input untouched, except
// the no-op cases which hand back the input as is.
package rank

import (
	"fmt"
	"slices"
	"sort"

	v1 "github.com/byxorna/orderpane/pkg/types/v1"
)

const (
	Prefix   = "r"
	PadWidth = 8
)

// Sequential returns the rank for position index. Ranks compare correctly as
// plain strings for any list shorter than 10^PadWidth.
func Sequential(index int) string {
	return fmt.Sprintf("%s%0*d", Prefix, PadWidth, index)
}

// Less orders by rank, then id. Unranked records compare as "".
func Less(a, b v1.Record) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	return a.ID < b.ID
}

// DedupeAndSort keeps one effective record per base id. A draft shadows its
// published counterpart and is marked HasPublished.
func DedupeAndSort(records []v1.Record) []v1.Record {
	byBase := make(map[string]int, len(records))
	out := make([]v1.Record, 0, len(records))

	for _, r := range records {
		base := r.BaseID()
		i, ok := byBase[base]
		if !ok {
			byBase[base] = len(out)
			out = append(out, r)
			continue
		}

		existing := out[i]
		switch {
		case r.IsDraft() && !existing.IsDraft():
			r.HasPublished = true
			out[i] = r
		case existing.IsDraft() && !r.IsDraft():
			existing.HasPublished = true
			out[i] = existing
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// IndexOf returns the position of id, or -1.
func IndexOf(records []v1.Record, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

// MoveByOffset shifts id by offset positions. Unknown ids and moves past
// either end return the input unchanged.
func MoveByOffset(records []v1.Record, id string, offset int) []v1.Record {
	from := IndexOf(records, id)
	if from < 0 {
		return records
	}
	to := from + offset
	if to < 0 || to >= len(records) {
		return records
	}
	if to == from {
		return records
	}
	return move(records, from, to)
}

// MoveToIndex relocates the record at from to position to. Out of range
// indexes and from == to return the input unchanged.
func MoveToIndex(records []v1.Record, from, to int) []v1.Record {
	if from < 0 || to < 0 || from >= len(records) || to >= len(records) || from == to {
		return records
	}
	return move(records, from, to)
}

func move(records []v1.Record, from, to int) []v1.Record {
	moved := records[from]
	next := slices.Delete(slices.Clone(records), from, from+1)
	return slices.Insert(next, to, moved)
}

// ReassignRanks gives every record a fresh sequential rank in list order.
func ReassignRanks(records []v1.Record) []v1.Record {
	out := make([]v1.Record, len(records))
	for i, r := range records {
		r.Rank = Sequential(i)
		out[i] = r
	}
	return out
}

// BuildPatches emits one rank patch per ranked record, plus a mirror patch
// on the published id for drafts that shadow a published document.
func BuildPatches(records []v1.Record) []v1.Patch {
	patches := []v1.Patch{}
	for _, r := range records {
		if !r.Ranked() {
			continue
		}
		patches = append(patches, setRank(r.ID, r.Rank))
		if r.HasPublished && r.IsDraft() {
			patches = append(patches, setRank(r.BaseID(), r.Rank))
		}
	}
	return patches
}

// Changed reports whether the two lists differ in order or ranks.
func Changed(a, b []v1.Record) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Rank != b[i].Rank {
			return true
		}
	}
	return false
}

func setRank(id, value string) v1.Patch {
	return v1.Patch{TargetID: id, Set: map[string]string{v1.RankField: value}}
}
