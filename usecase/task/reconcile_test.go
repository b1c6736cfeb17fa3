package task

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDiffPrerequisites(t *testing.T) {
	tests := []struct {
		name       string
		current    []int64
		desired    []int64
		wantInsert []int64
		wantDelete []int64
	}{
		{name: "swap one", current: []int64{2, 3}, desired: []int64{3, 4}, wantInsert: []int64{4}, wantDelete: []int64{2}},
		{name: "same set reordered", current: []int64{2, 3}, desired: []int64{3, 2}},
		{name: "clear all", current: []int64{2, 3}, desired: nil, wantDelete: []int64{2, 3}},
		{name: "from empty", current: nil, desired: []int64{5, 5, 0, 6}, wantInsert: []int64{5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toInsert, toDelete := diffPrerequisites(tt.current, tt.desired)
			assert.Equal(t, tt.wantInsert, toInsert)
			assert.Equal(t, tt.wantDelete, toDelete)
		})
	}
}

// Applying the diff to the current set always yields exactly the desired set.
func TestDiffPrerequisites_ConvergesProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		current := uniqueIDs(rapid.SliceOf(rapid.Int64Range(1, 12)).Draw(rt, "current"))
		desired := rapid.SliceOf(rapid.Int64Range(0, 12)).Draw(rt, "desired")

		toInsert, toDelete := diffPrerequisites(current, desired)

		result := slices.Clone(current)
		result = append(result, toInsert...)
		result = slices.DeleteFunc(result, func(id int64) bool { return slices.Contains(toDelete, id) })

		want := uniqueIDs(desired)
		slices.Sort(result)
		slices.Sort(want)
		if !slices.Equal(result, want) {
			rt.Fatalf("current=%v desired=%v -> %v, want %v", current, desired, result, want)
		}
		for _, id := range toInsert {
			if slices.Contains(current, id) {
				rt.Fatalf("inserting %d which is already stored", id)
			}
		}

		again, gone := diffPrerequisites(result, desired)
		if len(again) != 0 || len(gone) != 0 {
			rt.Fatalf("second pass not idempotent: insert=%v delete=%v", again, gone)
		}
	})
}
