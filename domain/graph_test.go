package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrerequisiteGraph_CycleThrough(t *testing.T) {
	g := NewPrerequisiteGraph([]Prerequisite{
		{TaskID: 2, DependsOnTaskID: 1},
		{TaskID: 3, DependsOnTaskID: 2},
		{TaskID: 4, DependsOnTaskID: 1},
	})

	tests := []struct {
		name    string
		task    int64
		targets []int64
		want    []int64
	}{
		{name: "closes a loop", task: 1, targets: []int64{3}, want: []int64{1, 3, 2, 1}},
		{name: "direct back edge", task: 1, targets: []int64{2}, want: []int64{1, 2, 1}},
		{name: "self edge", task: 5, targets: []int64{5}, want: []int64{5, 5}},
		{name: "diamond is fine", task: 3, targets: []int64{4}, want: nil},
		{name: "dangling target", task: 1, targets: []int64{99}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.CycleThrough(tt.task, tt.targets))
		})
	}
}

func TestCycleError(t *testing.T) {
	err := CycleError([]int64{1, 3, 2, 1})

	assert.True(t, IsDomainError(err, ErrCodeConflict))
	assert.Equal(t, "prerequisites would create a cycle: 1 -> 3 -> 2 -> 1", err.Error())
}
