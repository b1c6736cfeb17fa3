package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// PrerequisiteGraph is an adjacency list keyed by task id: task -> the tasks it depends on.
type PrerequisiteGraph map[int64][]int64

// NewPrerequisiteGraph indexes a flat edge list.
func NewPrerequisiteGraph(edges []Prerequisite) PrerequisiteGraph {
	g := make(PrerequisiteGraph)
	for _, e := range edges {
		g[e.TaskID] = append(g[e.TaskID], e.DependsOnTaskID)
	}
	return g
}

// CycleThrough returns the cycle that adding taskID -> targets would close,
// starting and ending at taskID, or nil when the new edges keep the graph acyclic.
func (g PrerequisiteGraph) CycleThrough(taskID int64, targets []int64) []int64 {
	for _, target := range targets {
		if target == taskID {
			return []int64{taskID, taskID}
		}
		if path := g.path(target, taskID); path != nil {
			return append([]int64{taskID}, path...)
		}
	}
	return nil
}

// path finds a route from -> to with a depth-first walk.
func (g PrerequisiteGraph) path(from, to int64) []int64 {
	visited := make(map[int64]bool)
	var route []int64

	var walk func(id int64) bool
	walk = func(id int64) bool {
		if id == to {
			route = append(route, id)
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		for _, next := range g[id] {
			if walk(next) {
				route = append(route, id)
				return true
			}
		}
		return false
	}

	if !walk(from) {
		return nil
	}
	slices.Reverse(route)
	return route
}

// CycleError is returned when new prerequisites would make the graph cyclic.
func CycleError(cycle []int64) *Error {
	parts := make([]string, len(cycle))
	for i, id := range cycle {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return NewError(ErrCodeConflict, fmt.Sprintf("prerequisites would create a cycle: %s", strings.Join(parts, " -> ")))
}
