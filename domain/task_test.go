package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "", want: "media", wantOK: true},
		{in: "low", want: "low", wantOK: true},
		{in: "Medium", want: "medium", wantOK: true},
		{in: "HIGH", want: "high", wantOK: true},
		{in: "baixa", want: "baixa", wantOK: true},
		{in: "Media", want: "media", wantOK: true},
		{in: "alta", want: "alta", wantOK: true},
		{in: "urgent", wantOK: false},
		{in: " ", wantOK: false},
		{in: " low", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizePriority(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "", want: "pending", wantOK: true},
		{in: "pending", want: "pending", wantOK: true},
		{in: "BLOCKED", want: "blocked", wantOK: true},
		{in: "completed", want: "completed", wantOK: true},
		{in: "pendente", want: "pending", wantOK: true},
		{in: "Bloqueada", want: "blocked", wantOK: true},
		{in: "concluida", want: "completed", wantOK: true},
		{in: "in_progress", want: "blocked", wantOK: true},
		{in: "EM_ANDAMENTO", want: "blocked", wantOK: true},
		{in: "invalid", wantOK: false},
		{in: "in progress", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeStatus(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// randomCase flips the case of each rune according to the drawn mask.
func randomCase(rt *rapid.T, s string) string {
	var b strings.Builder
	for _, r := range s {
		if rapid.Bool().Draw(rt, "upper") {
			b.WriteString(strings.ToUpper(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func TestNormalizeStatus_CaseInsensitiveProperty(t *testing.T) {
	keys := make([]string, 0, len(taskStatuses))
	for k := range taskStatuses {
		keys = append(keys, k)
	}
	rapid.Check(t, func(rt *rapid.T) {
		key := rapid.SampledFrom(keys).Draw(rt, "status")
		got, ok := NormalizeStatus(randomCase(rt, key))
		if !ok || got != taskStatuses[key] {
			rt.Fatalf("NormalizeStatus(%q) = %q, %v; want %q", key, got, ok, taskStatuses[key])
		}
	})
}

func TestNormalizePriority_CaseInsensitiveProperty(t *testing.T) {
	keys := make([]string, 0, len(taskPriorities))
	for k := range taskPriorities {
		keys = append(keys, k)
	}
	rapid.Check(t, func(rt *rapid.T) {
		key := rapid.SampledFrom(keys).Draw(rt, "priority")
		got, ok := NormalizePriority(randomCase(rt, key))
		if !ok || got != key {
			rt.Fatalf("NormalizePriority(%q) = %q, %v", key, got, ok)
		}
	})
}

func TestNormalize_UnknownValuesRejectedProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		value := rapid.StringMatching(`[a-z_ ]{1,14}`).Draw(rt, "value")
		if _, known := taskStatuses[strings.ToLower(value)]; !known {
			if _, ok := NormalizeStatus(value); ok {
				rt.Fatalf("status %q accepted", value)
			}
		}
		if _, known := taskPriorities[strings.ToLower(value)]; !known {
			if _, ok := NormalizePriority(value); ok {
				rt.Fatalf("priority %q accepted", value)
			}
		}
	})
}

func TestTaskReopen(t *testing.T) {
	task := &Task{Status: TaskStatusCompleted}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	task.Reopen(at)

	assert.Equal(t, TaskStatusPending, task.Status)
	if assert.NotNil(t, task.ReopenedAt) {
		assert.Equal(t, at, *task.ReopenedAt)
	}
}

func TestTaskPatch_Empty(t *testing.T) {
	assert.True(t, TaskPatch{}.IsEmpty())
	assert.False(t, TaskPatch{Prerequisites: ClearField[[]int64]()}.IsEmpty())
	assert.False(t, TaskPatch{Prerequisites: SetField([]int64{})}.HasFieldChanges())
	assert.True(t, TaskPatch{PhotoRequired: SetField(false)}.HasFieldChanges())
}
