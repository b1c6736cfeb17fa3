package enclosure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/repository/memory"
)

func TestCreateAndList(t *testing.T) {
	store := memory.NewZooStore()
	uc := New(store.Enclosures(), nil)
	ctx := context.Background()

	empty, err := uc.ListEnclosures(ctx, "org-1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	created, err := uc.CreateEnclosure(ctx, "org-1", "  Savana ", "Leão")
	require.NoError(t, err)
	assert.Equal(t, "Savana", created.Name)
	assert.Zero(t, created.AnimalCount)

	_, err = uc.CreateEnclosure(ctx, "org-2", "Aviário", "")
	require.NoError(t, err)

	list, err := uc.ListEnclosures(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestCreate_RequiresName(t *testing.T) {
	uc := New(memory.NewZooStore().Enclosures(), nil)
	_, err := uc.CreateEnclosure(context.Background(), "org-1", "   ", "Leão")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}
