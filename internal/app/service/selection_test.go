package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_ToggleUpToLimit(t *testing.T) {
	var sel Selection
	var err error

	for id := uint(1); id <= 5; id++ {
		sel, err = sel.Toggle(id)
		require.NoError(t, err)
	}

	next, err := sel.Toggle(6)
	assert.ErrorIs(t, err, ErrSelectionFull)
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, next.IDs())
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, sel.IDs())
}

func TestSelection_Toggle(t *testing.T) {
	sel, err := NewSelection(1, 2, 3)
	require.NoError(t, err)

	removed, err := sel.Toggle(2)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 3}, removed.IDs())
	assert.Equal(t, []uint{1, 2, 3}, sel.IDs(), "toggle must not modify the receiver")

	readded, err := removed.Toggle(2)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 3, 2}, readded.IDs(), "re-added ids go to the end")

	// removing from a full selection is always allowed
	full, err := NewSelection(1, 2, 3, 4, 5)
	require.NoError(t, err)
	afterRemove, err := full.Toggle(5)
	require.NoError(t, err)
	assert.Equal(t, 4, afterRemove.Len())
}

func TestNewSelection(t *testing.T) {
	sel, err := NewSelection(3, 1, 3, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1, 2}, sel.IDs())
	assert.True(t, sel.Contains(2))
	assert.False(t, sel.Contains(4))

	_, err = NewSelection(1, 2, 3, 4, 5, 6)
	assert.ErrorIs(t, err, ErrSelectionFull)

	assert.Equal(t, 0, sel.Clear().Len())
	assert.Equal(t, 3, sel.Len())
}

func TestSelection_IDsReturnsCopy(t *testing.T) {
	sel, err := NewSelection(1, 2)
	require.NoError(t, err)

	ids := sel.IDs()
	ids[0] = 99
	assert.Equal(t, []uint{1, 2}, sel.IDs())
}

func TestSelection_JSON(t *testing.T) {
	data, err := json.Marshal(Selection{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	sel, err := NewSelection(4, 2)
	require.NoError(t, err)
	data, err = json.Marshal(sel)
	require.NoError(t, err)
	assert.JSONEq(t, `[4,2]`, string(data))

	var decoded Selection
	require.NoError(t, json.Unmarshal([]byte(`[7,7,8]`), &decoded))
	assert.Equal(t, []uint{7, 8}, decoded.IDs())

	assert.Error(t, json.Unmarshal([]byte(`[1,2,3,4,5,6]`), &decoded))
}
