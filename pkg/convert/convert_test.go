package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolInt(t *testing.T) {
	assert.Equal(t, int64(1), Bool2Int(true))
	assert.Equal(t, int64(0), Bool2Int(false))
	assert.True(t, Int2Bool(1))
	assert.True(t, Int2Bool(-1))
	assert.False(t, Int2Bool(0))
}

func TestStructAssign(t *testing.T) {
	type src struct {
		ID    int64
		Name  string
		Items []string
	}
	type dst struct {
		ID    int64
		Name  string
		Items []string
		Extra bool
	}

	s := &src{ID: 7, Name: "n", Items: []string{"a"}}
	d := &dst{Extra: true}
	require.NoError(t, StructAssign(s, d))

	assert.Equal(t, int64(7), d.ID)
	assert.Equal(t, "n", d.Name)
	assert.True(t, d.Extra)

	s.Items[0] = "changed"
	assert.Equal(t, "a", d.Items[0])
}
