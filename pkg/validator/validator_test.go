package validator

import (
	"errors"
	"testing"

	"github.com/haierkeys/course-sync/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name" validate:"required"`
}

type box struct {
	ID    int64   `json:"id" validate:"gt=0"`
	Items []*item `json:"items" validate:"dive"`
}

func TestStruct(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	assert.NoError(t, v.Struct(&box{ID: 1, Items: []*item{{Name: "a"}}}))

	err = v.Struct(&box{ID: 0, Items: []*item{{Name: "a"}, {}}})
	var verrs ValidErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	assert.Equal(t, "id", verrs[0].Key)
	assert.Equal(t, "items[1].name", verrs[1].Key)
	assert.Contains(t, verrs[1].Message, "name")
}

func TestStructTranslatesToChinese(t *testing.T) {
	require.NoError(t, code.SetGlobalDefaultLang("zh_cn"))
	t.Cleanup(func() { _ = code.SetGlobalDefaultLang(code.FALLBACK_LNG) })

	v, err := New()
	require.NoError(t, err)

	err = v.Struct(&item{})
	var verrs ValidErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs[0].Message, "必填")
}
