package code

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDetailsKeepsIdentity(t *testing.T) {
	err := ErrorDBQuery.WithDetails("no such table: files")

	assert.True(t, errors.Is(err, ErrorDBQuery))
	assert.False(t, errors.Is(err, ErrorDBWrite))
	assert.Empty(t, ErrorDBQuery.Details(), "registered error is not modified")
	assert.Equal(t, "State store query failed: no such table: files", err.Error())
}

func TestWrapUnwraps(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := ErrorDBWrite.Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrorDBWrite)
	assert.Equal(t, 1003, err.Code())
}

func TestLanguage(t *testing.T) {
	t.Cleanup(func() { _ = SetGlobalDefaultLang(FALLBACK_LNG) })

	assert.NoError(t, SetGlobalDefaultLang("zh_cn"))
	assert.Equal(t, "下载失败", ErrorDownloadFailed.Msg())

	assert.Error(t, SetGlobalDefaultLang("fr"))
	assert.Equal(t, FALLBACK_LNG, GetGlobalDefaultLang())
	assert.Equal(t, "Download failed", ErrorDownloadFailed.Msg())
}

func TestDuplicateCodePanics(t *testing.T) {
	assert.Panics(t, func() { NewError(1001, lang{en: "dup"}) })
}
