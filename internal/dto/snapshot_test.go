package dto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/haierkeys/course-sync/internal/domain"
	"github.com/haierkeys/course-sync/pkg/code"
	"github.com/haierkeys/course-sync/pkg/util"
	"github.com/haierkeys/course-sync/pkg/validator"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotJSON = `{
  "courses": [
    {
      "id": 5,
      "fullname": "Algebra",
      "files": [
        {
          "module_id": 11, "section_name": "Week 1", "section_id": 100,
          "module_name": "Lecture", "module_modname": "resource",
          "content_filepath": "/", "content_filename": "slides.pdf",
          "content_fileurl": "http://m/f1", "content_filesize": 1000,
          "content_timemodified": 100, "content_type": "file"
        },
        {
          "module_id": 12, "section_name": "Week 1", "module_name": "Intro",
          "module_modname": "label", "content_filename": "Intro",
          "content_type": "description", "text_content": "Welcome"
        }
      ]
    }
  ]
}`

func newValidator(t *testing.T) *validator.Validator {
	v, err := validator.New()
	require.NoError(t, err)
	return v
}

func TestDecodeSnapshot(t *testing.T) {
	courses, err := DecodeSnapshot([]byte(snapshotJSON), newValidator(t))
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, int64(5), courses[0].ID)
	require.Len(t, courses[0].Files, 2)

	slides := courses[0].Files[0]
	assert.Equal(t, int64(11), slides.ModuleID)
	assert.Equal(t, int64(100), slides.SectionID)
	assert.Equal(t, int64(1000), slides.ContentFilesize)
	assert.Empty(t, slides.Hash)
	assert.True(t, slides.IsNew())

	desc := courses[0].Files[1]
	assert.Equal(t, "/", desc.ContentFilepath)
	assert.Equal(t, util.EncodeSHA1("Welcome"), desc.Hash)
	assert.Equal(t, domain.KindDescription, desc.Kind())
}

func TestDecodeSnapshotRejectsInvalid(t *testing.T) {
	v := newValidator(t)

	_, err := DecodeSnapshot([]byte(`{"courses": [`), v)
	assert.ErrorIs(t, err, code.ErrorSnapshotInvalid)

	_, err = DecodeSnapshot([]byte(`{"courses":[{"id":0,"fullname":"x","files":[{"module_name":"m","module_modname":"resource","content_filename":"a"}]}]}`), v)
	require.ErrorIs(t, err, code.ErrorSnapshotInvalid)
	assert.Contains(t, err.Error(), "courses[0].id")
	assert.Contains(t, err.Error(), "courses[0].files[0].content_type")

	// null entries are rejected with or without a validator
	nullFile := `{"courses":[{"id":5,"fullname":"Algebra","files":[null]}]}`
	for _, data := range []string{`{"courses":[null]}`, nullFile} {
		_, err = DecodeSnapshot([]byte(data), v)
		assert.ErrorIs(t, err, code.ErrorSnapshotInvalid, data)
		_, err = DecodeSnapshot([]byte(data), nil)
		assert.ErrorIs(t, err, code.ErrorSnapshotInvalid, data)
	}

	// without a validator only the JSON shape matters
	courses, err := DecodeSnapshot([]byte(`{"courses":[{"id":0}]}`), nil)
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshotJSON), 0o644))

	courses, err := LoadSnapshot(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, domain.CountFiles(courses))

	_, err = LoadSnapshot(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.ErrorIs(t, err, code.ErrorSnapshotRead)
}

func TestMarshalCourses(t *testing.T) {
	old := &domain.File{FileID: 1, ContentFilename: "slides.pdf", Modified: true, SavedTo: "/data/slides.pdf"}
	old.NewFile = &domain.File{FileID: 2, OldFileID: 1, ContentFilename: "slides.pdf", Notified: true}
	old.OldFile = &domain.File{FileID: 99}

	data, err := MarshalCourses([]*domain.Course{{ID: 5, Fullname: "Algebra", Files: []*domain.File{old}}})
	require.NoError(t, err)

	var out []*CourseDTO
	require.NoError(t, sonic.Unmarshal(data, &out))
	require.Len(t, out, 1)
	require.Len(t, out[0].Files, 1)
	f := out[0].Files[0]
	assert.Equal(t, int64(1), f.FileID)
	assert.True(t, f.Modified)
	assert.Equal(t, "/data/slides.pdf", f.SavedTo)
	require.NotNil(t, f.NewFile)
	assert.Equal(t, int64(2), f.NewFile.FileID)
	assert.Equal(t, int64(1), f.NewFile.OldFileID)
	assert.Nil(t, f.NewFile.NewFile)
}
