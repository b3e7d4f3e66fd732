// Package dto Defines data transfer objects (course snapshot input and stored state output)
// Package dto 定义数据传输对象（课程快照输入与已存储状态输出）
package dto

import (
	"os"

	"github.com/haierkeys/course-sync/internal/domain"
	"github.com/haierkeys/course-sync/pkg/code"
	"github.com/haierkeys/course-sync/pkg/convert"
	"github.com/haierkeys/course-sync/pkg/util"
	"github.com/haierkeys/course-sync/pkg/validator"

	"github.com/bytedance/sonic"
)

// Snapshot current course state produced by the result builder
// Snapshot 结果构建器输出的当前课程状态
type Snapshot struct {
	Courses []*CourseSnapshot `json:"courses" validate:"dive,required"`
}

// CourseSnapshot 快照中的课程
type CourseSnapshot struct {
	ID       int64           `json:"id" validate:"gt=0"`
	Fullname string          `json:"fullname" validate:"required"`
	Files    []*FileSnapshot `json:"files" validate:"dive,required"`
}

// FileSnapshot 快照中的文件，字段与 domain.File 同名
type FileSnapshot struct {
	ModuleID              int64  `json:"module_id" validate:"gte=0"`
	SectionName           string `json:"section_name"`
	SectionID             int64  `json:"section_id" validate:"gte=0"`
	ModuleName            string `json:"module_name" validate:"required"`
	ModuleModname         string `json:"module_modname" validate:"required"`
	ContentFilepath       string `json:"content_filepath"`
	ContentFilename       string `json:"content_filename" validate:"required"`
	ContentFileurl        string `json:"content_fileurl"`
	ContentFilesize       int64  `json:"content_filesize" validate:"gte=0"`
	ContentTimemodified   int64  `json:"content_timemodified" validate:"gte=0"`
	ContentType           string `json:"content_type" validate:"required"`
	ContentIsExternalFile bool   `json:"content_isexternalfile"`
	Hash                  string `json:"hash"`
	TextContent           string `json:"text_content"`
}

// LoadSnapshot 读取并解析快照文件
func LoadSnapshot(path string, v *validator.Validator) ([]*domain.Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, code.ErrorSnapshotRead.Wrap(err)
	}
	return DecodeSnapshot(data, v)
}

// DecodeSnapshot 解析、校验快照并转换为课程记录
// v 为 nil 时跳过校验
func DecodeSnapshot(data []byte, v *validator.Validator) ([]*domain.Course, error) {
	var snap Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return nil, code.ErrorSnapshotInvalid.Wrap(err)
	}
	if v != nil {
		if err := v.Struct(&snap); err != nil {
			return nil, code.ErrorSnapshotInvalid.Wrap(err)
		}
	}
	return snap.ToDomain()
}

// ToDomain 转换为课程记录
func (s *Snapshot) ToDomain() ([]*domain.Course, error) {
	courses := make([]*domain.Course, 0, len(s.Courses))
	for _, cs := range s.Courses {
		// 未经校验解码时 null 条目直接判定为无效
		if cs == nil {
			return nil, code.ErrorSnapshotInvalid.WithDetails("null course entry")
		}
		c := &domain.Course{ID: cs.ID, Fullname: cs.Fullname}
		for _, fs := range cs.Files {
			if fs == nil {
				return nil, code.ErrorSnapshotInvalid.WithDetails("null file entry")
			}
			f := &domain.File{}
			if err := convert.StructAssign(fs, f); err != nil {
				return nil, code.ErrorSnapshotInvalid.Wrap(err)
			}
			normalize(f)
			c.Files = append(c.Files, f)
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func normalize(f *domain.File) {
	if f.ContentFilepath == "" {
		f.ContentFilepath = "/"
	}
	// 描述内容按文本摘要比较，快照未给出 hash 时由 text_content 计算
	if f.Hash == "" && f.TextContent != "" && f.Kind() == domain.KindDescription {
		f.Hash = util.EncodeSHA1(f.TextContent)
	}
}
