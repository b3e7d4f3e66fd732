package dto

import (
	"github.com/haierkeys/course-sync/internal/domain"
	"github.com/haierkeys/course-sync/pkg/convert"

	"github.com/bytedance/sonic"
)

// FileDTO 已存储文件的输出结构
type FileDTO struct {
	FileID              int64    `json:"fileId"`
	OldFileID           int64    `json:"oldFileId,omitempty"`
	ModuleID            int64    `json:"moduleId"`
	SectionName         string   `json:"sectionName"`
	ModuleName          string   `json:"moduleName"`
	ModuleModname       string   `json:"moduleModname"`
	ContentFilepath     string   `json:"contentFilepath"`
	ContentFilename     string   `json:"contentFilename"`
	ContentFileurl      string   `json:"contentFileurl,omitempty"`
	ContentFilesize     int64    `json:"contentFilesize"`
	ContentTimemodified int64    `json:"contentTimemodified"`
	ContentType         string   `json:"contentType"`
	SavedTo             string   `json:"savedTo"`
	TimeStamp           int64    `json:"timeStamp"`
	Modified            bool     `json:"modified,omitempty"`
	Moved               bool     `json:"moved,omitempty"`
	Deleted             bool     `json:"deleted,omitempty"`
	Notified            bool     `json:"notified"`
	NewFile             *FileDTO `json:"newFile,omitempty"`
}

// CourseDTO 课程输出结构
type CourseDTO struct {
	ID       int64      `json:"id"`
	Fullname string     `json:"fullname"`
	Files    []*FileDTO `json:"files"`
}

// CoursesToDTO 转换课程记录，NewFile 只展开一层
func CoursesToDTO(courses []*domain.Course) ([]*CourseDTO, error) {
	out := make([]*CourseDTO, 0, len(courses))
	for _, c := range courses {
		cd := &CourseDTO{ID: c.ID, Fullname: c.Fullname, Files: make([]*FileDTO, 0, len(c.Files))}
		for _, f := range c.Files {
			fd, err := fileToDTO(f)
			if err != nil {
				return nil, err
			}
			if f.NewFile != nil {
				if fd.NewFile, err = fileToDTO(f.NewFile); err != nil {
					return nil, err
				}
			}
			cd.Files = append(cd.Files, fd)
		}
		out = append(out, cd)
	}
	return out, nil
}

func fileToDTO(f *domain.File) (*FileDTO, error) {
	fd := &FileDTO{}
	// NewFile 与 OldFile 不参与复制
	plain := *f
	plain.OldFile, plain.NewFile = nil, nil
	if err := convert.StructAssign(&plain, fd); err != nil {
		return nil, err
	}
	return fd, nil
}

// MarshalCourses 以缩进 JSON 输出课程记录
func MarshalCourses(courses []*domain.Course) ([]byte, error) {
	dtos, err := CoursesToDTO(courses)
	if err != nil {
		return nil, err
	}
	return sonic.ConfigStd.MarshalIndent(dtos, "", "  ")
}
