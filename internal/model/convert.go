package model

import (
	"github.com/haierkeys/course-sync/internal/domain"
	"github.com/haierkeys/course-sync/pkg/convert"
)

// FileToDomain 将数据库模型转换为领域模型
func FileToDomain(m *File) *domain.File {
	if m == nil {
		return nil
	}
	f := &domain.File{
		FileID:                m.FileID,
		ModuleID:              m.ModuleID,
		SectionName:           m.SectionName,
		SectionID:             m.SectionID,
		ModuleName:            m.ModuleName,
		ModuleModname:         m.ModuleModname,
		ContentFilepath:       m.ContentFilepath,
		ContentFilename:       m.ContentFilename,
		ContentFileurl:        m.ContentFileurl,
		ContentFilesize:       m.ContentFilesize,
		ContentTimemodified:   m.ContentTimemodified,
		ContentType:           m.ContentType,
		ContentIsExternalFile: convert.Int2Bool(m.ContentIsExternalFile),
		SavedTo:               m.SavedTo,
		TimeStamp:             m.TimeStamp,
		Modified:              convert.Int2Bool(m.Modified),
		Moved:                 convert.Int2Bool(m.Moved),
		Deleted:               convert.Int2Bool(m.Deleted),
		Notified:              convert.Int2Bool(m.Notified),
	}
	if m.OldFileID != nil {
		f.OldFileID = *m.OldFileID
	}
	if m.Hash != nil {
		f.Hash = *m.Hash
	}
	return f
}

// FileFromDomain 将领域模型转换为数据库模型
// 变化标记与 notified 由调用方按写入语义设置
func FileFromDomain(f *domain.File, courseID int64, courseFullname string) *File {
	if f == nil {
		return nil
	}
	m := &File{
		CourseID:              courseID,
		CourseFullname:        courseFullname,
		ModuleID:              f.ModuleID,
		SectionName:           f.SectionName,
		SectionID:             f.SectionID,
		ModuleName:            f.ModuleName,
		ContentFilepath:       f.ContentFilepath,
		ContentFilename:       f.ContentFilename,
		ContentFileurl:        f.ContentFileurl,
		ContentFilesize:       f.ContentFilesize,
		ContentTimemodified:   f.ContentTimemodified,
		ModuleModname:         f.ModuleModname,
		ContentType:           f.ContentType,
		ContentIsExternalFile: convert.Bool2Int(f.ContentIsExternalFile),
		SavedTo:               f.SavedTo,
		TimeStamp:             f.TimeStamp,
	}
	if f.Hash != "" {
		hash := f.Hash
		m.Hash = &hash
	}
	return m
}
