// Package domain 定义领域模型和接口
package domain

import (
	"fmt"
)

// File 课程内容文件记录
// 一条记录对应课程中一个可下载的内容项（文件、描述文本、链接）
type File struct {
	// FileID 持久化后的记录 ID，0 表示尚未入库
	FileID int64
	// OldFileID 被本记录替代的旧记录 ID，0 表示没有
	OldFileID int64

	ModuleID              int64
	SectionName           string
	SectionID             int64
	ModuleName            string
	ModuleModname         string
	ContentFilepath       string
	ContentFilename       string
	ContentFileurl        string
	ContentFilesize       int64
	ContentTimemodified   int64
	ContentType           string
	ContentIsExternalFile bool

	// Hash 描述类内容的 sha1 摘要
	Hash string
	// TextContent 描述文本，仅在内存中使用，不入库
	TextContent string

	// SavedTo 本地保存路径
	SavedTo string
	// TimeStamp 下载或状态变化时间戳（秒）
	TimeStamp int64

	Modified bool
	Moved    bool
	Deleted  bool
	Notified bool

	// OldFile 本记录替代的旧记录，仅在一次同步内有效，不持有所有权
	OldFile *File
	// NewFile 替代本记录的新记录，仅在通知查询结果中设置
	NewFile *File
}

// Kind 返回内容类型对应的 ContentKind
func (f *File) Kind() ContentKind {
	return KindOf(f.ContentType)
}

// IsNew 判断是否为新增记录（没有任何变化标记）
func (f *File) IsNew() bool {
	return !f.Modified && !f.Moved && !f.Deleted
}

// Clone 返回去掉变化标记与链接的副本
func (f *File) Clone() *File {
	c := *f
	c.Modified = false
	c.Moved = false
	c.Deleted = false
	c.OldFile = nil
	c.NewFile = nil
	return &c
}

// String 调试输出
func (f *File) String() string {
	flags := ""
	switch {
	case f.Modified:
		flags = " modified"
	case f.Moved:
		flags = " moved"
	case f.Deleted:
		flags = " deleted"
	}
	return fmt.Sprintf("File(%d module=%d section=%q %s%s type=%s modname=%s%s)",
		f.FileID, f.ModuleID, f.SectionName, f.ContentFilepath, f.ContentFilename,
		f.ContentType, f.ModuleModname, flags)
}
