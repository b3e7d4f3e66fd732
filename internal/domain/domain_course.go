package domain

// Course 课程及其文件集合
type Course struct {
	ID       int64
	Fullname string
	Files    []*File

	// OverwriteNameWith 覆盖显示名称
	OverwriteNameWith string
	// CreateDirectoryStructure 是否按章节建立目录
	CreateDirectoryStructure bool
	// ExcludedSections 不同步的章节 ID
	ExcludedSections []int64
}

// DisplayName 返回用于展示与保存目录的课程名称
func (c *Course) DisplayName() string {
	if c.OverwriteNameWith != "" {
		return c.OverwriteNameWith
	}
	return c.Fullname
}

// IsSectionExcluded 判断章节是否被排除
func (c *Course) IsSectionExcluded(sectionID int64) bool {
	for _, id := range c.ExcludedSections {
		if id == sectionID {
			return true
		}
	}
	return false
}

// FindCourse 在列表中按 ID 查找课程（首个匹配）
func FindCourse(courses []*Course, id int64) *Course {
	for _, c := range courses {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// CountFiles 统计课程列表中的文件总数
func CountFiles(courses []*Course) int {
	n := 0
	for _, c := range courses {
		n += len(c.Files)
	}
	return n
}
