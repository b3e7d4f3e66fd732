// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import (
	"github.com/haierkeys/course-sync/internal/domain"
	"github.com/haierkeys/course-sync/pkg/util"
)

// SyncConfig sync pipeline configuration, already resolved by the app layer
// SyncConfig 同步流程配置，由 app 层解析完成后传入
type SyncConfig struct {
	// DownloadCourseIDs only these courses are synced when not empty // 非空时只同步这些课程
	DownloadCourseIDs []int64
	// DontDownloadCourseIDs courses never synced // 不同步的课程
	DontDownloadCourseIDs []int64
	// Courses per-course overlay options // 课程级覆盖选项
	Courses []CourseConfig
}

// CourseConfig per-course overlay options
// CourseConfig 课程级覆盖选项
type CourseConfig struct {
	ID                       int64
	OverwriteNameWith        string
	CreateDirectoryStructure bool
	ExcludedSections         []int64
}

// ShouldSync 判断课程是否参与同步
func (c SyncConfig) ShouldSync(courseID int64) bool {
	if len(c.DownloadCourseIDs) > 0 {
		return util.InSlice(c.DownloadCourseIDs, courseID)
	}
	return !util.InSlice(c.DontDownloadCourseIDs, courseID)
}

// options 返回课程的覆盖选项，首个匹配
func (c SyncConfig) options(courseID int64) (CourseConfig, bool) {
	for _, o := range c.Courses {
		if o.ID == courseID {
			return o, true
		}
	}
	return CourseConfig{}, false
}

// Prepare 过滤不同步的课程，应用覆盖选项并去掉被排除章节中的文件
// 返回新的课程列表，文件记录本身不复制
func (c SyncConfig) Prepare(courses []*domain.Course) []*domain.Course {
	out := make([]*domain.Course, 0, len(courses))
	for _, course := range courses {
		if !c.ShouldSync(course.ID) {
			continue
		}
		prepared := &domain.Course{
			ID:                       course.ID,
			Fullname:                 course.Fullname,
			OverwriteNameWith:        course.OverwriteNameWith,
			CreateDirectoryStructure: course.CreateDirectoryStructure,
			ExcludedSections:         course.ExcludedSections,
		}
		if o, ok := c.options(course.ID); ok {
			prepared.OverwriteNameWith = o.OverwriteNameWith
			prepared.CreateDirectoryStructure = o.CreateDirectoryStructure
			prepared.ExcludedSections = o.ExcludedSections
		}
		for _, f := range course.Files {
			if prepared.IsSectionExcluded(f.SectionID) {
				continue
			}
			prepared.Files = append(prepared.Files, f)
		}
		out = append(out, prepared)
	}
	return out
}

// FilterStored 只保留参与同步的已存储课程，并去掉被排除章节中的记录
// 不同步的课程与被排除的章节不能出现在比较的任何一侧，否则其文件都会被判定为删除
func (c SyncConfig) FilterStored(courses []*domain.Course) []*domain.Course {
	out := make([]*domain.Course, 0, len(courses))
	for _, course := range courses {
		if !c.ShouldSync(course.ID) {
			continue
		}
		o, ok := c.options(course.ID)
		if !ok || len(o.ExcludedSections) == 0 {
			out = append(out, course)
			continue
		}
		kept := *course
		kept.Files = nil
		for _, f := range course.Files {
			if !util.InSlice(o.ExcludedSections, f.SectionID) {
				kept.Files = append(kept.Files, f)
			}
		}
		out = append(out, &kept)
	}
	return out
}
