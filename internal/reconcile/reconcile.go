// Package reconcile compares the stored course state with a freshly built one
// and classifies every file as new, modified, moved or deleted.
package reconcile

import (
	"github.com/haierkeys/course-sync/internal/domain"
)

// Summary counts emitted records per change kind.
type Summary struct {
	New      int
	Modified int
	Moved    int
	Deleted  int
}

// Total number of emitted records.
func (s Summary) Total() int {
	return s.New + s.Modified + s.Moved + s.Deleted
}

// Summarize counts the records of a Changes result.
func Summarize(changes []*domain.Course) Summary {
	var s Summary
	for _, c := range changes {
		for _, f := range c.Files {
			switch {
			case f.Modified:
				s.Modified++
			case f.Moved:
				s.Moved++
			case f.Deleted:
				s.Deleted++
			default:
				s.New++
			}
		}
	}
	return s
}

// Changes returns the change set between stored and current.
//
// Emitted records are copies; inputs are never mutated. Modified and moved
// records carry OldFile pointing at the caller's stored record. Matching is
// first-match in iteration order. When several stored files share a path
// identity only the first one is paired, which is a known limitation kept for
// compatibility with existing stores.
func Changes(stored, current []*domain.Course) []*domain.Course {
	var changed []*domain.Course

	// Pass A: every stored file is either unchanged, modified, moved or deleted.
	for _, sc := range stored {
		cc := domain.FindCourse(current, sc.ID)
		if cc == nil {
			if files := deletedFiles(sc.Files); len(files) > 0 {
				changed = appendCourse(changed, sc, files)
			}
			continue
		}

		var files []*domain.File
		for _, sf := range sc.Files {
			if f := classifyStored(sf, cc.Files); f != nil {
				files = append(files, f)
			}
		}
		if len(files) > 0 {
			changed = appendCourse(changed, cc, files)
		}
	}

	// Pass B: current files without a stored counterpart are new.
	for _, cc := range current {
		sc := domain.FindCourse(stored, cc.ID)
		if sc == nil {
			files := make([]*domain.File, 0, len(cc.Files))
			for _, f := range cc.Files {
				files = append(files, f.Clone())
			}
			if len(files) > 0 {
				changed = appendCourse(changed, cc, files)
			}
			continue
		}

		var files []*domain.File
		for _, cf := range cc.Files {
			if !hasCounterpart(cf, sc.Files) {
				files = append(files, cf.Clone())
			}
		}
		if len(files) > 0 {
			changed = appendCourse(changed, cc, files)
		}
	}

	return changed
}

// classifyStored returns the change record for one stored file or nil when
// it is unchanged or its deletion is suppressed.
func classifyStored(sf *domain.File, current []*domain.File) *domain.File {
	for _, cf := range current {
		if !domain.SamePath(sf, cf) {
			continue
		}
		if !domain.Different(sf, cf) {
			return nil
		}
		f := cf.Clone()
		f.Modified = true
		f.OldFile = sf
		return f
	}

	for _, cf := range current {
		if domain.WasMoved(sf, cf) {
			f := cf.Clone()
			f.Moved = true
			f.OldFile = sf
			return f
		}
	}

	if domain.SuppressDeletion(sf) {
		return nil
	}
	return markDeleted(sf)
}

func hasCounterpart(cf *domain.File, stored []*domain.File) bool {
	for _, sf := range stored {
		if domain.SamePath(sf, cf) || domain.WasMoved(sf, cf) {
			return true
		}
	}
	return false
}

func deletedFiles(stored []*domain.File) []*domain.File {
	var files []*domain.File
	for _, sf := range stored {
		if domain.SuppressDeletion(sf) {
			continue
		}
		files = append(files, markDeleted(sf))
	}
	return files
}

func markDeleted(sf *domain.File) *domain.File {
	f := sf.Clone()
	f.Deleted = true
	f.Notified = false
	return f
}

// appendCourse merges files into an already emitted course with the same id
// or appends a new course entry built from src.
func appendCourse(changed []*domain.Course, src *domain.Course, files []*domain.File) []*domain.Course {
	if c := domain.FindCourse(changed, src.ID); c != nil {
		c.Files = append(c.Files, files...)
		return changed
	}
	return append(changed, &domain.Course{
		ID:                       src.ID,
		Fullname:                 src.Fullname,
		Files:                    files,
		OverwriteNameWith:        src.OverwriteNameWith,
		CreateDirectoryStructure: src.CreateDirectoryStructure,
		ExcludedSections:         src.ExcludedSections,
	})
}
