package domain

import "strings"

// SameType 判断两个文件类型是否相同
// content_type 与 module_modname 都相同；description-url 只要求 modname 一方是另一方的前缀
func SameType(a, b *File) bool {
	if a.ContentType == b.ContentType && a.ModuleModname == b.ModuleModname {
		return true
	}
	if a.ContentType != b.ContentType || !a.Kind().Policy().MatchModnamePrefix {
		return false
	}
	return strings.HasPrefix(a.ModuleModname, b.ModuleModname) ||
		strings.HasPrefix(b.ModuleModname, a.ModuleModname)
}

// SamePath 判断两个文件是否位于同一路径
func SamePath(a, b *File) bool {
	if a.ModuleID != b.ModuleID ||
		a.SectionName != b.SectionName ||
		a.ContentFilepath != b.ContentFilepath ||
		a.ContentFilename != b.ContentFilename {
		return false
	}
	if !SameType(a, b) {
		return false
	}
	// 同一模块下的多个描述以模块名区分
	if a.Kind() == KindDescription && a.ModuleName != b.ModuleName {
		return false
	}
	return true
}

// Different 判断同路径的两个文件内容是否不同
func Different(a, b *File) bool {
	switch a.Kind().Policy().Equality {
	case EqualityHash:
		return a.Hash != b.Hash
	case EqualityURL:
		return a.ContentFileurl != b.ContentFileurl
	default:
		changed := a.ContentFileurl != b.ContentFileurl || a.ContentFilesize != b.ContentFilesize
		return changed && a.ContentTimemodified != b.ContentTimemodified
	}
}

// WasMoved 判断 current 是否为 stored 移动后的结果
func WasMoved(stored, current *File) bool {
	if !stored.Kind().Policy().Moveable || !current.Kind().Policy().Moveable {
		return false
	}
	return !Different(stored, current) && SameType(stored, current) && !SamePath(stored, current)
}
