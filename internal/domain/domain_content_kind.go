package domain

import "strings"

// 内容类型字符串
const (
	ContentTypeFile           = "file"
	ContentTypeDescription    = "description"
	ContentTypeDescriptionURL = "description-url"
	ContentTypeHTML           = "html"
	ContentTypeURL            = "url"
)

// ContentKind 内容类型的有限枚举
type ContentKind int

const (
	KindOther ContentKind = iota
	KindFile
	KindDescription
	KindDescriptionURL
	KindHTML
	KindURL
)

// Equality 判断两个同路径记录是否不同的方式
type Equality int

const (
	// EqualityGeneral (url 或 size 不同) 且 timemodified 不同
	EqualityGeneral Equality = iota
	// EqualityHash 只比较 sha1 摘要
	EqualityHash
	// EqualityURL 只比较 url
	EqualityURL
)

// KindPolicy 每种内容类型的比较与移动策略
type KindPolicy struct {
	Equality Equality
	// Moveable 是否参与移动检测
	Moveable bool
	// MatchModnamePrefix 类型匹配时 modname 前缀相同即可
	MatchModnamePrefix bool
}

var kindPolicies = map[ContentKind]KindPolicy{
	KindOther:          {Equality: EqualityGeneral, Moveable: true},
	KindFile:           {Equality: EqualityGeneral, Moveable: true},
	KindHTML:           {Equality: EqualityGeneral, Moveable: true},
	KindURL:            {Equality: EqualityGeneral, Moveable: true},
	KindDescription:    {Equality: EqualityHash, Moveable: false},
	KindDescriptionURL: {Equality: EqualityURL, Moveable: true, MatchModnamePrefix: true},
}

// KindOf 将内容类型字符串映射为 ContentKind，未知类型归为 KindOther
func KindOf(contentType string) ContentKind {
	switch contentType {
	case ContentTypeFile:
		return KindFile
	case ContentTypeDescription:
		return KindDescription
	case ContentTypeDescriptionURL:
		return KindDescriptionURL
	case ContentTypeHTML:
		return KindHTML
	case ContentTypeURL:
		return KindURL
	}
	return KindOther
}

// Policy 返回该类型的策略
func (k ContentKind) Policy() KindPolicy {
	return kindPolicies[k]
}

// ModuleFamily 模块类型族
type ModuleFamily int

const (
	FamilyDefault ModuleFamily = iota
	// FamilyForum 论坛类模块，远端不再返回的旧帖不视为删除
	FamilyForum
)

// FamilyPolicy 模块族策略
type FamilyPolicy struct {
	// SuppressOnDelete 从远端消失时不产生删除记录
	SuppressOnDelete bool
}

var familyPolicies = map[ModuleFamily]FamilyPolicy{
	FamilyDefault: {},
	FamilyForum:   {SuppressOnDelete: true},
}

// FamilyOf 根据 module_modname 判断模块族
// 兼容旧版本写入的粗粒度标签，如 "forum-xxx" 或 "index_mod-forum"
// "forumng" 等仅以 forum 开头的模块不属于论坛族
func FamilyOf(modname string) ModuleFamily {
	if modname == "forum" || strings.HasPrefix(modname, "forum-") || strings.HasSuffix(modname, "-forum") {
		return FamilyForum
	}
	return FamilyDefault
}

// Policy 返回该模块族的策略
func (m ModuleFamily) Policy() FamilyPolicy {
	return familyPolicies[m]
}

// SuppressDeletion 判断文件消失时是否忽略删除
func SuppressDeletion(f *File) bool {
	return FamilyOf(f.ModuleModname).Policy().SuppressOnDelete
}
