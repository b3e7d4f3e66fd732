package convert

import (
	"github.com/jinzhu/copier"
)

// StructAssign copies same-named fields from src into dst
// StructAssign 把 src 与 dst 的相同字段名的值复制到 dst 中
// dst 目标结构体指针，src 源结构体
func StructAssign(src any, dst any) error {
	return copier.CopyWithOption(dst, src, copier.Option{IgnoreEmpty: false, DeepCopy: true})
}
