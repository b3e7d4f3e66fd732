// Package util 提供通用工具函数
package util

import (
	"path/filepath"
	"strings"
)

var segmentReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_",
)

// SanitizePathSegment 将课程名、章节名等转换为可用作单级目录名的字符串
// 例如: SanitizePathSegment("Week 1: Intro/Basics") => "Week 1_ Intro_Basics"
func SanitizePathSegment(name string) string {
	s := strings.TrimSpace(segmentReplacer.Replace(name))
	s = strings.Trim(s, ".")
	if s == "" {
		return "_"
	}
	return s
}

// JoinContentPath 拼接保存路径，content_filepath 中的每一级都会被清理
// 例如: JoinContentPath("/data", "Algebra", "/slides/old/", "a.pdf") => "/data/Algebra/slides/old/a.pdf"
func JoinContentPath(root string, dirs ...string) string {
	parts := []string{root}
	for _, d := range dirs {
		for _, seg := range strings.Split(d, "/") {
			if seg == "" || seg == "." || seg == ".." {
				continue
			}
			parts = append(parts, SanitizePathSegment(seg))
		}
	}
	return filepath.Join(parts...)
}
