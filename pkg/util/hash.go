package util

import (
	"crypto/sha1"
	"encoding/hex"
)

// EncodeSHA1 returns the lowercase hex SHA-1 digest of str
// EncodeSHA1 返回 str 的 SHA-1 十六进制摘要（小写）
func EncodeSHA1(str string) string {
	h := sha1.New()
	h.Write([]byte(str))
	return hex.EncodeToString(h.Sum(nil))
}
