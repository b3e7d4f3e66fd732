package convert

// Bool2Int converts a boolean to an integer
// Bool2Int 将布尔值转换为整数
// b: boolean value // 布尔值
// return: 1 if true, 0 if false // 返回值: true 返回 1，false 返回 0
func Bool2Int(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Int2Bool treats any non-zero column value as true
// Int2Bool 将非零整数视为 true
func Int2Bool(i int64) bool {
	return i != 0
}
