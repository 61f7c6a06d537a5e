package utils

import (
	"strconv"
	"strings"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

// PositiveIntOr 非法或非正数时返回 def，用于分页等查询参数
func PositiveIntOr(s string, def int) int {
	if i := StringToInt(s); i > 0 {
		return i
	}
	return def
}
