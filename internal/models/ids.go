package models

import "github.com/google/uuid"

// ensureID 在创建前补全字符串主键，已指定的 ID 保持不变
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
