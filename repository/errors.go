package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// 通用的存储库错误
var (
	// ErrNotFound 表示请求的记录未找到
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateKey 表示插入违反了唯一约束
	ErrDuplicateKey = errors.New("repository: duplicate key")
)

// IsDuplicateKey 判断错误是否为唯一约束冲突。
// 唯一索引是并发写入的最终权威，服务层据此把冲突翻译成领域结果
// 而不是向上抛内部错误。
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// TranslateError 没覆盖到的路径上直接检查 MySQL 错误码
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	return false
}
