package service

import (
	"errors"

	"examcell_backend/internal/util"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// pageBounds 页码从 1 开始，非法值回退到默认值
func pageBounds(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return page, limit, (page - 1) * limit
}

// translateError 把数据库错误映射为业务错误，notFound 为记录不存在时返回的错误
func translateError(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return util.ErrDuplicateRecord
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return util.ErrRecordInUse
	}
	return err
}
