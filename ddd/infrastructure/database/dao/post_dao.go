package dao

import (
	"context"

	"gorm.io/gorm"

	"derivative-service/ddd/infrastructure/database/po"
	"derivative-service/pkg/logger"
)

// PostDAO 帖子元数据访问对象
type PostDAO struct {
	db    *gorm.DB
	table string
}

// NewPostDAO table 为空时使用 po.Post 的默认表名
func NewPostDAO(db *gorm.DB, table string) *PostDAO {
	if table == "" {
		table = po.Post{}.TableName()
	}
	return &PostDAO{db: db, table: table}
}

// UpdateFields 按主键更新指定列，返回受影响行数
func (d *PostDAO) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	result := d.db.WithContext(ctx).
		Table(d.table).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		logger.Errorf("Error updating post derivatives id=%s error=%v", id, result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Exists 按主键判断记录是否存在
func (d *PostDAO) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Table(d.table).Where("id = ?", id).Count(&count).Error; err != nil {
		logger.Errorf("Error counting post id=%s error=%v", id, err)
		return false, err
	}
	return count > 0, nil
}
