package po

import "time"

// 衍生物字段列名
const (
	ColumnPreviewURL       = "preview_url"
	ColumnThumbnailURL     = "thumbnail_url"
	ColumnHLSURL           = "hls_url"
	ColumnPreviewGenerated = "preview_generated"
	ColumnUpdatedAt        = "updated_at"
)

// Post 帖子元数据记录，只映射本服务会写入的列
type Post struct {
	ID               string    `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	PreviewURL       *string   `gorm:"column:preview_url;type:varchar(1024)" json:"preview_url,omitempty"`
	ThumbnailURL     *string   `gorm:"column:thumbnail_url;type:varchar(1024)" json:"thumbnail_url,omitempty"`
	HLSURL           *string   `gorm:"column:hls_url;type:varchar(1024)" json:"hls_url,omitempty"`
	PreviewGenerated bool      `gorm:"column:preview_generated;default:false" json:"preview_generated"`
	UpdatedAt        time.Time `gorm:"column:updated_at;type:timestamp" json:"updated_at"`
}

// TableName 指定表名
func (Post) TableName() string {
	return "posts"
}
