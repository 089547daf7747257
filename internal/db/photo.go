package db

import "gorm.io/gorm"

// Photo 定义页面相册中的单张照片，文件本体存放在外部资源库。
type Photo struct {
	gorm.Model
	PageID       uint   `gorm:"index;not null"`
	AssetID      string `gorm:"not null"`
	AssetURL     string `gorm:"not null"`
	Width        int
	Height       int
	DisplayOrder int `gorm:"default:0"`
}
