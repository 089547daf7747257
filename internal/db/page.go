package db

import "gorm.io/gorm"

// Page represents one tenant's customizable page, addressed by slug.
type Page struct {
	gorm.Model
	Slug            string `gorm:"uniqueIndex;not null"`
	Title           string
	Message         string `gorm:"type:text"`
	BackgroundColor string
	CredentialHash  string
	Theme           string
	FontStyle       string
	FontColor       string
	TitleColor      string
	FontSize        string `gorm:"default:medium"` // small, medium, large
	AspectRatio     string `gorm:"default:square"` // square, story
	GalleryTitle    string
	MusicURL        string
	LayoutOrder     string        // 逗号分隔的版块顺序，如 "message,gallery,timeline,music"
	Timeline        TimelineList  `gorm:"serializer:json"`
	Photos          []Photo       `gorm:"constraint:OnDelete:CASCADE"`
}

// TimelineEvent 是页面时间轴中的一条记录。
// ID 为生成的稳定标识，表单协议仍按排序后的位置寻址。
type TimelineEvent struct {
	ID    string `json:"id"`
	Date  string `json:"date"` // ISO-8601，按字典序比较
	Title string `json:"title"`
}

// TimelineList 以 JSON 序列化形式嵌入在 Page 行中。
type TimelineList []TimelineEvent
