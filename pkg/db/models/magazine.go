package models

import "time"

// Magazine is a published issue shown in the archive.
type Magazine struct {
	ID              uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	PublishDateText string    `gorm:"column:publish_date_text;type:text;not null"`
	ThumbnailURL    string    `gorm:"column:thumbnail_url;type:text;not null"`
	TableOfContents string    `gorm:"column:table_of_contents;type:text;not null"`
	Visible         bool      `gorm:"column:visible;not null;default:false"`
	PublishDate     time.Time `gorm:"column:publish_date;not null"`
}

func (Magazine) TableName() string { return "magazines" }

// Page is the pre-rendered HTML of one magazine page.
type Page struct {
	MagazineIndex uint64 `gorm:"column:magazine_index;primaryKey"`
	PageNumber    int    `gorm:"column:page_number;primaryKey"`
	Content       string `gorm:"column:content;type:text;not null"`
}

func (Page) TableName() string { return "pages" }
