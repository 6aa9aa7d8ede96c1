package model

import "time"

// Library is the metadata row for one imported CSV library. The raw CSV lives
// in object storage under ObjectKey; the built tree is cached in redis and
// rebuilt from the raw bytes on cache miss.
type Library struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	UserID      int64     `json:"userId" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	ObjectKey   string    `json:"-" gorm:"size:512;not null"` // MinIO object key, not exposed in API
	TrackCount  int       `json:"trackCount"`
	ArtistCount int       `json:"artistCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName sets the GORM table name.
func (Library) TableName() string {
	return "libraries"
}
