package models

import "time"

// Entry is a cache entry persisted by the SQLite storage backend.
type Entry struct {
	Key       string    `json:"key" gorm:"column:key;type:text;primaryKey"`
	Value     string    `json:"value" gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for Entry Model
func (Entry) TableName() string {
	return "cache_entries"
}
