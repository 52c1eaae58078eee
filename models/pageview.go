package models

import "time"

// PageView aggregates successful reads of one target per UTC day.
type PageView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Day       time.Time `gorm:"uniqueIndex:idx_pv_day_target;type:date;not null" json:"day"`
	TargetKey string    `gorm:"uniqueIndex:idx_pv_day_target;index;size:192;not null" json:"target_key"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ViewDay truncates t to the UTC calendar day stored in PageView.Day.
func ViewDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
