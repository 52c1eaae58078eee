package models

import "gorm.io/gorm"

// InitTables migrates every table the application owns.
func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Post{}, &Comment{}, &PageView{})
}
