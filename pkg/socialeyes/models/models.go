package models

import "gorm.io/gorm"

// AllModels returns all models for migration.
// Parents come before the rows that reference them.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Group{},
		&GroupImage{},
		&Membership{},
		&Venue{},
		&Event{},
		&EventImage{},
		&Attendance{},
		&APIKey{},
	}
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
