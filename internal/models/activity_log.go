package models

import "time"

// ActivityLog is an append-only audit row. Rows are only ever inserted, and
// disappear only together with their task.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"not null;index" json:"taskId"`
	UserID    *uint     `gorm:"index" json:"userId"`
	Action    string    `gorm:"size:255;not null" json:"action"`
	CreatedAt time.Time `json:"createdAt"`

	// Relationships
	Task *Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}
