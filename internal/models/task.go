package models

import "time"

type Task struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description"`
	Status      TaskStatus `gorm:"size:20;not null;default:TODO;index;check:chk_tasks_status,status IN ('TODO','IN_PROGRESS','IN_TESTING','COMPLETED','OVERDUE')" json:"status"`
	Priority    Priority   `gorm:"size:10;not null;default:MEDIUM;check:chk_tasks_priority,priority IN ('LOW','MEDIUM','HIGH')" json:"priority"`
	DueDate     *time.Time `gorm:"index" json:"dueDate"`
	CreatedBy   *uint      `gorm:"index" json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Relationships
	Creator *User `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}
