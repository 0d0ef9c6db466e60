package models

import "time"

// ProjectUserMapping makes a user a member of a project.
type ProjectUserMapping struct {
	ProjectID uint      `gorm:"primaryKey;autoIncrement:false" json:"projectId"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`

	// Relationships
	Project *Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	User    *User    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// ProjectTaskMapping places a task in a project. A task belongs to at most
// one project.
type ProjectTaskMapping struct {
	ProjectID uint      `gorm:"primaryKey;autoIncrement:false" json:"projectId"`
	TaskID    uint      `gorm:"primaryKey;autoIncrement:false;uniqueIndex" json:"taskId"`
	CreatedAt time.Time `json:"createdAt"`

	// Relationships
	Project *Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Task    *Task    `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// UserTaskMapping assigns a task to a user. A task has at most one assignee.
type UserTaskMapping struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	TaskID    uint      `gorm:"primaryKey;autoIncrement:false;uniqueIndex" json:"taskId"`
	CreatedAt time.Time `json:"createdAt"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Task *Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
