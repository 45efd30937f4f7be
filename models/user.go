package models

import (
	"github.com/krishkalaria12/snap-upload/upload"
	"gorm.io/gorm"
)

var UserUploads = upload.NewSet(upload.NewImageBehavior("avatar"))

type User struct {
	gorm.Model
	upload.Pending `gorm:"-" json:"-"`

	Email    string `json:"email" gorm:"uniqueIndex;not null" validate:"required,email"`
	Username string `json:"username" gorm:"uniqueIndex;not null" validate:"required,min=3,max=50"`
	FullName string `json:"name" validate:"max=120"`
	Password string `json:"password" gorm:"not null"`
	Avatar   string `json:"avatar" gorm:"size:500"`
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	return UserUploads.BeforeSave(tx, u)
}

func (u *User) AfterSave(tx *gorm.DB) error {
	return UserUploads.AfterSave(tx, u)
}

func (u *User) BeforeDelete(tx *gorm.DB) error {
	return UserUploads.BeforeDelete(tx, u)
}
