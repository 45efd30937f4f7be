package models

import (
	"github.com/krishkalaria12/snap-upload/upload"
	"gorm.io/gorm"
)

const (
	PhotoStatusPending   = "pending"
	PhotoStatusCompleted = "completed"
)

// PhotoUploads stores Photo.Image and its thumbnails; profiles come from Setup.
var PhotoUploads = upload.NewSet(upload.NewImageBehavior("image"))

type Photo struct {
	gorm.Model
	upload.Pending `gorm:"-" json:"-"`

	UserID   uint   `json:"user_id" gorm:"not null;index"`
	Filename string `json:"filename" gorm:"not null" validate:"max=255"`
	Image    string `json:"image" gorm:"size:500" validate:"required"`
	Status   string `json:"status" gorm:"not null;default:'pending'"`

	// Relationship
	User User `gorm:"foreignKey:UserID" json:"-" validate:"-"`
}

func (p *Photo) BeforeSave(tx *gorm.DB) error {
	return PhotoUploads.BeforeSave(tx, p)
}

func (p *Photo) AfterSave(tx *gorm.DB) error {
	return PhotoUploads.AfterSave(tx, p)
}

func (p *Photo) BeforeDelete(tx *gorm.DB) error {
	return PhotoUploads.BeforeDelete(tx, p)
}
