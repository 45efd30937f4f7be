package models

import (
	"github.com/krishkalaria12/snap-upload/upload"
	"gorm.io/gorm"
)

var DocumentUploads = upload.NewSet(&upload.FileBehavior{
	Attribute: "file",
	FileName:  "{id}-{title}",
	FilePath:  "/uploads/[[model]]/[[attribute]]/",
	MaxSize:   20 << 20,
})

type Document struct {
	gorm.Model
	upload.Pending `gorm:"-" json:"-"`

	UserID uint   `json:"user_id" gorm:"not null;index"`
	Title  string `json:"title" gorm:"not null" validate:"required,max=120"`
	File   string `json:"file" gorm:"size:500" validate:"required"`

	User User `gorm:"foreignKey:UserID" json:"-" validate:"-"`
}

func (d *Document) BeforeSave(tx *gorm.DB) error {
	return DocumentUploads.BeforeSave(tx, d)
}

func (d *Document) AfterSave(tx *gorm.DB) error {
	return DocumentUploads.AfterSave(tx, d)
}

func (d *Document) BeforeDelete(tx *gorm.DB) error {
	return DocumentUploads.BeforeDelete(tx, d)
}
