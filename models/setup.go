package models

import (
	"github.com/krishkalaria12/snap-upload/config"
	"github.com/krishkalaria12/snap-upload/upload"
)

// All lists the models handled by migrations.
func All() []interface{} {
	return []interface{}{&User{}, &Document{}, &Photo{}}
}

// Setup binds every upload set to env and applies the image settings from cfg.
func Setup(env upload.Env, cfg *config.UploadsConfig) error {
	if cfg == nil {
		cfg = config.DefaultUploads()
	}
	if env.Aliases == nil {
		env.Aliases = cfg.Aliases
	}

	if err := configureImage(PhotoUploads, "image", cfg.Photos); err != nil {
		return err
	}
	if err := configureImage(UserUploads, "avatar", cfg.Avatars); err != nil {
		return err
	}

	for _, set := range []*upload.Set{PhotoUploads, UserUploads, DocumentUploads} {
		set.Bind(env)
	}
	return nil
}

func configureImage(set *upload.Set, attribute string, cfg config.ImageUploadConfig) error {
	b, err := set.Image(attribute)
	if err != nil {
		return err
	}

	if cfg.FilePath != "" {
		b.FilePath = cfg.FilePath
	}
	if cfg.FileName != "" {
		b.FileName = cfg.FileName
	}
	b.CreateThumbsOnSave = cfg.CreateThumbsOnSave
	b.CreateThumbsOnRequest = cfg.CreateThumbsOnRequest

	if len(cfg.Thumbs) > 0 {
		b.Thumbs = make(map[string]upload.ThumbProfile, len(cfg.Thumbs))
		for name, t := range cfg.Thumbs {
			b.Thumbs[name] = upload.ThumbProfile{
				Width:    t.Width,
				Height:   t.Height,
				ResizeUp: t.ResizeUp,
				Filters:  t.Filters,
			}
		}
	}
	return nil
}
