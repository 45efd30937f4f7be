package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ThumbConfig describes one thumbnail profile in uploads.yaml.
type ThumbConfig struct {
	Width    int               `yaml:"width"`
	Height   int               `yaml:"height"`
	ResizeUp bool              `yaml:"resize_up"`
	Filters  map[string]string `yaml:"filters"`
}

// ImageUploadConfig configures one image attribute.
type ImageUploadConfig struct {
	FilePath              string                 `yaml:"file_path"`
	FileName              string                 `yaml:"file_name"`
	CreateThumbsOnSave    bool                   `yaml:"create_thumbs_on_save"`
	CreateThumbsOnRequest bool                   `yaml:"create_thumbs_on_request"`
	Thumbs                map[string]ThumbConfig `yaml:"thumbs"`
}

type UploadsConfig struct {
	Aliases map[string]string `yaml:"aliases"`
	Photos  ImageUploadConfig `yaml:"photos"`
	Avatars ImageUploadConfig `yaml:"avatars"`
}

func DefaultUploads() *UploadsConfig {
	return &UploadsConfig{
		Aliases: map[string]string{},
		Photos: ImageUploadConfig{
			FilePath:           "/images/[[model]]/[[attribute]]/",
			FileName:           "{id}",
			CreateThumbsOnSave: true,
			Thumbs: map[string]ThumbConfig{
				"thumb": {Width: 200, Height: 150},
			},
		},
		Avatars: ImageUploadConfig{
			FilePath:           "/images/[[model]]/[[attribute]]/",
			FileName:           "{id}-{username}",
			CreateThumbsOnSave: true,
			Thumbs: map[string]ThumbConfig{
				"small": {Width: 64, Height: 64},
			},
		},
	}
}

// LoadUploads reads uploads.yaml over the defaults. A missing file yields the defaults.
func LoadUploads(path string) (*UploadsConfig, error) {
	cfg := DefaultUploads()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read uploads config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse uploads config: %w", err)
	}

	return cfg, nil
}
