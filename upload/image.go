package upload

import (
	"context"
	"fmt"
	"image"
	"path"
	"sort"

	"github.com/disintegration/gift"
	"github.com/krishkalaria12/snap-upload/imaging"
	"github.com/krishkalaria12/snap-upload/storage"
	"go.uber.org/zap"
)

const (
	DefaultImageAttribute = "image"
	DefaultImagePath      = "/images/[[model]]/[[attribute]]/"
)

// DefaultImageExtensions are the formats thumbnails can be written in.
var DefaultImageExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff"}

// ThumbProfile is a named thumbnail size.
type ThumbProfile struct {
	Width  int
	Height int
	// ResizeUp allows enlarging images smaller than the profile.
	ResizeUp bool
	// Filters are extra imaging filters applied after resizing, by name.
	Filters map[string]string
}

// ImageBehavior is a FileBehavior that also keeps resized thumbnails next to the image.
type ImageBehavior struct {
	*FileBehavior

	Thumbs                map[string]ThumbProfile
	CreateThumbsOnSave    bool
	CreateThumbsOnRequest bool

	hooked bool
}

func NewImageBehavior(attribute string) *ImageBehavior {
	if attribute == "" {
		attribute = DefaultImageAttribute
	}
	return &ImageBehavior{
		FileBehavior: &FileBehavior{
			Attribute:  attribute,
			FilePath:   DefaultImagePath,
			FileName:   DefaultFileName,
			Extensions: DefaultImageExtensions,
		},
		Thumbs: map[string]ThumbProfile{
			"thumb": {Width: 200, Height: 150},
		},
		CreateThumbsOnSave: true,
	}
}

func (b *ImageBehavior) bind(env *Env) {
	if b.FileBehavior == nil {
		b.FileBehavior = &FileBehavior{}
	}
	if b.Attribute == "" {
		b.Attribute = DefaultImageAttribute
	}
	if b.FilePath == "" {
		b.FilePath = DefaultImagePath
	}
	b.FileBehavior.bind(env)

	if !b.hooked {
		b.hooked = true
		b.derivedKeys = b.thumbKeys
		b.OnFileSave(b.afterFileSave)
	}
}

func (b *ImageBehavior) profileNames() []string {
	names := make([]string, 0, len(b.Thumbs))
	for name := range b.Thumbs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *ImageBehavior) thumbKeys(ctx context.Context, r *record) ([]string, error) {
	key, err := b.resolvePath(ctx, r)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(b.Thumbs))
	for _, name := range b.profileNames() {
		keys = append(keys, thumbPath(key, name))
	}
	return keys, nil
}

// ResolveThumbPath returns the storage path of a profile's thumbnail for rec.
func (b *ImageBehavior) ResolveThumbPath(rec Record, profile string) (string, error) {
	if _, ok := b.Thumbs[profile]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProfile, profile)
	}
	key, err := b.ResolvePath(rec)
	if err != nil {
		return "", err
	}
	return thumbPath(key, profile), nil
}

func (b *ImageBehavior) afterFileSave(ctx context.Context, rec Record) error {
	if !b.CreateThumbsOnSave {
		return nil
	}
	return b.CreateThumbs(ctx, rec)
}

// CreateThumbs writes every missing thumbnail of rec's image.
func (b *ImageBehavior) CreateThumbs(ctx context.Context, rec Record) error {
	r, err := b.inspect(rec)
	if err != nil {
		return err
	}
	current, err := r.getString(ctx, b.Attribute)
	if err != nil || current == "" {
		return err
	}

	store, err := b.storage()
	if err != nil {
		return err
	}

	key, err := b.resolvePath(ctx, r)
	if err != nil {
		return err
	}

	format := imaging.FormatFromExtension(path.Ext(key))

	var src image.Image
	for _, name := range b.profileNames() {
		thumbKey := thumbPath(key, name)
		exists, err := store.Exists(ctx, thumbKey)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		if src == nil {
			if src, err = loadImage(ctx, store, key); err != nil {
				return err
			}
		}

		if err := b.writeThumb(ctx, store, src, b.Thumbs[name], thumbKey, format); err != nil {
			return fmt.Errorf("thumbnail %q: %w", name, err)
		}

		b.logger().Info("created thumbnail",
			zap.String("model", r.sch.Name),
			zap.String("profile", name),
			zap.String("path", thumbKey))
	}
	return nil
}

func loadImage(ctx context.Context, store storage.Storage, key string) (image.Image, error) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, _, err := imaging.DecodeSource(rc)
	return img, err
}

func (b *ImageBehavior) writeThumb(ctx context.Context, store storage.Storage, src image.Image, profile ThumbProfile, key, format string) error {
	extra, err := imaging.ParseFilters(profile.Filters)
	if err != nil {
		return err
	}

	filters := append([]gift.Filter{imaging.AdaptiveResize(src.Bounds(), profile.Width, profile.Height, profile.ResizeUp)}, extra...)
	thumb := imaging.Process(src, filters...)

	body, err := imaging.EncodeToReader(thumb, format)
	if err != nil {
		return err
	}
	return store.Save(ctx, key, body)
}
