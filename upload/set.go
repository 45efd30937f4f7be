// Package upload attaches uploaded files to gorm records.
//
// A model embeds Pending, declares its behaviors in a Set and forwards its gorm hooks:
//
//	var documentUploads = upload.NewSet(upload.NewFileBehavior("file"))
//
//	func (d *Document) BeforeSave(tx *gorm.DB) error   { return documentUploads.BeforeSave(tx, d) }
//	func (d *Document) AfterSave(tx *gorm.DB) error    { return documentUploads.AfterSave(tx, d) }
//	func (d *Document) BeforeDelete(tx *gorm.DB) error { return documentUploads.BeforeDelete(tx, d) }
package upload

import (
	"context"
	"fmt"
	"io"
	"path"

	"gorm.io/gorm"
)

// Set is the list of behaviors attached to one model type.
type Set struct {
	env       *Env
	behaviors []Behavior
}

func NewSet(behaviors ...Behavior) *Set {
	s := &Set{env: (&Env{}).withDefaults(), behaviors: behaviors}
	for _, b := range behaviors {
		b.bind(s.env)
	}
	return s
}

// Bind replaces the environment of every behavior in the set.
func (s *Set) Bind(env Env) {
	*s.env = *env.withDefaults()
	for _, b := range s.behaviors {
		b.bind(s.env)
	}
}

func (s *Set) Env() *Env {
	return s.env
}

// Instance returns the behavior handling attribute.
func (s *Set) Instance(attribute string) (Behavior, error) {
	for _, b := range s.behaviors {
		if b.base().Attribute == attribute {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrMissingBehavior, attribute)
}

func (s *Set) File(attribute string) (*FileBehavior, error) {
	b, err := s.Instance(attribute)
	if err != nil {
		return nil, err
	}
	return b.base(), nil
}

func (s *Set) Image(attribute string) (*ImageBehavior, error) {
	b, err := s.Instance(attribute)
	if err != nil {
		return nil, err
	}
	ib, ok := b.(*ImageBehavior)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotImage, attribute)
	}
	return ib, nil
}

// scope carries one hook invocation.
type scope struct {
	ctx   context.Context
	tx    *gorm.DB
	rec   Record
	state *Pending
	info  *record

	storedRec    *record
	storedErr    error
	storedLoaded bool
}

func (sc *scope) stored() (*record, error) {
	if !sc.storedLoaded {
		sc.storedLoaded = true
		sc.storedRec, sc.storedErr = sc.info.loadStored(sc.tx)
	}
	return sc.storedRec, sc.storedErr
}

// newScope returns nil while the record's upload hooks are suspended.
func (s *Set) newScope(tx *gorm.DB, rec Record) (*scope, error) {
	state := rec.UploadState()
	if state.suspended {
		return nil, nil
	}

	info, err := inspect(rec, tx.NamingStrategy)
	if err != nil {
		return nil, err
	}

	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &scope{ctx: ctx, tx: tx, rec: rec, state: state, info: info}, nil
}

// BeforeValidate copies attached file names into their attributes and, for stored records,
// restores attributes without an attached file from the database.
func (s *Set) BeforeValidate(tx *gorm.DB, rec Record) error {
	sc, err := s.newScope(tx, rec)
	if sc == nil {
		return err
	}
	return s.beforeValidate(sc)
}

func (s *Set) beforeValidate(sc *scope) error {
	for _, b := range s.behaviors {
		if err := b.beforeValidate(sc); err != nil {
			return err
		}
	}
	return nil
}

// BeforeSave runs BeforeValidate, validates the record and prepares attached files.
func (s *Set) BeforeSave(tx *gorm.DB, rec Record) error {
	sc, err := s.newScope(tx, rec)
	if sc == nil {
		return err
	}

	if err := s.beforeValidate(sc); err != nil {
		return err
	}
	if err := s.env.Validate.StructCtx(sc.ctx, rec); err != nil {
		return err
	}

	for _, b := range s.behaviors {
		if err := b.beforeSave(sc); err != nil {
			return err
		}
	}
	return nil
}

// AfterSave stores attached files and persists their paths.
func (s *Set) AfterSave(tx *gorm.DB, rec Record) error {
	sc, err := s.newScope(tx, rec)
	if sc == nil {
		return err
	}

	for _, b := range s.behaviors {
		if err := b.afterSave(sc); err != nil {
			return err
		}
	}
	return nil
}

// BeforeDelete removes the files of every behavior.
func (s *Set) BeforeDelete(tx *gorm.DB, rec Record) error {
	sc, err := s.newScope(tx, rec)
	if sc == nil {
		return err
	}

	for _, b := range s.behaviors {
		if err := b.beforeDelete(sc); err != nil {
			return err
		}
	}
	return nil
}

// UploadedFileURL returns the URL of the file stored for attribute, or "" when there is none.
func (s *Set) UploadedFileURL(rec Record, attribute string) (string, error) {
	b, err := s.File(attribute)
	if err != nil {
		return "", err
	}
	if empty, err := attributeEmpty(b, rec); err != nil || empty {
		return "", err
	}

	p, err := b.ResolvePath(rec)
	if err != nil {
		return "", err
	}
	return joinURL(s.env.BaseURL, p), nil
}

// ThumbFileURL returns the URL of a thumbnail, creating thumbnails first when the
// behavior creates them on request.
func (s *Set) ThumbFileURL(ctx context.Context, rec Record, attribute, profile string) (string, error) {
	b, err := s.Image(attribute)
	if err != nil {
		return "", err
	}
	if _, ok := b.Thumbs[profile]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProfile, profile)
	}
	if empty, err := attributeEmpty(b.FileBehavior, rec); err != nil || empty {
		return "", err
	}

	if b.CreateThumbsOnRequest {
		if err := b.CreateThumbs(ctx, rec); err != nil {
			return "", err
		}
	}

	p, err := b.ResolveThumbPath(rec, profile)
	if err != nil {
		return "", err
	}
	return joinURL(s.env.BaseURL, p), nil
}

// Reattach queues the stored file of attribute again, so that the next save moves it to
// the path resolved from the record's current column values.
func (s *Set) Reattach(ctx context.Context, rec Record, attribute string) error {
	b, err := s.File(attribute)
	if err != nil {
		return err
	}
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
	rc, err := store.Open(ctx, current)
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	rec.UploadState().Attach(attribute, FromBytes(path.Base(current), data))
	return nil
}

func attributeEmpty(b *FileBehavior, rec Record) (bool, error) {
	r, err := b.inspect(rec)
	if err != nil {
		return false, err
	}
	v, err := r.getString(context.Background(), b.Attribute)
	return v == "", err
}
