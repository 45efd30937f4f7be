package upload

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/krishkalaria12/snap-upload/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	DefaultFileAttribute = "upload"
	DefaultFileName      = "{id}"
	DefaultFilePath      = "/uploads/[[model]]/[[attribute]]/"
)

// Env is what behaviors need from the outside world.
type Env struct {
	Storage  storage.Storage
	Logger   *zap.Logger
	Validate *validator.Validate
	Namer    schema.Namer
	// Aliases expand "@name" prefixes of FilePath.
	Aliases map[string]string
	// BaseURL prefixes the URLs handed out for stored files.
	BaseURL string
}

func (e *Env) withDefaults() *Env {
	if e.Logger == nil {
		e.Logger = zap.NewNop()
	}
	if e.Validate == nil {
		e.Validate = validator.New()
	}
	if e.Namer == nil {
		e.Namer = schema.NamingStrategy{}
	}
	return e
}

// Behavior is a unit of upload handling bound to one attribute of a model.
type Behavior interface {
	base() *FileBehavior
	bind(env *Env)

	beforeValidate(sc *scope) error
	beforeSave(sc *scope) error
	afterSave(sc *scope) error
	beforeDelete(sc *scope) error
}

// FileFunc is called with the record whose file was just stored.
type FileFunc func(ctx context.Context, rec Record) error

// FileBehavior stores an attached file at a path computed from placeholder templates
// and keeps that path in a string column.
type FileBehavior struct {
	// Attribute is the column holding the stored path.
	Attribute string
	// FileName is the name template; {column} tokens are replaced by slugged column values.
	FileName string
	// FilePath is the directory template; [[model]] and [[attribute]] are supported.
	FilePath string
	// Extensions restricts accepted uploads when non-empty.
	Extensions []string
	// MaxSize rejects larger uploads when positive.
	MaxSize int64

	env         *Env
	onFileSave  []FileFunc
	derivedKeys func(ctx context.Context, r *record) ([]string, error)
}

func NewFileBehavior(attribute string) *FileBehavior {
	b := &FileBehavior{Attribute: attribute}
	b.applyDefaults()
	return b
}

func (b *FileBehavior) applyDefaults() {
	if b.Attribute == "" {
		b.Attribute = DefaultFileAttribute
	}
	if b.FileName == "" {
		b.FileName = DefaultFileName
	}
	if b.FilePath == "" {
		b.FilePath = DefaultFilePath
	}
}

func (b *FileBehavior) base() *FileBehavior { return b }

func (b *FileBehavior) bind(env *Env) {
	b.applyDefaults()
	b.env = env
}

func (b *FileBehavior) environment() *Env {
	if b.env == nil {
		b.env = (&Env{}).withDefaults()
	}
	return b.env
}

func (b *FileBehavior) logger() *zap.Logger {
	return b.environment().Logger
}

// OnFileSave registers fn to run after the file was stored and its path persisted.
func (b *FileBehavior) OnFileSave(fn FileFunc) {
	b.onFileSave = append(b.onFileSave, fn)
}

func (b *FileBehavior) storage() (storage.Storage, error) {
	if s := b.environment().Storage; s != nil {
		return s, nil
	}
	return nil, ErrNoStorage
}

func (b *FileBehavior) checkFile(f *File) error {
	if b.MaxSize > 0 && f.Size > b.MaxSize {
		return fmt.Errorf("%w: %s is larger than %d bytes", ErrInvalidFile, f.Name, b.MaxSize)
	}
	if len(b.Extensions) == 0 {
		return nil
	}
	ext := f.Extension()
	for _, allowed := range b.Extensions {
		if strings.EqualFold(strings.TrimPrefix(allowed, "."), ext) {
			return nil
		}
	}
	return fmt.Errorf("%w: extension %q of %s is not allowed", ErrInvalidFile, ext, f.Name)
}

func (b *FileBehavior) resolveFileName(ctx context.Context, r *record) string {
	return replaceColumns(b.FileName, r.values(ctx))
}

func (b *FileBehavior) resolvePath(ctx context.Context, r *record) (string, error) {
	dir, err := resolveAlias(b.FilePath, b.environment().Aliases)
	if err != nil {
		return "", err
	}
	dir = replaceNames(dir, r.modelName(), b.Attribute)

	current, err := r.getString(ctx, b.Attribute)
	if err != nil {
		return "", err
	}

	name := b.resolveFileName(ctx, r)
	if ext := strings.ToLower(strings.TrimPrefix(path.Ext(current), ".")); ext != "" {
		name += "." + ext
	}
	return normalizePath(dir + "/" + name), nil
}

func (b *FileBehavior) inspect(rec Record) (*record, error) {
	return inspect(rec, b.environment().Namer)
}

// ResolveFileName returns FileName with every {column} placeholder substituted.
func (b *FileBehavior) ResolveFileName(rec Record) (string, error) {
	r, err := b.inspect(rec)
	if err != nil {
		return "", err
	}
	return b.resolveFileName(context.Background(), r), nil
}

// ResolvePath returns the storage path of the attribute's file for rec.
func (b *FileBehavior) ResolvePath(rec Record) (string, error) {
	r, err := b.inspect(rec)
	if err != nil {
		return "", err
	}
	return b.resolvePath(context.Background(), r)
}

// CleanFiles removes the stored file of rec and anything derived from it.
func (b *FileBehavior) CleanFiles(ctx context.Context, rec Record) error {
	r, err := b.inspect(rec)
	if err != nil {
		return err
	}
	return b.cleanFiles(ctx, r)
}

func (b *FileBehavior) cleanFiles(ctx context.Context, r *record) error {
	keys, err := b.fileKeys(ctx, r)
	if err != nil || len(keys) == 0 {
		return err
	}

	store, err := b.storage()
	if err != nil {
		return err
	}
	b.removeKeys(ctx, store, r.sch.Name, keys)
	return nil
}

// fileKeys lists the stored file of r and everything derived from it, or nothing when
// the attribute is empty.
func (b *FileBehavior) fileKeys(ctx context.Context, r *record) ([]string, error) {
	current, err := r.getString(ctx, b.Attribute)
	if err != nil || current == "" {
		return nil, err
	}

	key, err := b.resolvePath(ctx, r)
	if err != nil {
		return nil, err
	}
	keys := []string{key}
	if b.derivedKeys != nil {
		derived, err := b.derivedKeys(ctx, r)
		if err != nil {
			return nil, err
		}
		keys = append(keys, derived...)
	}
	return keys, nil
}

func (b *FileBehavior) removeKeys(ctx context.Context, store storage.Storage, model string, keys []string) {
	for _, k := range keys {
		if err := store.Delete(ctx, k); err != nil {
			// a file we cannot remove must not block the record operation
			b.logger().Warn("failed to remove upload",
				zap.String("model", model),
				zap.String("attribute", b.Attribute),
				zap.String("path", k),
				zap.Error(err))
			continue
		}
		b.logger().Debug("removed upload", zap.String("path", k))
	}
}

func (b *FileBehavior) beforeValidate(sc *scope) error {
	if f := sc.state.Attached(b.Attribute); f != nil {
		if err := b.checkFile(f); err != nil {
			return err
		}
		return sc.info.setString(sc.ctx, b.Attribute, f.Name)
	}

	if sc.info.isNew(sc.ctx) {
		return nil
	}

	stored, err := sc.stored()
	if err != nil || stored == nil {
		return err
	}
	value, err := stored.getString(sc.ctx, b.Attribute)
	if err != nil {
		return err
	}
	return sc.info.setString(sc.ctx, b.Attribute, value)
}

// beforeSave remembers the files of the stored record; they are removed in afterSave
// once the replacement is safely stored.
func (b *FileBehavior) beforeSave(sc *scope) error {
	f := sc.state.Attached(b.Attribute)
	if f == nil {
		return nil
	}

	sc.state.setReplaced(b.Attribute, nil)
	if !sc.info.isNew(sc.ctx) {
		stored, err := sc.stored()
		if err != nil {
			return err
		}
		if stored != nil {
			keys, err := b.fileKeys(sc.ctx, stored)
			if err != nil {
				return err
			}
			sc.state.setReplaced(b.Attribute, keys)
		}
	}

	return sc.info.setString(sc.ctx, b.Attribute, f.StoredName())
}

func (b *FileBehavior) afterSave(sc *scope) error {
	f := sc.state.Attached(b.Attribute)
	if f == nil {
		return nil
	}

	store, err := b.storage()
	if err != nil {
		return err
	}

	key, err := b.resolvePath(sc.ctx, sc.info)
	if err != nil {
		return err
	}

	if err := b.writeFile(sc.ctx, store, key, f); err != nil {
		return err
	}

	if err := b.finishSave(sc, store, key); err != nil {
		b.rollbackSave(sc, store, key)
		return err
	}

	sc.state.detach(b.Attribute)
	sc.state.setReplaced(b.Attribute, nil)

	b.logger().Info("stored upload",
		zap.String("model", sc.info.sch.Name),
		zap.String("attribute", b.Attribute),
		zap.String("path", key),
		zap.Int64("size", f.Size))
	return nil
}

// finishSave persists key, runs the after-file-save callbacks and only then drops the
// replaced files.
func (b *FileBehavior) finishSave(sc *scope, store storage.Storage, key string) error {
	if err := b.persistPath(sc, key); err != nil {
		return err
	}

	for _, fn := range b.onFileSave {
		if err := fn(sc.ctx, sc.rec); err != nil {
			return err
		}
	}

	var obsolete []string
	for _, k := range sc.state.replaced[b.Attribute] {
		if k != key {
			obsolete = append(obsolete, k)
		}
	}
	b.removeKeys(sc.ctx, store, sc.info.sch.Name, obsolete)
	return nil
}

// rollbackSave removes what afterSave wrote. Keys shared with the stored record were
// overwritten in place and stay, since the rolled back column still points at them.
func (b *FileBehavior) rollbackSave(sc *scope, store storage.Storage, key string) {
	keys := []string{key}
	if b.derivedKeys != nil {
		derived, err := b.derivedKeys(sc.ctx, sc.info)
		if err != nil {
			b.logger().Warn("failed to resolve derived uploads", zap.String("path", key), zap.Error(err))
		}
		keys = append(keys, derived...)
	}

	kept := make(map[string]bool, len(sc.state.replaced[b.Attribute]))
	for _, k := range sc.state.replaced[b.Attribute] {
		kept[k] = true
	}
	written := keys[:0]
	for _, k := range keys {
		if !kept[k] {
			written = append(written, k)
		}
	}
	b.removeKeys(sc.ctx, store, sc.info.sch.Name, written)
}

func (b *FileBehavior) writeFile(ctx context.Context, store storage.Storage, key string, f *File) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrFileSave, f.Name, err)
	}
	defer rc.Close()

	if err := store.Save(ctx, key, rc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFileSave, key, err)
	}
	return nil
}

// persistPath writes the stored path back to the record with upload hooks disabled,
// so the nested save cannot store the file again.
func (b *FileBehavior) persistPath(sc *scope, key string) error {
	sc.state.suspended = true
	defer func() { sc.state.suspended = false }()

	if err := sc.info.setString(sc.ctx, b.Attribute, key); err != nil {
		return err
	}

	f, err := sc.info.field(b.Attribute)
	if err != nil {
		return err
	}

	err = sc.tx.Session(&gorm.Session{NewDB: true}).
		Model(sc.rec).
		Update(f.DBName, key).Error
	if err != nil {
		return fmt.Errorf("upload: persist %s.%s: %w", sc.info.sch.Name, b.Attribute, err)
	}
	return nil
}

func (b *FileBehavior) beforeDelete(sc *scope) error {
	return b.cleanFiles(sc.ctx, sc.info)
}
