package upload

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

var schemaCache sync.Map

// ModelNamer overrides the model name used for the [[model]] placeholder.
type ModelNamer interface {
	ModelName() string
}

// record gives the behaviors column-level access to a model through its gorm schema.
type record struct {
	rec Record
	sch *schema.Schema
	rv  reflect.Value
}

func inspect(rec Record, namer schema.Namer) (*record, error) {
	rv := reflect.ValueOf(rec)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, fmt.Errorf("upload: record must be a non-nil pointer, got %T", rec)
	}

	sch, err := schema.Parse(rec, &schemaCache, namer)
	if err != nil {
		return nil, fmt.Errorf("upload: parse %T: %w", rec, err)
	}

	return &record{rec: rec, sch: sch, rv: rv.Elem()}, nil
}

func (r *record) field(name string) (*schema.Field, error) {
	f := r.sch.LookUpField(name)
	if f == nil {
		return nil, fmt.Errorf("upload: %s has no attribute %q", r.sch.Name, name)
	}
	return f, nil
}

func (r *record) modelName() string {
	if n, ok := r.rec.(ModelNamer); ok {
		return n.ModelName()
	}
	return r.sch.Name
}

func (r *record) getString(ctx context.Context, name string) (string, error) {
	f, err := r.field(name)
	if err != nil {
		return "", err
	}
	v, _ := f.ValueOf(ctx, r.rv)
	return formatValue(v), nil
}

func (r *record) setString(ctx context.Context, name, value string) error {
	f, err := r.field(name)
	if err != nil {
		return err
	}
	return f.Set(ctx, r.rv, value)
}

func (r *record) isNew(ctx context.Context) bool {
	pf := r.sch.PrioritizedPrimaryField
	if pf == nil {
		return true
	}
	_, zero := pf.ValueOf(ctx, r.rv)
	return zero
}

// values maps every column to its raw string value.
func (r *record) values(ctx context.Context) map[string]string {
	out := make(map[string]string, len(r.sch.DBNames))
	for _, f := range r.sch.Fields {
		if f.DBName == "" {
			continue
		}
		v, _ := f.ValueOf(ctx, r.rv)
		out[f.DBName] = formatValue(v)
	}
	return out
}

// loadStored reads the persisted version of the record, or nil when there is none.
func (r *record) loadStored(tx *gorm.DB) (*record, error) {
	pf := r.sch.PrioritizedPrimaryField
	if pf == nil {
		return nil, nil
	}
	ctx := tx.Statement.Context
	pk, zero := pf.ValueOf(ctx, r.rv)
	if zero {
		return nil, nil
	}

	stored := reflect.New(r.sch.ModelType)
	err := tx.Session(&gorm.Session{NewDB: true}).
		Where(map[string]interface{}{pf.DBName: pk}).
		Take(stored.Interface()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("upload: load stored %s: %w", r.sch.Name, err)
	}

	rec, ok := stored.Interface().(Record)
	if !ok {
		return nil, fmt.Errorf("upload: %s does not embed upload.Pending", r.sch.Name)
	}
	return &record{rec: rec, sch: r.sch, rv: stored.Elem()}, nil
}

func formatValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if valuer, ok := v.(driver.Valuer); ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return ""
		}
		dv, err := valuer.Value()
		if err != nil || dv == nil {
			return ""
		}
		v = dv
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}

	switch val := rv.Interface().(type) {
	case time.Time:
		if val.IsZero() {
			return ""
		}
		// the same text a SQL datetime column reads back as
		return val.Format(time.DateTime)
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
