package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/krishkalaria12/snap-upload/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testDoc struct {
	ID      uint   `gorm:"primaryKey"`
	Title   string `validate:"max=20"`
	File    string
	Pending `gorm:"-" json:"-"`
}

var docUploads *Set

func (d *testDoc) BeforeSave(tx *gorm.DB) error   { return docUploads.BeforeSave(tx, d) }
func (d *testDoc) AfterSave(tx *gorm.DB) error    { return docUploads.AfterSave(tx, d) }
func (d *testDoc) BeforeDelete(tx *gorm.DB) error { return docUploads.BeforeDelete(tx, d) }

type testPair struct {
	ID      uint `gorm:"primaryKey"`
	Front   string
	Back    string
	Pending `gorm:"-" json:"-"`
}

var pairUploads *Set

func (p *testPair) BeforeSave(tx *gorm.DB) error   { return pairUploads.BeforeSave(tx, p) }
func (p *testPair) AfterSave(tx *gorm.DB) error    { return pairUploads.AfterSave(tx, p) }
func (p *testPair) BeforeDelete(tx *gorm.DB) error { return pairUploads.BeforeDelete(tx, p) }

type countingStore struct {
	storage.Storage
	saves int
}

func (c *countingStore) Save(ctx context.Context, key string, r io.Reader) error {
	c.saves++
	return c.Storage.Save(ctx, key, r)
}

type failingStore struct {
	storage.Storage
}

func (failingStore) Save(ctx context.Context, key string, r io.Reader) error {
	return errors.New("disk full")
}

// switchStore fails every Save once fail is set.
type switchStore struct {
	storage.Storage
	fail bool
}

func (s *switchStore) Save(ctx context.Context, key string, r io.Reader) error {
	if s.fail {
		return errors.New("bucket unavailable")
	}
	return s.Storage.Save(ctx, key, r)
}

func openTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func setupDocs(t *testing.T, b *FileBehavior, store storage.Storage) *gorm.DB {
	t.Helper()

	docUploads = NewSet(b)
	docUploads.Bind(Env{Storage: store, Logger: zap.NewNop()})
	return openTestDB(t, &testDoc{})
}

func assertFile(t *testing.T, root, key, want string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, want, string(data))
}

func assertNoFile(t *testing.T, root, key string) {
	t.Helper()
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err), "expected %s to be removed", key)
}

func TestResolvePathPlaceholders(t *testing.T) {
	b := &FileBehavior{Attribute: "file", FileName: "{id}-{title}"}
	NewSet(b)

	doc := &testDoc{ID: 7, Title: "Hello World!", File: "report.PDF"}
	p, err := b.ResolvePath(doc)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/testDoc/file/7-hello-world.pdf", p)

	name, err := b.ResolveFileName(doc)
	require.NoError(t, err)
	assert.Equal(t, "7-hello-world", name)

	doc.File = "README"
	p, err = b.ResolvePath(doc)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/testDoc/file/7-hello-world", p)
}

func TestCreateStoresFileAndPersistsPath(t *testing.T) {
	root := t.TempDir()
	store := &countingStore{Storage: storage.NewLocal(root)}
	db := setupDocs(t, NewFileBehavior("file"), store)

	fileSaves := 0
	b, err := docUploads.File("file")
	require.NoError(t, err)
	b.OnFileSave(func(ctx context.Context, rec Record) error {
		fileSaves++
		return nil
	})

	doc := &testDoc{Title: "Quarterly"}
	doc.Attach("file", FromBytes("Report.TXT", []byte("numbers")))
	require.NoError(t, db.Create(doc).Error)

	assert.Equal(t, "/uploads/testDoc/file/1.txt", doc.File)
	assertFile(t, root, doc.File, "numbers")
	assert.Nil(t, doc.Attached("file"), "pending file must be consumed")
	assert.False(t, doc.Suspended())
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, fileSaves)

	var stored testDoc
	require.NoError(t, db.First(&stored, doc.ID).Error)
	assert.Equal(t, "/uploads/testDoc/file/1.txt", stored.File)

	// saving again without an upload does not rewrite the file
	doc.Title = "Quarterly v2"
	require.NoError(t, db.Save(doc).Error)
	assert.Equal(t, 1, store.saves)
}

func TestSaveWithoutUploadRestoresStoredPath(t *testing.T) {
	root := t.TempDir()
	db := setupDocs(t, NewFileBehavior("file"), storage.NewLocal(root))

	doc := &testDoc{Title: "Notes"}
	doc.Attach("file", FromBytes("notes.md", []byte("# notes")))
	require.NoError(t, db.Create(doc).Error)
	original := doc.File

	doc.File = "../../etc/passwd"
	doc.Title = "Renamed"
	require.NoError(t, db.Save(doc).Error)
	assert.Equal(t, original, doc.File)

	var stored testDoc
	require.NoError(t, db.First(&stored, doc.ID).Error)
	assert.Equal(t, original, stored.File)
	assert.Equal(t, "Renamed", stored.Title)
	assertFile(t, root, original, "# notes")
}

func TestReplacingUploadRemovesOldFile(t *testing.T) {
	root := t.TempDir()
	db := setupDocs(t, NewFileBehavior("file"), storage.NewLocal(root))

	doc := &testDoc{Title: "Data"}
	doc.Attach("file", FromBytes("data.txt", []byte("v1")))
	require.NoError(t, db.Create(doc).Error)
	oldPath := doc.File

	doc.Attach("file", FromBytes("data.csv", []byte("v2")))
	require.NoError(t, db.Save(doc).Error)

	assert.Equal(t, "/uploads/testDoc/file/1.csv", doc.File)
	assertNoFile(t, root, oldPath)
	assertFile(t, root, doc.File, "v2")
}

func TestReattachMovesFileOnRename(t *testing.T) {
	root := t.TempDir()
	b := NewFileBehavior("file")
	b.FileName = "{id}-{title}"
	db := setupDocs(t, b, storage.NewLocal(root))

	doc := &testDoc{Title: "Draft"}
	doc.Attach("file", FromBytes("plan.txt", []byte("steps")))
	require.NoError(t, db.Create(doc).Error)
	require.Equal(t, "/uploads/testDoc/file/1-draft.txt", doc.File)

	doc.Title = "Final"
	require.NoError(t, docUploads.Reattach(context.Background(), doc, "file"))
	require.NoError(t, db.Save(doc).Error)

	assert.Equal(t, "/uploads/testDoc/file/1-final.txt", doc.File)
	assertNoFile(t, root, "/uploads/testDoc/file/1-draft.txt")
	assertFile(t, root, doc.File, "steps")

	// nothing stored, nothing queued
	empty := &testDoc{Title: "Empty"}
	require.NoError(t, docUploads.Reattach(context.Background(), empty, "file"))
	assert.Nil(t, empty.Attached("file"))
}

func TestDeleteRemovesFile(t *testing.T) {
	root := t.TempDir()
	db := setupDocs(t, NewFileBehavior("file"), storage.NewLocal(root))

	doc := &testDoc{Title: "Gone"}
	doc.Attach("file", FromBytes("gone.txt", []byte("bye")))
	require.NoError(t, db.Create(doc).Error)
	path := doc.File

	require.NoError(t, db.Delete(doc).Error)
	assertNoFile(t, root, path)

	var count int64
	require.NoError(t, db.Model(&testDoc{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteWithoutFileTouchesNothing(t *testing.T) {
	store := &countingStore{Storage: failingStore{}}
	db := setupDocs(t, NewFileBehavior("file"), store)

	doc := &testDoc{Title: "Empty"}
	require.NoError(t, db.Create(doc).Error)
	require.NoError(t, db.Delete(doc).Error)
	assert.Zero(t, store.saves)
}

func TestRejectedExtensionAbortsCreate(t *testing.T) {
	b := NewFileBehavior("file")
	b.Extensions = []string{"txt", ".md"}
	db := setupDocs(t, b, storage.NewLocal(t.TempDir()))

	doc := &testDoc{Title: "Bad"}
	doc.Attach("file", FromBytes("virus.exe", []byte("MZ")))
	err := db.Create(doc).Error
	assert.ErrorIs(t, err, ErrInvalidFile)

	var count int64
	require.NoError(t, db.Model(&testDoc{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMaxSizeRejectsLargeUpload(t *testing.T) {
	b := NewFileBehavior("file")
	b.MaxSize = 4
	db := setupDocs(t, b, storage.NewLocal(t.TempDir()))

	doc := &testDoc{Title: "Large"}
	doc.Attach("file", FromBytes("big.txt", []byte("too large")))
	assert.ErrorIs(t, db.Create(doc).Error, ErrInvalidFile)
}

func TestValidationFailureAbortsSave(t *testing.T) {
	store := &countingStore{Storage: storage.NewLocal(t.TempDir())}
	db := setupDocs(t, NewFileBehavior("file"), store)

	doc := &testDoc{Title: "a title that is far too long to pass"}
	doc.Attach("file", FromBytes("a.txt", []byte("a")))
	assert.Error(t, db.Create(doc).Error)
	assert.Zero(t, store.saves)
}

func TestStorageFailureRollsBackRecord(t *testing.T) {
	db := setupDocs(t, NewFileBehavior("file"), failingStore{})

	doc := &testDoc{Title: "Doomed"}
	doc.Attach("file", FromBytes("a.txt", []byte("a")))
	err := db.Create(doc).Error
	assert.ErrorIs(t, err, ErrFileSave)

	var count int64
	require.NoError(t, db.Model(&testDoc{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSuspendedHooksAreNoops(t *testing.T) {
	store := &countingStore{Storage: storage.NewLocal(t.TempDir())}
	db := setupDocs(t, NewFileBehavior("file"), store)

	doc := &testDoc{Title: "Quiet"}
	doc.Attach("file", FromBytes("a.txt", []byte("a")))
	doc.suspended = true
	require.NoError(t, db.Create(doc).Error)

	assert.Zero(t, store.saves)
	assert.Equal(t, "", doc.File)
	assert.NotNil(t, doc.Attached("file"))
}

func TestInstanceLookup(t *testing.T) {
	set := NewSet(NewFileBehavior("file"), NewImageBehavior("cover"))

	b, err := set.Instance("file")
	require.NoError(t, err)
	assert.Equal(t, "file", b.base().Attribute)

	_, err = set.Instance("avatar")
	assert.ErrorIs(t, err, ErrMissingBehavior)

	_, err = set.Image("file")
	assert.ErrorIs(t, err, ErrNotImage)

	ib, err := set.Image("cover")
	require.NoError(t, err)
	assert.Equal(t, DefaultImagePath, ib.FilePath)
}

func TestUploadedFileURL(t *testing.T) {
	root := t.TempDir()
	db := setupDocs(t, NewFileBehavior("file"), storage.NewLocal(root))
	docUploads.Bind(Env{Storage: storage.NewLocal(root), BaseURL: "https://cdn.example.com"})

	doc := &testDoc{Title: "Linked"}
	url, err := docUploads.UploadedFileURL(doc, "file")
	require.NoError(t, err)
	assert.Empty(t, url)

	doc.Attach("file", FromBytes("link.txt", []byte("x")))
	require.NoError(t, db.Create(doc).Error)

	url, err = docUploads.UploadedFileURL(doc, "file")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/testDoc/file/1.txt", url)

	_, err = docUploads.UploadedFileURL(doc, "missing")
	assert.ErrorIs(t, err, ErrMissingBehavior)
}

func TestFailedFileSaveCallbackRemovesStoredFile(t *testing.T) {
	root := t.TempDir()
	db := setupDocs(t, NewFileBehavior("file"), storage.NewLocal(root))

	b, err := docUploads.File("file")
	require.NoError(t, err)
	b.OnFileSave(func(ctx context.Context, rec Record) error {
		return errors.New("indexing failed")
	})

	doc := &testDoc{Title: "Orphan"}
	doc.Attach("file", FromBytes("orphan.txt", []byte("x")))
	assert.Error(t, db.Create(doc).Error)

	assertNoFile(t, root, "/uploads/testDoc/file/1.txt")
	assert.NotNil(t, doc.Attached("file"), "file stays attached for a retry")

	var count int64
	require.NoError(t, db.Model(&testDoc{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFailedReplaceKeepsStoredFile(t *testing.T) {
	root := t.TempDir()
	store := &switchStore{Storage: storage.NewLocal(root)}
	db := setupDocs(t, NewFileBehavior("file"), store)

	doc := &testDoc{Title: "Ledger"}
	doc.Attach("file", FromBytes("ledger.txt", []byte("v1")))
	require.NoError(t, db.Create(doc).Error)
	oldPath := doc.File

	store.fail = true
	doc.Attach("file", FromBytes("ledger.csv", []byte("v2")))
	assert.ErrorIs(t, db.Save(doc).Error, ErrFileSave)

	assertFile(t, root, oldPath, "v1")
	var stored testDoc
	require.NoError(t, db.First(&stored, doc.ID).Error)
	assert.Equal(t, oldPath, stored.File)

	// the same record saves fine once storage recovers
	store.fail = false
	require.NoError(t, db.Save(doc).Error)
	assert.Equal(t, "/uploads/testDoc/file/1.csv", doc.File)
	assertFile(t, root, doc.File, "v2")
	assertNoFile(t, root, oldPath)
}

func TestTwoBehaviorsPersistBothPaths(t *testing.T) {
	root := t.TempDir()
	store := &countingStore{Storage: storage.NewLocal(root)}

	pairUploads = NewSet(NewFileBehavior("front"), NewFileBehavior("back"))
	pairUploads.Bind(Env{Storage: store})
	db := openTestDB(t, &testPair{})

	pair := &testPair{}
	pair.Attach("front", FromBytes("front.txt", []byte("F")))
	pair.Attach("back", FromBytes("back.txt", []byte("B")))
	require.NoError(t, db.Create(pair).Error)

	assert.Equal(t, 2, store.saves)
	assert.Equal(t, "/uploads/testPair/front/1.txt", pair.Front)
	assert.Equal(t, "/uploads/testPair/back/1.txt", pair.Back)
	assertFile(t, root, pair.Front, "F")
	assertFile(t, root, pair.Back, "B")

	var stored testPair
	require.NoError(t, db.First(&stored, pair.ID).Error)
	assert.Equal(t, pair.Front, stored.Front)
	assert.Equal(t, pair.Back, stored.Back)
}
