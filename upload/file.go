package upload

import (
	"bytes"
	"io"
	"mime/multipart"
	"path"
	"strings"
)

// File is an uploaded file waiting to be stored.
type File struct {
	Name string
	Size int64

	open func() (io.ReadCloser, error)
}

func FromFileHeader(fh *multipart.FileHeader) *File {
	return &File{
		Name: fh.Filename,
		Size: fh.Size,
		open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// FromBytes wraps in-memory content, e.g. a processed or generated image.
func FromBytes(name string, data []byte) *File {
	return &File{
		Name: name,
		Size: int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func (f *File) Open() (io.ReadCloser, error) {
	return f.open()
}

func (f *File) base() string {
	return path.Base(strings.ReplaceAll(f.Name, "\\", "/"))
}

// BaseName is the client file name without directory and extension.
func (f *File) BaseName() string {
	name := f.base()
	return strings.TrimSuffix(name, path.Ext(name))
}

// Extension is the lower-case extension without the dot.
func (f *File) Extension() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(f.base()), "."))
}

// StoredName is "basename.extension", or just the base name when there is no extension.
func (f *File) StoredName() string {
	if ext := f.Extension(); ext != "" {
		return f.BaseName() + "." + ext
	}
	return f.BaseName()
}
