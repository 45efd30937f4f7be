package upload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World!":     "hello-world",
		"--Already-Slug--": "already-slug",
		"Über café 2024":   "ber-caf-2024",
		"a_b.c":            "a-b-c",
		"":                 "",
		"!!!":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestLcfirst(t *testing.T) {
	assert.Equal(t, "blogPost", lcfirst("BlogPost"))
	assert.Equal(t, "image", lcfirst("image"))
	assert.Equal(t, "", lcfirst(""))
}

func TestReplaceColumns(t *testing.T) {
	got := replaceColumns("{id}-{title}_{user_id}", map[string]string{
		"id":      "12",
		"title":   "My First Post",
		"user_id": "3",
	})
	assert.Equal(t, "12-my-first-post_3", got)

	// unknown tokens are left alone
	assert.Equal(t, "{missing}", replaceColumns("{missing}", map[string]string{"id": "1"}))
}

func TestResolveAlias(t *testing.T) {
	p, err := resolveAlias("@webroot/uploads/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/x", p)

	p, err = resolveAlias("@media/[[model]]", map[string]string{"media": "/static/media"})
	require.NoError(t, err)
	assert.Equal(t, "/static/media/[[model]]", p)

	p, err = resolveAlias("/plain/path", nil)
	require.NoError(t, err)
	assert.Equal(t, "/plain/path", p)

	_, err = resolveAlias("@nowhere/x", nil)
	assert.ErrorIs(t, err, ErrUnknownAlias)
}

func TestThumbPath(t *testing.T) {
	assert.Equal(t, "/images/photo/image/thumb/5.jpg", thumbPath("/images/photo/image/5.jpg", "thumb"))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "/uploads/a.txt", joinURL("", "/uploads/a.txt"))
	assert.Equal(t, "https://cdn.example.com/uploads/a.txt", joinURL("https://cdn.example.com/", "/uploads/a.txt"))
}

func TestFormatValue(t *testing.T) {
	title := "Title"
	var missing *string

	assert.Equal(t, "Title", formatValue(&title))
	assert.Equal(t, "", formatValue(missing))
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, "42", formatValue(uint(42)))
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "2024-01-02 03:04:05", formatValue(stamp))
	assert.Equal(t, "2024-01-02-03-04-05", Slugify(formatValue(stamp)))
	assert.Equal(t, "", formatValue(gorm.DeletedAt{}))
}

func TestFileNames(t *testing.T) {
	f := FromBytes(`C:\Users\me\Quarterly Report.PDF`, []byte("x"))
	assert.Equal(t, "Quarterly Report", f.BaseName())
	assert.Equal(t, "pdf", f.Extension())
	assert.Equal(t, "Quarterly Report.pdf", f.StoredName())

	noExt := FromBytes("README", nil)
	assert.Equal(t, "", noExt.Extension())
	assert.Equal(t, "README", noExt.StoredName())
}
