package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDimensions(t *testing.T) {
	w, h, err := ParseDimensions("640x480", "resize")
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)

	for _, bad := range []string{"", "640", "axb", "-1x10", "5000x10"} {
		_, _, err := ParseDimensions(bad, "resize")
		var fe FilterError
		require.ErrorAs(t, err, &fe, bad)
		assert.Equal(t, "resize", fe.FilterName)
	}
}

func TestCreateFilterBounds(t *testing.T) {
	tests := []struct {
		name    string
		param   string
		wantErr bool
	}{
		{"grayscale", "", false},
		{"invert", "", false},
		{"rotate", "90", false},
		{"rotate", "720", true},
		{"gaussian_blur", "0", true},
		{"gaussian_blur", "2.5", false},
		{"pixelate", "51", true},
		{"pixelate", "8", false},
		{"brightness_decrease", "30", false},
		{"saturation_increase", "201", true},
		{"sepia", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name+"="+tt.param, func(t *testing.T) {
			f, err := CreateFilter(tt.name, tt.param)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}
}

func TestParseFiltersSkipsUnknown(t *testing.T) {
	filters, err := ParseFilters(map[string]string{
		"grayscale": "",
		"page":      "2",
		"resize":    "10x10",
	})
	require.NoError(t, err)
	assert.Len(t, filters, 2)

	_, err = ParseFilters(map[string]string{"resize": "big"})
	assert.Error(t, err)
}
