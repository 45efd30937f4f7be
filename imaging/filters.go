package imaging

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/gift"
)

const (
	MaxImageWidth  = 4000
	MaxImageHeight = 4000
	MaxBlurRadius  = 50
	MaxBrightness  = 100
	MaxContrast    = 100
	MaxSaturation  = 200
	MaxPixelate    = 50
)

var supportedFilters = map[string]bool{
	"resize":              true,
	"crop_to_size":        true,
	"rotate":              true,
	"brightness_increase": true,
	"brightness_decrease": true,
	"contrast_increase":   true,
	"contrast_decrease":   true,
	"saturation_increase": true,
	"saturation_decrease": true,
	"gaussian_blur":       true,
	"pixelate":            true,
	"grayscale":           true,
	"invert":              true,
}

type FilterError struct {
	FilterName string
	Message    string
}

func (e FilterError) Error() string {
	return fmt.Sprintf("filter '%s': %s", e.FilterName, e.Message)
}

// IsSupported reports whether name is a known filter.
func IsSupported(name string) bool {
	return supportedFilters[name]
}

func parseIntParam(param, paramName string) (int, error) {
	if param == "" {
		return 0, fmt.Errorf("%s parameter is required", paramName)
	}

	value, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}

	if value < 0 {
		return 0, fmt.Errorf("%s must be positive", paramName)
	}

	return value, nil
}

func parseFloatParam(param, paramName string, min, max float32) (float32, error) {
	if param == "" {
		return 0, fmt.Errorf("%s parameter is required", paramName)
	}

	value, err := strconv.ParseFloat(param, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be a number", paramName)
	}

	floatVal := float32(value)
	if floatVal < min || floatVal > max {
		return 0, fmt.Errorf("%s must be between %.1f and %.1f", paramName, min, max)
	}

	return floatVal, nil
}

// ParseDimensions parses "WIDTHxHEIGHT".
func ParseDimensions(param, filterName string) (int, int, error) {
	if param == "" {
		return 0, 0, FilterError{filterName, "dimensions parameter is required"}
	}

	parts := strings.Split(param, "x")
	if len(parts) != 2 {
		return 0, 0, FilterError{filterName, "dimensions must be in format 'widthxheight'"}
	}

	width, err := parseIntParam(parts[0], "width")
	if err != nil {
		return 0, 0, FilterError{filterName, err.Error()}
	}

	height, err := parseIntParam(parts[1], "height")
	if err != nil {
		return 0, 0, FilterError{filterName, err.Error()}
	}

	if width > MaxImageWidth || height > MaxImageHeight {
		return 0, 0, FilterError{filterName, fmt.Sprintf("dimensions too large (max %dx%d)", MaxImageWidth, MaxImageHeight)}
	}

	return width, height, nil
}

// CreateFilter builds the gift filter for name with its raw parameter.
func CreateFilter(filterName, param string) (gift.Filter, error) {
	switch filterName {
	case "resize":
		width, height, err := ParseDimensions(param, filterName)
		if err != nil {
			return nil, err
		}
		return gift.Resize(width, height, gift.LanczosResampling), nil

	case "crop_to_size":
		width, height, err := ParseDimensions(param, filterName)
		if err != nil {
			return nil, err
		}
		return gift.CropToSize(width, height, gift.CenterAnchor), nil

	case "rotate":
		degree, err := parseFloatParam(param, "rotation angle", -360, 360)
		if err != nil {
			return nil, FilterError{filterName, err.Error()}
		}
		return gift.Rotate(degree, color.Transparent, gift.CubicInterpolation), nil

	case "brightness_increase", "brightness_decrease":
		value, err := parseFloatParam(param, "brightness", 0, MaxBrightness)
		if err != nil {
			return nil, FilterError{filterName, err.Error()}
		}
		return gift.Brightness(signed(filterName, value)), nil

	case "contrast_increase", "contrast_decrease":
		value, err := parseFloatParam(param, "contrast", 0, MaxContrast)
		if err != nil {
			return nil, FilterError{filterName, err.Error()}
		}
		return gift.Contrast(signed(filterName, value)), nil

	case "saturation_increase", "saturation_decrease":
		value, err := parseFloatParam(param, "saturation", 0, MaxSaturation)
		if err != nil {
			return nil, FilterError{filterName, err.Error()}
		}
		return gift.Saturation(signed(filterName, value)), nil

	case "gaussian_blur":
		value, err := parseFloatParam(param, "blur radius", 0.1, MaxBlurRadius)
		if err != nil {
			return nil, FilterError{filterName, err.Error()}
		}
		return gift.GaussianBlur(value), nil

	case "pixelate":
		value, err := parseIntParam(param, "pixelate size")
		if err != nil {
			return nil, FilterError{filterName, err.Error()}
		}
		if value > MaxPixelate {
			return nil, FilterError{filterName, fmt.Sprintf("pixelate size too large (max %d)", MaxPixelate)}
		}
		return gift.Pixelate(value), nil

	case "grayscale":
		return gift.Grayscale(), nil

	case "invert":
		return gift.Invert(), nil

	default:
		return nil, FilterError{filterName, "unsupported filter"}
	}
}

func signed(filterName string, value float32) float32 {
	if strings.HasSuffix(filterName, "_decrease") {
		return -value
	}
	return value
}

// ParseFilters turns name=param pairs into filters, skipping unknown names.
// Filters are applied in name order so the result does not depend on map iteration.
func ParseFilters(params map[string]string) ([]gift.Filter, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		if supportedFilters[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	filters := make([]gift.Filter, 0, len(names))
	for _, name := range names {
		filter, err := CreateFilter(name, params[name])
		if err != nil {
			return nil, err
		}
		filters = append(filters, filter)
	}

	return filters, nil
}
