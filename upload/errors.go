package upload

import "errors"

var (
	ErrMissingBehavior = errors.New("missing behavior for attribute")
	ErrFileSave        = errors.New("file saving error")
	ErrUnknownAlias    = errors.New("unknown path alias")
	ErrInvalidFile     = errors.New("invalid upload")
	ErrNotImage        = errors.New("behavior does not handle images")
	ErrUnknownProfile  = errors.New("unknown thumbnail profile")
	ErrNoStorage       = errors.New("upload storage is not configured")
)
