package template

import "errors"

// Sentinel errors for the template service layer.
var (
	ErrNotFound       = errors.New("template not found")
	ErrInvalidContent = errors.New("template subject and body are required")
)
