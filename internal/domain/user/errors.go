package user

import "errors"

var (
	ErrInvalidRole             = errors.New("invalid role")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrEmployeeIDRequired      = errors.New("employee ID is required")
)
