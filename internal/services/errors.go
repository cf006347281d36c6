package services

import "errors"

// Service-level errors
var (
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrInvalidCode      = errors.New("code must be exactly 6 digits")
	ErrIncorrectCode    = errors.New("incorrect code")
	ErrInvalidCEP       = errors.New("invalid CEP")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPropertyNotFound = errors.New("property not found")
	ErrWizardNotFound   = errors.New("wizard not found")
)
