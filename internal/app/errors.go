package app

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNameTaken           = errors.New("company name already registered")
	ErrUnsupportedFile     = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds size limit")
	ErrTaskNotFound        = errors.New("task not found")
	ErrProviderUnavailable = errors.New("language model service unavailable, try again later")
	ErrPromptEmpty         = errors.New("prompt content is empty")
	ErrTaskEnqueue         = errors.New("task enqueue failed")
)
