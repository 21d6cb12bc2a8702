package util

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUsernameTaken          = errors.New("username already exists")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUserDisabled           = errors.New("user is disabled")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrRecordNotFound         = errors.New("record not found")
	ErrDuplicateRecord        = errors.New("record already exists")
	ErrRecordInUse            = errors.New("record is referenced by other records")
	ErrSessionNotFound        = errors.New("question bank session not found")
	ErrSessionClosed          = errors.New("question bank session is closed")
	ErrNoModules              = errors.New("no modules")
	ErrDraftNotFound          = errors.New("draft not found")
	ErrQuestionBankNotFound   = errors.New("question bank not found")
	ErrCommentRequired        = errors.New("comment is required when rejecting")
	ErrAlreadyReviewed        = errors.New("question bank already reviewed")
	ErrInvalidImage           = errors.New("invalid image file")
	ErrImageTooLarge          = errors.New("image exceeds size limit")
	ErrConfigurationNotFound  = errors.New("no configuration for the selected course")
	ErrInvalidSectionRules    = errors.New("section rules require positive marks and question count")
	ErrDuplicateModuleNumbers = errors.New("module numbers must be unique")
	ErrInvalidModuleNumber    = errors.New("module number must be positive")
)
