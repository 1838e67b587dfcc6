package entity

import "errors"

// Domain errors for words, challenges and review scheduling.
var (
	ErrWordNotFound      = errors.New("word not found")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrNoTestableWords   = errors.New("no words available for testing")

	ErrDuplicateWord = errors.New("word already exists")
	ErrStaleWord     = errors.New("word was modified concurrently")

	ErrInvalidStatus     = errors.New("invalid mastery status")
	ErrInvalidWord       = errors.New("invalid word text")
	ErrInvalidDefinition = errors.New("invalid definition")
	ErrInvalidLanguage   = errors.New("invalid language code")
	ErrInvalidUserID     = errors.New("invalid user ID")
	ErrInvalidGuess      = errors.New("invalid guess")
	ErrInvalidFilter     = errors.New("invalid list query")
)
