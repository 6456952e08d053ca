package model

import "errors"

// Not-found errors shared by the repository and service layers.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrPhraseNotFound   = errors.New("phrase not found")
	ErrResponseNotFound = errors.New("response not found")
)
