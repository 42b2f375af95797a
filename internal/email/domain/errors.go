package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrEmptyQuery        = errors.New("query must not be empty")
)

// CredentialError reports which credential is absent for which user.
type CredentialError struct {
	UserID   string
	Resource string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s: %s for user %q", ErrMissingCredential, e.Resource, e.UserID)
}

func (e *CredentialError) Unwrap() error {
	return ErrMissingCredential
}

// Pipeline stages.
const (
	StageRefine    = "refine"
	StageSearch    = "search"
	StageSelect    = "select"
	StageSummarize = "summarize"
)

// PipelineError is a retrieval failure at a given stage.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
