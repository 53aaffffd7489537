package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the class of every missing-entity error.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when an operation does not fit the submission lifecycle.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidAnswer is returned when a submitted answer is rejected.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrPaperNotFound indicates the exam paper does not exist.
	ErrPaperNotFound = fmt.Errorf("exam paper %w", ErrNotFound)
	// ErrSubmissionNotFound indicates the submission does not exist.
	ErrSubmissionNotFound = fmt.Errorf("submission %w", ErrNotFound)
	// ErrQuestionNotFound indicates the question is not in the catalog.
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)

	// ErrSubmissionFinalized is returned for writes after finalize.
	ErrSubmissionFinalized = fmt.Errorf("%w: submission already finalized", ErrInvalidState)

	// ErrQuestionNotInPaper is returned when answers are scoped to the paper snapshot.
	ErrQuestionNotInPaper = fmt.Errorf("%w: question not part of submission", ErrInvalidAnswer)
	// ErrOptionNotFound indicates the selected option is not one of the question's options.
	ErrOptionNotFound = fmt.Errorf("%w: option not found", ErrInvalidAnswer)

	// ErrInvalidPaper is returned when a paper definition fails validation.
	ErrInvalidPaper = errors.New("invalid exam paper")
	// ErrInvalidDimension is returned for an unknown analytics dimension.
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrMissingUser is returned when no user id accompanies a request.
	ErrMissingUser = errors.New("user id required")
	// ErrAttemptNotAllowed is returned when the entitlement gate refuses an attempt.
	ErrAttemptNotAllowed = errors.New("attempt not allowed")
)
