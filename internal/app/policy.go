package app

import "fmt"

// DefaultQuestionLimit caps filter-resolved papers when no limit is configured.
const DefaultQuestionLimit = 50

// AnswerScope controls which question ids SubmitAnswer accepts.
type AnswerScope string

const (
	// AnswerScopeOpen accepts any catalog question, including ones outside the paper.
	AnswerScopeOpen AnswerScope = "open"
	// AnswerScopePaper accepts only questions in the submission snapshot.
	AnswerScopePaper AnswerScope = "paper"
)

// FinalizePolicy controls what a second Finalize call does.
type FinalizePolicy string

const (
	// FinalizeIdempotent returns the stored result of an already finalized submission.
	FinalizeIdempotent FinalizePolicy = "idempotent"
	// FinalizeRecompute scores again and overwrites submittedAt.
	FinalizeRecompute FinalizePolicy = "recompute"
)

// Policy groups the engine's configurable behaviors.
type Policy struct {
	DefaultLimit  int
	AnswerScope   AnswerScope
	Finalize      FinalizePolicy
	CompletedOnly bool // analytics ignore open submissions
}

// DefaultPolicy keeps the permissive answer scope and makes finalize idempotent.
func DefaultPolicy() Policy {
	return Policy{
		DefaultLimit: DefaultQuestionLimit,
		AnswerScope:  AnswerScopeOpen,
		Finalize:     FinalizeIdempotent,
	}
}

// ParsePolicy builds a Policy from configuration strings; empty values keep defaults.
func ParsePolicy(limit int, scope, finalize string, completedOnly bool) (Policy, error) {
	p := DefaultPolicy()
	if limit > 0 {
		p.DefaultLimit = limit
	}
	switch AnswerScope(scope) {
	case "":
	case AnswerScopeOpen, AnswerScopePaper:
		p.AnswerScope = AnswerScope(scope)
	default:
		return p, fmt.Errorf("unknown answer scope %q", scope)
	}
	switch FinalizePolicy(finalize) {
	case "":
	case FinalizeIdempotent, FinalizeRecompute:
		p.Finalize = FinalizePolicy(finalize)
	default:
		return p, fmt.Errorf("unknown finalize policy %q", finalize)
	}
	p.CompletedOnly = completedOnly
	return p, nil
}
