package analysis

import "errors"

// ErrInvalidInput is returned by AnalyzeRules when the batch cannot be
// evaluated at all: a rule without a name, or an empty document. It is the
// only error AnalyzeRules ever returns.
var ErrInvalidInput = errors.New("invalid analysis input")
