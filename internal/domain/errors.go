package domain

import (
	"errors"
	"fmt"
)

// ErrUpstreamModel marks a language model call that failed after its retry
// budget, or returned an unusable result. Fatal to the enclosing stage.
var ErrUpstreamModel = errors.New("upstream model error")

// ErrSchemaViolation marks a structured response that failed validation
// against its expected shape. It matches ErrUpstreamModel under errors.Is.
var ErrSchemaViolation = fmt.Errorf("%w: schema violation", ErrUpstreamModel)

// ErrSummarizationReduce marks a failed reduce-phase call. Unlike map-phase
// chunk failures it is never swallowed: losing a reduce step loses a whole
// branch of input.
var ErrSummarizationReduce = errors.New("summarization reduce failed")

// ErrNotFound is returned when a technology scope matches no indexed chunks.
var ErrNotFound = errors.New("not found")
