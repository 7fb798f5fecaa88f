package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrUnknownEngine is returned when a check names an engine that is not configured.
var ErrUnknownEngine = errors.New("unknown engine")
