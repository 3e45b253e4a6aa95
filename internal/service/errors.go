package service

import "errors"

// ErrInvalidRequest marks caller-fault input (missing symbol, non-positive
// amount or quantity). Detected before any transaction opens.
var ErrInvalidRequest = errors.New("invalid request")
