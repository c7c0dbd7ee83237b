package program

import "errors"

var (
	ErrConnectivity  = errors.New("connectivity error")
	ErrConfiguration = errors.New("configuration error")
	ErrFunding       = errors.New("funding error")
	ErrDeployment    = errors.New("deployment error")
	ErrSubmission    = errors.New("submission error")
	ErrSchema        = errors.New("schema error")
	ErrNotFound      = errors.New("not found")
)
