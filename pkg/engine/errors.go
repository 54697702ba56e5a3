package engine

import "errors"

var (
	// ErrEngineSaturated is returned by Start when every execution slot is
	// taken. It is the one engine error the gateway reports synchronously.
	ErrEngineSaturated = errors.New("engine cannot accept new executions")

	// ErrCapability marks a failed external capability invocation.
	ErrCapability = errors.New("capability invocation failed")

	// ErrStepOutput marks a projection that could not be applied because a
	// step produced unusable output (wrong shape, missing field, empty list).
	ErrStepOutput = errors.New("step produced unusable output")

	// ErrRouting marks a Choice state where no rule matched and no default
	// was declared. It is an internal engine error, distinct from ErrCapability.
	ErrRouting = errors.New("no choice rule matched and no default is declared")
)
