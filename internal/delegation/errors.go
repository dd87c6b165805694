package delegation

import (
	"errors"
	"fmt"

	"github.com/cyphera/authority-proxy/internal/metadata"
	"github.com/cyphera/authority-proxy/internal/pda"
)

var (
	// ErrUnauthorized means the supplied metadata account is not the
	// canonical record for the mint.
	ErrUnauthorized = pda.ErrUnauthorized

	// ErrDispatchRejected means the metadata program refused a call. The
	// program's own error is wrapped unchanged.
	ErrDispatchRejected = errors.New("metadata program rejected dispatch")

	// ErrEncodingInvariant means a fixed-shape instruction failed to encode.
	ErrEncodingInvariant = metadata.ErrEncodingInvariant

	// ErrInvalidProgram means a supplied program or sysvar account is not
	// the fixed identity the proxy expects.
	ErrInvalidProgram = errors.New("invalid program account")
)

// DispatchError carries the step that failed and the registry's error.
type DispatchError struct {
	Step string
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDispatchRejected, e.Step, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func (e *DispatchError) Is(target error) bool {
	return target == ErrDispatchRejected
}
