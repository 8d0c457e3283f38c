// Package results defines the success/failure result value returned by service operations.
//
// Business failures travel as a Failure payload with a nil error so handlers can
// publish failure events; only infrastructure faults surface as Go errors.
package results

// OperationResult carries either a success payload or a failure payload.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

func (r OperationResult[S, F]) IsSuccess() bool { return r.Success != nil }

func (r OperationResult[S, F]) IsFailure() bool { return r.Failure != nil }

// Successf wraps a success payload.
func Successf[S any, F any](s S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &s}
}

// Failuref wraps a failure payload.
func Failuref[S any, F any](f F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &f}
}
