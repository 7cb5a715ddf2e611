package harness

import "fmt"

// StoreError reports a failed operation against the external session store.
// The run aborts where it stood; nothing is retried or compensated.
type StoreError struct {
	Op  string // "get", "setex", "expire"
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("session store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// DispatchError reports a failed agent invocation: setup, stream transport,
// or an error result from the agent itself.
type DispatchError struct {
	Routine string
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Routine, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// OutputError reports a failed output handler. The dispatch already
// completed and any session write-back already happened; the collected
// output is lost with the error.
type OutputError struct {
	Routine string
	Err     error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("handle output of %s: %v", e.Routine, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }
