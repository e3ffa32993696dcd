package askdocs

import "fmt"

// Status is the explicit success/failure result returned by every document
// store boundary operation. Code 0 is success; any other value is a failure
// the caller may recover from.
type Status struct {
	Code    int
	Message string
}

// OK reports whether the operation succeeded.
func (s Status) OK() bool { return s.Code == 0 }

func successf(format string, args ...interface{}) Status {
	return Status{Code: 0, Message: fmt.Sprintf(format, args...)}
}

func failuref(format string, args ...interface{}) Status {
	return Status{Code: -1, Message: fmt.Sprintf(format, args...)}
}
