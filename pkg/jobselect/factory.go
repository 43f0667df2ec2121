package jobselect

import "fmt"

// New builds the configured job selector.
func New(method Method) (Selector, error) {
	switch method {
	case MethodPickFirst:
		return PickFirst{}, nil
	case MethodCheckResource:
		return CheckResource{}, nil
	default:
		return nil, fmt.Errorf("jobselect: unknown method %q", method)
	}
}
