package queueselect

import (
	"fmt"
	"math/rand"
)

// New builds the configured queue selector. weights feeds WeightedRandom
// (SELECT_WEIGHT); order feeds Zip (SELECT_ORDER); both are ignored by
// TopLevel.
func New(method Method, weights []float64, order []int) (Selector, error) {
	switch method {
	case MethodTopLevel:
		return TopLevel{}, nil
	case MethodWeightRandom:
		return NewWeightedRandom(weights, rand.New(rand.NewSource(rand.Int63()))), nil
	case MethodZip:
		return NewOrder(order), nil
	default:
		return nil, fmt.Errorf("queueselect: unknown method %q", method)
	}
}
