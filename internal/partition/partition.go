// Package partition splits the provisioned code pool across virtual users.
package partition

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument signals a violated precondition on partition inputs.
// It is a programming error on the caller's side and is never silently corrected.
var ErrInvalidArgument = errors.New("invalid argument")

// ComputeSlice returns the contiguous sub-range of pool owned by the worker with
// the given 1-based index. Slices across the full worker range 1..workerCount are
// pairwise disjoint and together reconstitute pool exactly.
//
// The pool is divided into chunks of len(pool)/workerCount items; the last worker
// absorbs the remainder. When there are more workers than codes each of the first
// len(pool) workers gets exactly one code and the rest get nothing.
func ComputeSlice(pool []string, workerCount, workerIndex int) ([]string, error) {
	if workerCount < 1 {
		return nil, fmt.Errorf("%w: workerCount must be >= 1, got %d", ErrInvalidArgument, workerCount)
	}
	if workerIndex < 1 || workerIndex > workerCount {
		return nil, fmt.Errorf("%w: workerIndex %d outside [1, %d]", ErrInvalidArgument, workerIndex, workerCount)
	}

	chunkSize := len(pool) / workerCount
	if chunkSize == 0 {
		// More workers than codes: one code per worker until the pool runs out.
		if workerIndex-1 < len(pool) {
			return pool[workerIndex-1 : workerIndex], nil
		}
		return nil, nil
	}

	startIndex := (workerIndex - 1) * chunkSize
	endIndex := startIndex + chunkSize
	if workerIndex == workerCount {
		endIndex = len(pool)
	}
	return pool[startIndex:endIndex], nil
}
