/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import "sync"

type failure struct {
	nth int
	err error
}

// failures injects errors into the nth call of an operation and counts calls.
type failures struct {
	mu    sync.Mutex
	rules map[string][]failure
	calls map[string]int
}

func newFailures() *failures {
	return &failures{
		rules: make(map[string][]failure),
		calls: make(map[string]int),
	}
}

func (f *failures) add(op string, nth int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[op] = append(f.rules[op], failure{nth: nth, err: err})
}

// check counts a call of op and returns the injected error for it, if any.
func (f *failures) check(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	for _, r := range f.rules[op] {
		if r.nth == 0 || r.nth == f.calls[op] {
			return r.err
		}
	}
	return nil
}

// Calls returns how many times op was called.
func (f *failures) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}
