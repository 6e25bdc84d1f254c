/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
)

// ErrorConstructor builds a domain error for a provider failure of op on resource.
type ErrorConstructor func(op, resource string, err error) error

// ErrorTable maps provider exception codes to domain error constructors.
type ErrorTable struct {
	constructors map[string]ErrorConstructor
	fallback     ErrorConstructor
}

// NewErrorTable creates a table; fallback handles codes that were never registered.
func NewErrorTable(fallback ErrorConstructor) *ErrorTable {
	return &ErrorTable{
		constructors: make(map[string]ErrorConstructor),
		fallback:     fallback,
	}
}

// Register adds a constructor for each code.
// Registering the same code twice panics to prevent accidental overrides.
func (t *ErrorTable) Register(fn ErrorConstructor, codes ...string) *ErrorTable {
	for _, code := range codes {
		if _, exists := t.constructors[code]; exists {
			panic(fmt.Sprintf("error table: code %q already registered", code))
		}
		t.constructors[code] = fn
	}
	return t
}

// Lookup returns the constructor registered for code.
func (t *ErrorTable) Lookup(code string) (ErrorConstructor, bool) {
	fn, ok := t.constructors[code]
	return fn, ok
}

// Translate converts err raised with code. Unregistered codes go to the fallback,
// or are returned unchanged when the table has none.
func (t *ErrorTable) Translate(code, op, resource string, err error) error {
	if fn, ok := t.constructors[code]; ok {
		return fn(op, resource, err)
	}
	if t.fallback != nil {
		return t.fallback(op, resource, err)
	}
	return err
}
