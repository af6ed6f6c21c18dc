package object

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrImmutableBinding  = errors.New("cannot assign to immutable binding")
	ErrUndefinedVariable = errors.New("assignment to undefined variable")
)

// Environment is one lexical scope frame. Lookup walks the Outer chain from
// innermost to outermost; closures hold their defining frame by reference,
// so they observe later mutations of captured bindings.
type Environment struct {
	bindings map[string]*Binding
	Outer    *Environment

	mu sync.RWMutex
}

type Binding struct {
	Value   Object
	Mutable bool
}

func NewEnvironment() *Environment {
	return &Environment{bindings: make(map[string]*Binding)}
}

// NewEnclosedEnvironment creates a child frame for a block, function body,
// match arm or catch clause.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.Outer = outer
	return env
}

// Get walks outward and returns the first binding for name.
func (e *Environment) Get(name string) (Object, bool) {
	e.mu.RLock()
	binding, ok := e.bindings[name]
	e.mu.RUnlock()
	if ok {
		return binding.Value, true
	}
	if e.Outer != nil {
		return e.Outer.Get(name)
	}
	return nil, false
}

// GetLocal looks only in this frame, without walking outers.
func (e *Environment) GetLocal(name string) (Object, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	binding, ok := e.bindings[name]
	if !ok {
		return nil, false
	}
	return binding.Value, true
}

// Define introduces a binding in this frame. Redefining a name in the same
// frame shadows the previous binding, matching block-scoped `let`.
func (e *Environment) Define(name string, val Object, mutable bool) Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bindings[name] = &Binding{Value: val, Mutable: mutable}
	return val
}

// Assign walks outward and mutates the first frame already defining name.
// Assigning to an immutable binding or an undefined name is an error.
func (e *Environment) Assign(name string, val Object) (Object, error) {
	e.mu.Lock()
	binding, ok := e.bindings[name]
	if ok {
		defer e.mu.Unlock()
		if !binding.Mutable {
			return nil, fmt.Errorf("%w '%s'", ErrImmutableBinding, name)
		}
		binding.Value = val
		return val, nil
	}
	e.mu.Unlock()

	if e.Outer != nil {
		return e.Outer.Assign(name, val)
	}
	return nil, fmt.Errorf("%w '%s'", ErrUndefinedVariable, name)
}
