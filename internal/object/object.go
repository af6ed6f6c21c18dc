package object

import (
	"bytes"
	"fmt"
	"rill/internal/ast"
	"strconv"
	"strings"
	"sync"
)

const (
	UNIT_OBJ    = "UNIT"
	BOOLEAN_OBJ = "BOOLEAN"
	INTEGER_OBJ = "INTEGER"
	FLOAT_OBJ   = "FLOAT"
	CHAR_OBJ    = "CHAR"
	STRING_OBJ  = "STRING"

	ARRAY_OBJ = "ARRAY"
	TUPLE_OBJ = "TUPLE"
	MAP_OBJ   = "MAP"
	RANGE_OBJ = "RANGE"

	FUNCTION_OBJ = "FUNCTION"
	BUILTIN_OBJ  = "BUILTIN"

	CLASS_OBJ    = "CLASS"
	INSTANCE_OBJ = "INSTANCE"

	ENUM_OBJ    = "ENUM"
	VARIANT_OBJ = "VARIANT"

	ACTOR_OBJ     = "ACTOR"
	ACTOR_REF_OBJ = "ACTOR_REF"

	RETURN_VALUE_OBJ = "RETURN_VALUE"
	BREAK_OBJ        = "BREAK"
	CONTINUE_OBJ     = "CONTINUE"
	THROW_OBJ        = "THROW"
	ERROR_OBJ        = "ERROR"
)

var (
	UNIT  = &Unit{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

type ObjectType string

type Object interface {
	Type() ObjectType
	Inspect() string
}

// BuiltinFunction is the host-side body of a native builtin. It receives
// already-evaluated arguments and returns a value or an error object; the
// call path treats builtins exactly like user closures.
type BuiltinFunction func(args ...Object) Object

type Unit struct{}

func (u *Unit) Type() ObjectType { return UNIT_OBJ }
func (u *Unit) Inspect() string  { return "()" }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return fmt.Sprintf("%t", b.Value) }

type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return strconv.FormatFloat(f.Value, 'g', -1, 64) }

type Char struct {
	Value rune
}

func (c *Char) Type() ObjectType { return CHAR_OBJ }
func (c *Char) Inspect() string  { return "'" + string(c.Value) + "'" }

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return "\"" + s.Value + "\"" }

// Array shares its element buffer on assignment; every mutating operation
// goes through WithSet (or builds a fresh slice), so aliasing is never
// observable at the language level.
type Array struct {
	Elements []Object
}

func (a *Array) Type() ObjectType { return ARRAY_OBJ }
func (a *Array) Inspect() string {
	elements := []string{}
	for _, e := range a.Elements {
		elements = append(elements, e.Inspect())
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

// WithSet returns a new array with index idx replaced. The receiver's
// buffer is not touched.
func (a *Array) WithSet(idx int, val Object) *Array {
	elements := make([]Object, len(a.Elements))
	copy(elements, a.Elements)
	elements[idx] = val
	return &Array{Elements: elements}
}

type Tuple struct {
	Elements []Object
}

func (t *Tuple) Type() ObjectType { return TUPLE_OBJ }
func (t *Tuple) Inspect() string {
	elements := []string{}
	for _, e := range t.Elements {
		elements = append(elements, e.Inspect())
	}
	return "(" + strings.Join(elements, ", ") + ")"
}

// Map is a string-keyed mapping that preserves insertion order. Like Array
// it is copy-on-write: WithSet never mutates the receiver.
type Map struct {
	keys  []string
	pairs map[string]Object
}

func NewMap() *Map {
	return &Map{pairs: map[string]Object{}}
}

func (m *Map) Type() ObjectType { return MAP_OBJ }
func (m *Map) Inspect() string {
	var out bytes.Buffer
	out.WriteString("{")
	parts := []string{}
	for _, k := range m.keys {
		parts = append(parts, "\""+k+"\": "+m.pairs[k].Inspect())
	}
	out.WriteString(strings.Join(parts, ", "))
	out.WriteString("}")
	return out.String()
}

func (m *Map) Get(key string) (Object, bool) {
	v, ok := m.pairs[key]
	return v, ok
}

func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order. Callers must not mutate the
// returned slice.
func (m *Map) Keys() []string { return m.keys }

// Set mutates in place; only map construction uses it. Language-level
// updates go through WithSet.
func (m *Map) Set(key string, val Object) {
	if _, ok := m.pairs[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.pairs[key] = val
}

// WithSet returns a new map with key set, leaving the receiver untouched.
func (m *Map) WithSet(key string, val Object) *Map {
	next := &Map{
		keys:  make([]string, len(m.keys)),
		pairs: make(map[string]Object, len(m.pairs)+1),
	}
	copy(next.keys, m.keys)
	for k, v := range m.pairs {
		next.pairs[k] = v
	}
	next.Set(key, val)
	return next
}

type Range struct {
	Start     int64
	End       int64
	Inclusive bool
}

func (r *Range) Type() ObjectType { return RANGE_OBJ }
func (r *Range) Inspect() string {
	op := ".."
	if r.Inclusive {
		op = "..="
	}
	return fmt.Sprintf("%d%s%d", r.Start, op, r.End)
}

// Len is the number of values the range yields.
func (r *Range) Len() int64 {
	n := r.End - r.Start
	if r.Inclusive {
		n++
	}
	if n < 0 {
		return 0
	}
	return n
}

// Contains reports whether v falls inside the range.
func (r *Range) Contains(v int64) bool {
	if r.Inclusive {
		return v >= r.Start && v <= r.End
	}
	return v >= r.Start && v < r.End
}

// Function is a user closure: parameter list, body reference and the
// defining environment captured by shared reference.
type Function struct {
	Name       string // "" for anonymous functions
	Parameters []*ast.Identifier
	Body       *ast.BlockStatement
	Env        *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	params := []string{}
	for _, p := range f.Parameters {
		params = append(params, p.String())
	}
	name := f.Name
	if name != "" {
		name = " " + name
	}
	return "fn" + name + "(" + strings.Join(params, ", ") + ") { ... }"
}

type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "builtin " + b.Name }

// Class carries the constructor and the method table shared by every
// instance; methods are never copied per instance.
type Class struct {
	Name    string
	Init    *Function // nil when the class declares no constructor
	Methods map[string]*Function
	Env     *Environment // defining environment, captured for method bodies
}

func (c *Class) Type() ObjectType { return CLASS_OBJ }
func (c *Class) Inspect() string  { return "class " + c.Name }

// Instance is a reference-semantic cell: assignment shares the cell and a
// field write through any reference is visible through all of them. Field
// access is lock-scoped; the lock is never held across evaluation of user
// code (see Snapshot/GetField/SetField).
type Instance struct {
	Class *Class
	mu    sync.Mutex
	seen  bool // guards Inspect against self-referential fields
	flds  map[string]Object
	order []string
}

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, flds: map[string]Object{}}
}

func (i *Instance) Type() ObjectType { return INSTANCE_OBJ }

func (i *Instance) Inspect() string {
	i.mu.Lock()
	if i.seen {
		i.mu.Unlock()
		return i.Class.Name + " { ... }"
	}
	i.seen = true
	order := make([]string, len(i.order))
	copy(order, i.order)
	flds := make(map[string]Object, len(i.flds))
	for k, v := range i.flds {
		flds[k] = v
	}
	i.mu.Unlock()

	parts := []string{}
	for _, k := range order {
		parts = append(parts, k+": "+flds[k].Inspect())
	}

	i.mu.Lock()
	i.seen = false
	i.mu.Unlock()
	return i.Class.Name + " { " + strings.Join(parts, ", ") + " }"
}

// GetField reads one field under the instance lock and releases it before
// returning, so the caller never re-enters the evaluator while holding it.
func (i *Instance) GetField(name string) (Object, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, ok := i.flds[name]
	return v, ok
}

func (i *Instance) SetField(name string, val Object) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.flds[name]; !ok {
		i.order = append(i.order, name)
	}
	i.flds[name] = val
}

// FieldNames returns the field names in definition order.
func (i *Instance) FieldNames() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	names := make([]string, len(i.order))
	copy(names, i.order)
	return names
}

// Enum is the declared type; Variants maps variant name to payload arity.
type Enum struct {
	Name     string
	Variants map[string]int
	Order    []string
}

func (e *Enum) Type() ObjectType { return ENUM_OBJ }
func (e *Enum) Inspect() string  { return "enum " + e.Name }

// Variant is a constructed enum value: tag plus optional payload. A
// zero-arity variant bound in the environment doubles as its own
// constructor result.
type Variant struct {
	Enum    string
	Name    string
	Arity   int
	Payload []Object
}

func (v *Variant) Type() ObjectType { return VARIANT_OBJ }
func (v *Variant) Inspect() string {
	if len(v.Payload) == 0 {
		return v.Name
	}
	parts := []string{}
	for _, p := range v.Payload {
		parts = append(parts, p.Inspect())
	}
	return v.Name + "(" + strings.Join(parts, ", ") + ")"
}

// ActorDef is the declared actor: constructor, optional methods and the
// receive arms shared by every spawned instance.
type ActorDef struct {
	Name    string
	Init    *Function
	Methods map[string]*Function
	Receive []*ast.MatchArm
	Env     *Environment
}

func (a *ActorDef) Type() ObjectType { return ACTOR_OBJ }
func (a *ActorDef) Inspect() string  { return "actor " + a.Name }

// ActorRef is an opaque mailbox handle. Equality is identity: two refs are
// equal iff they carry the same PID. The runtime resolves the PID against
// its registry on every send.
type ActorRef struct {
	PID       int64
	ActorName string
}

func (a *ActorRef) Type() ObjectType { return ACTOR_REF_OBJ }
func (a *ActorRef) Inspect() string {
	return fmt.Sprintf("<actor %s #%d>", a.ActorName, a.PID)
}

// ---------------------------------------------------------------------------
// Control signals. These are never ordinary values: each one is produced by
// exactly one statement kind and consumed by exactly one construct, and the
// evaluator threads them through the same result channel as values.
// ---------------------------------------------------------------------------

type ReturnValue struct {
	Value Object
}

func (rv *ReturnValue) Type() ObjectType { return RETURN_VALUE_OBJ }
func (rv *ReturnValue) Inspect() string  { return rv.Value.Inspect() }

type BreakValue struct {
	Value Object
	Label string // "" targets the innermost loop
}

func (bv *BreakValue) Type() ObjectType { return BREAK_OBJ }
func (bv *BreakValue) Inspect() string  { return "break " + bv.Value.Inspect() }

type ContinueValue struct {
	Label string
}

func (cv *ContinueValue) Type() ObjectType { return CONTINUE_OBJ }
func (cv *ContinueValue) Inspect() string  { return "continue" }

// Throw carries a user-thrown payload (or a host error routed through the
// same channel) until a try/catch intercepts it.
type Throw struct {
	Payload Object
}

func (t *Throw) Type() ObjectType { return THROW_OBJ }
func (t *Throw) Inspect() string  { return "throw " + t.Payload.Inspect() }

// RuntimeError kinds, mirrored by the `kind` field the catch clause sees.
const (
	UndefinedVariable  = "UndefinedVariable"
	ImmutableBinding   = "ImmutableBinding"
	ArityMismatch      = "ArityMismatch"
	MethodNotFound     = "MethodNotFound"
	MissingConstructor = "MissingConstructor"
	TypeMismatch       = "TypeMismatch"
	NoMatchingArm      = "NoMatchingArm"
	DivisionByZero     = "DivisionByZero"
	IndexOutOfRange    = "IndexOutOfRange"
	KeyNotFound        = "KeyNotFound"
	IllegalControl     = "IllegalControl"
	ActorStopped       = "ActorStopped"
	AskTimeout         = "AskTimeout"
	UncaughtThrow      = "UncaughtThrow"
	HostError          = "HostError"
)

type RuntimeError struct {
	Kind    string
	Message string
}

func (re *RuntimeError) Type() ObjectType { return ERROR_OBJ }
func (re *RuntimeError) Inspect() string  { return re.Kind + ": " + re.Message }

// IsSignal reports whether obj is a non-value outcome (control transfer or
// error) that must abort the surrounding evaluation.
func IsSignal(obj Object) bool {
	switch obj.(type) {
	case *ReturnValue, *BreakValue, *ContinueValue, *Throw, *RuntimeError:
		return true
	}
	return false
}

// IsError reports whether obj is a throw or runtime error, the two outcomes
// a try/catch intercepts.
func IsError(obj Object) bool {
	switch obj.(type) {
	case *Throw, *RuntimeError:
		return true
	}
	return false
}

// Equals implements language-level equality: structural for value types,
// identity for instances and actor refs.
func Equals(a, b Object) bool {
	switch av := a.(type) {
	case *Integer:
		if bv, ok := b.(*Integer); ok {
			return av.Value == bv.Value
		}
		if bv, ok := b.(*Float); ok {
			return float64(av.Value) == bv.Value
		}
		return false
	case *Float:
		if bv, ok := b.(*Float); ok {
			return av.Value == bv.Value
		}
		if bv, ok := b.(*Integer); ok {
			return av.Value == float64(bv.Value)
		}
		return false
	case *Boolean:
		bv, ok := b.(*Boolean)
		return ok && av.Value == bv.Value
	case *Char:
		bv, ok := b.(*Char)
		return ok && av.Value == bv.Value
	case *String:
		bv, ok := b.(*String)
		return ok && av.Value == bv.Value
	case *Unit:
		_, ok := b.(*Unit)
		return ok
	case *Array:
		bv, ok := b.(*Array)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equals(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Tuple:
		bv, ok := b.(*Tuple)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equals(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.keys {
			bval, ok := bv.Get(k)
			if !ok || !Equals(av.pairs[k], bval) {
				return false
			}
		}
		return true
	case *Range:
		bv, ok := b.(*Range)
		return ok && av.Start == bv.Start && av.End == bv.End && av.Inclusive == bv.Inclusive
	case *Variant:
		bv, ok := b.(*Variant)
		if !ok || av.Enum != bv.Enum || av.Name != bv.Name || len(av.Payload) != len(bv.Payload) {
			return false
		}
		for i := range av.Payload {
			if !Equals(av.Payload[i], bv.Payload[i]) {
				return false
			}
		}
		return true
	case *Instance:
		// Identity, never structural.
		return a == b
	case *ActorRef:
		bv, ok := b.(*ActorRef)
		return ok && av.PID == bv.PID
	}
	return a == b
}

// IsTruthy follows the language's truthiness rules: false and unit are
// falsy, everything else is truthy.
func IsTruthy(obj Object) bool {
	switch v := obj.(type) {
	case *Boolean:
		return v.Value
	case *Unit:
		return false
	default:
		return true
	}
}

func NativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}
