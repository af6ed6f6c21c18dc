package evaluator

import (
	"rill/internal/ast"
	"rill/internal/object"
)

type binding struct {
	name  string
	value object.Object
}

// matchPattern reports whether value matches pattern and, when it does,
// which names the pattern binds. Bindings are collected first and only
// defined by the caller once the whole pattern (and any guard) succeeds.
func (e *Evaluator) matchPattern(pattern ast.MatchPattern, value object.Object) ([]binding, bool) {
	switch pattern := pattern.(type) {
	case *ast.WildcardPattern:
		return nil, true

	case *ast.IdentifierPattern:
		return []binding{{name: pattern.Value.Value, value: value}}, true

	case *ast.LiteralPattern:
		expected := e.Eval(pattern.Value)
		if object.IsSignal(expected) {
			return nil, false
		}
		return nil, object.Equals(expected, value)

	case *ast.RangePattern:
		return nil, e.matchRangePattern(pattern, value)

	case *ast.TuplePattern:
		tuple, ok := value.(*object.Tuple)
		if !ok || len(tuple.Elements) != len(pattern.Elements) {
			return nil, false
		}
		return e.matchElementwise(pattern.Elements, tuple.Elements)

	case *ast.ArrayPattern:
		return e.matchArrayPattern(pattern, value)

	case *ast.VariantPattern:
		return e.matchVariantPattern(pattern, value)

	case *ast.StructPattern:
		return e.matchStructPattern(pattern, value)
	}

	return nil, false
}

func (e *Evaluator) matchRangePattern(pattern *ast.RangePattern, value object.Object) bool {
	v, ok := value.(*object.Integer)
	if !ok {
		return false
	}
	start := e.Eval(pattern.Start)
	end := e.Eval(pattern.End)
	si, ok := start.(*object.Integer)
	if !ok {
		return false
	}
	ei, ok := end.(*object.Integer)
	if !ok {
		return false
	}
	r := &object.Range{Start: si.Value, End: ei.Value, Inclusive: pattern.Inclusive}
	return r.Contains(v.Value)
}

func (e *Evaluator) matchElementwise(patterns []ast.MatchPattern, values []object.Object) ([]binding, bool) {
	var bindings []binding
	for i, sub := range patterns {
		bs, ok := e.matchPattern(sub, values[i])
		if !ok {
			return nil, false
		}
		bindings = append(bindings, bs...)
	}
	return bindings, true
}

// matchArrayPattern supports one rest element: [a, b, ..rest] splits off a
// prefix, binds the remainder (when named) as a fresh array.
func (e *Evaluator) matchArrayPattern(pattern *ast.ArrayPattern, value object.Object) ([]binding, bool) {
	arr, ok := value.(*object.Array)
	if !ok {
		return nil, false
	}

	restAt := -1
	for i, sub := range pattern.Elements {
		if _, isRest := sub.(*ast.RestPattern); isRest {
			restAt = i
			break
		}
	}

	if restAt == -1 {
		if len(arr.Elements) != len(pattern.Elements) {
			return nil, false
		}
		return e.matchElementwise(pattern.Elements, arr.Elements)
	}

	fixed := len(pattern.Elements) - 1
	if len(arr.Elements) < fixed {
		return nil, false
	}

	var bindings []binding

	head := pattern.Elements[:restAt]
	bs, ok := e.matchElementwise(head, arr.Elements[:restAt])
	if !ok {
		return nil, false
	}
	bindings = append(bindings, bs...)

	tail := pattern.Elements[restAt+1:]
	tailValues := arr.Elements[len(arr.Elements)-len(tail):]
	bs, ok = e.matchElementwise(tail, tailValues)
	if !ok {
		return nil, false
	}
	bindings = append(bindings, bs...)

	rest := pattern.Elements[restAt].(*ast.RestPattern)
	if rest.Name != nil {
		mid := arr.Elements[restAt : len(arr.Elements)-len(tail)]
		restArr := &object.Array{Elements: append([]object.Object{}, mid...)}
		bindings = append(bindings, binding{name: rest.Name.Value, value: restArr})
	}

	return bindings, true
}

func (e *Evaluator) matchVariantPattern(pattern *ast.VariantPattern, value object.Object) ([]binding, bool) {
	variant, ok := value.(*object.Variant)
	if !ok {
		return nil, false
	}
	if variant.Name != pattern.Name.Value {
		return nil, false
	}
	if len(pattern.Elements) != len(variant.Payload) {
		return nil, false
	}
	return e.matchElementwise(pattern.Elements, variant.Payload)
}

// matchStructPattern destructures instances and maps by field name. A named
// pattern additionally requires the instance's class to match; listing only
// some fields is fine, the rest are ignored.
func (e *Evaluator) matchStructPattern(pattern *ast.StructPattern, value object.Object) ([]binding, bool) {
	lookup := func(name string) (object.Object, bool) { return nil, false }

	switch value := value.(type) {
	case *object.Instance:
		if pattern.Name != nil && value.Class.Name != pattern.Name.Value {
			return nil, false
		}
		lookup = value.GetField
	case *object.Map:
		if pattern.Name != nil {
			return nil, false
		}
		lookup = value.Get
	default:
		return nil, false
	}

	var bindings []binding
	for _, field := range pattern.Fields {
		val, found := lookup(field.Name.Value)
		if !found {
			return nil, false
		}
		if field.Pattern == nil {
			bindings = append(bindings, binding{name: field.Name.Value, value: val})
			continue
		}
		bs, ok := e.matchPattern(field.Pattern, val)
		if !ok {
			return nil, false
		}
		bindings = append(bindings, bs...)
	}

	return bindings, true
}

// evalMatchExpression tries each arm in order: pattern first, then guard
// with the arm's bindings in scope. No arm matching is a runtime error.
func (e *Evaluator) evalMatchExpression(node *ast.MatchExpression) object.Object {
	subject := e.Eval(node.Subject)
	if object.IsSignal(subject) {
		return subject
	}

	for _, arm := range node.Arms {
		result, matched := e.evalMatchArm(arm, subject)
		if matched {
			return result
		}
	}

	return newError(object.NoMatchingArm, "no arm matches %s", subject.Inspect())
}

func (e *Evaluator) evalMatchArm(arm *ast.MatchArm, subject object.Object) (object.Object, bool) {
	bindings, ok := e.matchPattern(arm.Pattern, subject)
	if !ok {
		return nil, false
	}

	armEnv := object.NewEnclosedEnvironment(e.CurrentEnv())
	for _, b := range bindings {
		armEnv.Define(b.name, b.value, false)
	}
	e.PushEnv(armEnv)
	defer e.PopEnv()

	if arm.Guard != nil {
		guard := e.Eval(arm.Guard)
		if object.IsSignal(guard) {
			return guard, true
		}
		b, ok := guard.(*object.Boolean)
		if !ok {
			return newError(object.TypeMismatch,
				"guard must evaluate to a boolean, got %s", guard.Type()), true
		}
		if !b.Value {
			return nil, false
		}
	}

	if block, ok := arm.Body.(*ast.BlockStatement); ok {
		return e.evalFunctionBody(block), true
	}
	return e.Eval(arm.Body.(ast.Expression)), true
}
