package evaluator

import (
	"rill/internal/ast"
	"rill/internal/object"
)

func (e *Evaluator) evalClassDeclaration(node *ast.ClassDeclaration) object.Object {
	class := &object.Class{
		Name:    node.Name.Value,
		Methods: map[string]*object.Function{},
		Env:     e.CurrentEnv(),
	}

	if node.Init != nil {
		class.Init = &object.Function{
			Name:       "init",
			Parameters: node.Init.Parameters,
			Body:       node.Init.Body,
			Env:        e.CurrentEnv(),
		}
	}

	for _, m := range node.Methods {
		class.Methods[m.Name.Value] = &object.Function{
			Name:       m.Name.Value,
			Parameters: m.Function.Parameters,
			Body:       m.Function.Body,
			Env:        e.CurrentEnv(),
		}
	}

	e.CurrentEnv().Define(class.Name, class, false)
	return UNIT
}

// instantiate builds a fresh instance and runs the constructor with `self`
// bound. The constructor's own result value is discarded; the call always
// yields the instance.
func (e *Evaluator) instantiate(class *object.Class, args []object.Object) object.Object {
	inst := object.NewInstance(class)

	if class.Init == nil {
		if len(args) != 0 {
			return newError(object.MissingConstructor,
				"%s has no init constructor, got %d arguments", class.Name, len(args))
		}
		return inst
	}

	if len(args) != len(class.Init.Parameters) {
		return newError(object.ArityMismatch,
			"%s.init expects %d arguments, got %d",
			class.Name, len(class.Init.Parameters), len(args))
	}

	env := extendFunctionEnv(class.Init, args)
	env.Define("self", inst, false)

	e.PushEnv(env)
	result := e.evalFunctionBody(class.Init.Body)
	e.PopEnv()

	switch result.(type) {
	case *object.Throw, *object.RuntimeError:
		return result
	}
	return inst
}

func (e *Evaluator) evalEnumDeclaration(node *ast.EnumDeclaration) object.Object {
	enum := &object.Enum{
		Name:     node.Name.Value,
		Variants: map[string]int{},
	}

	for _, v := range node.Variants {
		enum.Variants[v.Name.Value] = len(v.Params)
		enum.Order = append(enum.Order, v.Name.Value)

		e.CurrentEnv().Define(v.Name.Value, &object.Variant{
			Enum:  enum.Name,
			Name:  v.Name.Value,
			Arity: len(v.Params),
		}, false)
	}

	e.CurrentEnv().Define(enum.Name, enum, false)
	return UNIT
}

// applyVariant constructs a payload-carrying variant value. Calling an
// already constructed variant is an error; calling a free atom attaches an
// ad hoc payload so message selectors can carry arguments.
func (e *Evaluator) applyVariant(v *object.Variant, args []object.Object) object.Object {
	if len(v.Payload) != 0 {
		return newError(object.TypeMismatch, "%s is already constructed", v.Inspect())
	}
	if v.Enum != "" && len(args) != v.Arity {
		return newError(object.ArityMismatch,
			"%s.%s expects %d arguments, got %d", v.Enum, v.Name, v.Arity, len(args))
	}

	return &object.Variant{
		Enum:    v.Enum,
		Name:    v.Name,
		Arity:   len(args),
		Payload: args,
	}
}
