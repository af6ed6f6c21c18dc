package evaluator

import (
	"errors"
	"fmt"
	"rill/internal/ast"
	"rill/internal/object"
)

var (
	UNIT  = &object.Unit{}
	TRUE  = &object.Boolean{Value: true}
	FALSE = &object.Boolean{Value: false}
)

type Evaluator struct {
	envStack []*object.Environment
	system   *ActorSystem
}

func New(env *object.Environment) *Evaluator {
	e := &Evaluator{system: NewActorSystem()}
	e.PushEnv(env)
	return e
}

// Eval runs node against env with a fresh actor system. Entry point for
// the REPL and for tests.
func Eval(node ast.Node, env *object.Environment) object.Object {
	return New(env).Eval(node)
}

func (e *Evaluator) PushEnv(env *object.Environment) {
	e.envStack = append(e.envStack, env)
}

func (e *Evaluator) CurrentEnv() *object.Environment {
	if len(e.envStack) == 0 {
		panic("environment stack is empty")
	}
	return e.envStack[len(e.envStack)-1]
}

func (e *Evaluator) PopEnv() {
	if len(e.envStack) == 0 {
		panic("attempted to pop from an empty environment stack")
	}
	e.envStack = e.envStack[:len(e.envStack)-1]
}

func (e *Evaluator) System() *ActorSystem { return e.system }

func (e *Evaluator) Eval(node ast.Node) object.Object {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return e.evalProgram(node)

	case *ast.BlockStatement:
		return e.evalBlockStatement(node)

	case *ast.ExpressionStatement:
		return e.Eval(node.Expression)

	case *ast.LetStatement:
		return e.evalLetStatement(node)

	case *ast.ReturnStatement:
		var val object.Object = UNIT
		if node.ReturnValue != nil {
			val = e.Eval(node.ReturnValue)
			if object.IsSignal(val) {
				return val
			}
		}
		return &object.ReturnValue{Value: val}

	case *ast.BreakStatement:
		var val object.Object = UNIT
		if node.Value != nil {
			val = e.Eval(node.Value)
			if object.IsSignal(val) {
				return val
			}
		}
		return &object.BreakValue{Value: val, Label: node.Label}

	case *ast.ContinueStatement:
		return &object.ContinueValue{Label: node.Label}

	case *ast.ThrowStatement:
		payload := e.Eval(node.Value)
		if object.IsSignal(payload) {
			return payload
		}
		return &object.Throw{Payload: payload}

	case *ast.FunctionDeclaration:
		fn := &object.Function{
			Name:       node.Name.Value,
			Parameters: node.Function.Parameters,
			Body:       node.Function.Body,
			Env:        e.CurrentEnv(),
		}
		e.CurrentEnv().Define(node.Name.Value, fn, false)
		return UNIT

	case *ast.ClassDeclaration:
		return e.evalClassDeclaration(node)

	case *ast.ActorDeclaration:
		return e.evalActorDeclaration(node)

	case *ast.EnumDeclaration:
		return e.evalEnumDeclaration(node)

	// Expressions
	case *ast.IntegerLiteral:
		return &object.Integer{Value: node.Value}

	case *ast.FloatLiteral:
		return &object.Float{Value: node.Value}

	case *ast.StringLiteral:
		return &object.String{Value: node.Value}

	case *ast.CharLiteral:
		return &object.Char{Value: node.Value}

	case *ast.Boolean:
		return object.NativeBoolToBooleanObject(node.Value)

	case *ast.UnitLiteral:
		return UNIT

	case *ast.Identifier:
		return e.evalIdentifier(node)

	case *ast.PrefixExpression:
		right := e.Eval(node.Right)
		if object.IsSignal(right) {
			return right
		}
		return e.evalPrefixExpression(node.Operator, right)

	case *ast.InfixExpression:
		return e.evalInfixExpression(node)

	case *ast.AssignExpression:
		return e.evalAssignExpression(node)

	case *ast.RangeLiteral:
		return e.evalRangeLiteral(node)

	case *ast.IfExpression:
		return e.evalIfExpression(node)

	case *ast.WhileExpression:
		return e.evalWhileExpression(node)

	case *ast.ForExpression:
		return e.evalForExpression(node)

	case *ast.LoopExpression:
		return e.evalLoopExpression(node)

	case *ast.FunctionLiteral:
		return &object.Function{
			Parameters: node.Parameters,
			Body:       node.Body,
			Env:        e.CurrentEnv(),
		}

	case *ast.CallExpression:
		return e.evalCallExpression(node)

	case *ast.FieldAccess:
		obj := e.Eval(node.Object)
		if object.IsSignal(obj) {
			return obj
		}
		return e.evalFieldAccess(obj, node.Field.Value)

	case *ast.ArrayLiteral:
		elements := e.evalExpressions(node.Elements)
		if len(elements) == 1 && object.IsSignal(elements[0]) {
			return elements[0]
		}
		return &object.Array{Elements: elements}

	case *ast.TupleLiteral:
		elements := e.evalExpressions(node.Elements)
		if len(elements) == 1 && object.IsSignal(elements[0]) {
			return elements[0]
		}
		return &object.Tuple{Elements: elements}

	case *ast.MapLiteral:
		return e.evalMapLiteral(node)

	case *ast.IndexExpression:
		left := e.Eval(node.Left)
		if object.IsSignal(left) {
			return left
		}
		index := e.Eval(node.Index)
		if object.IsSignal(index) {
			return index
		}
		return e.evalIndexExpression(left, index)

	case *ast.MatchExpression:
		return e.evalMatchExpression(node)

	case *ast.TryCatchExpression:
		return e.evalTryCatchExpression(node)

	case *ast.SpawnExpression:
		return e.evalSpawnExpression(node)

	case *ast.SendExpression:
		return e.evalSendExpression(node)

	case *ast.AskExpression:
		return e.evalAskExpression(node)
	}

	return newError(object.HostError, "unhandled node %T", node)
}

func (e *Evaluator) evalProgram(program *ast.Program) object.Object {
	var result object.Object = UNIT

	for _, statement := range program.Statements {
		result = e.Eval(statement)

		switch result := result.(type) {
		case *object.ReturnValue:
			return result.Value
		case *object.BreakValue, *object.ContinueValue:
			return newError(object.IllegalControl, "loop control outside a loop")
		case *object.Throw:
			return newError(object.UncaughtThrow, "uncaught throw: %s", result.Payload.Inspect())
		case *object.RuntimeError:
			return result
		}
	}

	return result
}

func (e *Evaluator) evalBlockStatement(block *ast.BlockStatement) object.Object {
	e.PushEnv(object.NewEnclosedEnvironment(e.CurrentEnv()))
	defer e.PopEnv()

	var result object.Object = UNIT

	for _, statement := range block.Statements {
		result = e.Eval(statement)
		if object.IsSignal(result) {
			return result
		}
	}

	return result
}

func (e *Evaluator) evalLetStatement(node *ast.LetStatement) object.Object {
	val := e.Eval(node.Value)
	if object.IsSignal(val) {
		return val
	}

	bindings, ok := e.matchPattern(node.Pattern, val)
	if !ok {
		return newError(object.NoMatchingArm,
			"let pattern %s does not match %s", node.Pattern.String(), val.Inspect())
	}
	for _, b := range bindings {
		e.CurrentEnv().Define(b.name, b.value, node.Mutable)
	}
	return UNIT
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier) object.Object {
	if val, ok := e.CurrentEnv().Get(node.Value); ok {
		return val
	}
	if builtin, ok := builtins[node.Value]; ok {
		return builtin
	}
	if builtin, ok := e.systemBuiltin(node.Value); ok {
		return builtin
	}
	// Capitalized bare names act as symbolic atoms so that actors can be
	// messaged without declaring an enum for every selector.
	if isUpperIdent(node.Value) {
		return &object.Variant{Name: node.Value}
	}
	return newError(object.UndefinedVariable, "identifier not found: %s", node.Value)
}

func (e *Evaluator) evalPrefixExpression(operator string, right object.Object) object.Object {
	switch operator {
	case "!":
		return object.NativeBoolToBooleanObject(!object.IsTruthy(right))
	case "-":
		switch right := right.(type) {
		case *object.Integer:
			return &object.Integer{Value: -right.Value}
		case *object.Float:
			return &object.Float{Value: -right.Value}
		}
		return newError(object.TypeMismatch, "unknown operator: -%s", right.Type())
	}
	return newError(object.TypeMismatch, "unknown operator: %s%s", operator, right.Type())
}

func (e *Evaluator) evalInfixExpression(node *ast.InfixExpression) object.Object {
	left := e.Eval(node.Left)
	if object.IsSignal(left) {
		return left
	}

	// short-circuit before touching the right operand
	switch node.Operator {
	case "&&":
		if !object.IsTruthy(left) {
			return FALSE
		}
		right := e.Eval(node.Right)
		if object.IsSignal(right) {
			return right
		}
		return object.NativeBoolToBooleanObject(object.IsTruthy(right))
	case "||":
		if object.IsTruthy(left) {
			return TRUE
		}
		right := e.Eval(node.Right)
		if object.IsSignal(right) {
			return right
		}
		return object.NativeBoolToBooleanObject(object.IsTruthy(right))
	}

	right := e.Eval(node.Right)
	if object.IsSignal(right) {
		return right
	}

	return e.evalBinaryOp(node.Operator, left, right)
}

func (e *Evaluator) evalBinaryOp(operator string, left, right object.Object) object.Object {
	switch {
	case operator == "==":
		return object.NativeBoolToBooleanObject(object.Equals(left, right))
	case operator == "!=":
		return object.NativeBoolToBooleanObject(!object.Equals(left, right))

	case left.Type() == object.INTEGER_OBJ && right.Type() == object.INTEGER_OBJ:
		return e.evalIntegerInfixExpression(operator, left.(*object.Integer), right.(*object.Integer))

	case isNumeric(left) && isNumeric(right):
		return e.evalFloatInfixExpression(operator, toFloat(left), toFloat(right))

	case left.Type() == object.STRING_OBJ && right.Type() == object.STRING_OBJ:
		return e.evalStringInfixExpression(operator, left.(*object.String), right.(*object.String))

	case left.Type() == object.CHAR_OBJ && right.Type() == object.CHAR_OBJ:
		return e.evalCharInfixExpression(operator, left.(*object.Char), right.(*object.Char))

	case left.Type() == object.ARRAY_OBJ && right.Type() == object.ARRAY_OBJ && operator == "+":
		l := left.(*object.Array)
		r := right.(*object.Array)
		elements := make([]object.Object, 0, len(l.Elements)+len(r.Elements))
		elements = append(elements, l.Elements...)
		elements = append(elements, r.Elements...)
		return &object.Array{Elements: elements}

	case left.Type() == object.STRING_OBJ && operator == "+":
		return &object.String{Value: left.(*object.String).Value + inspectBare(right)}

	case left.Type() != right.Type():
		return newError(object.TypeMismatch, "type mismatch: %s %s %s",
			left.Type(), operator, right.Type())
	}

	return newError(object.TypeMismatch, "unknown operator: %s %s %s",
		left.Type(), operator, right.Type())
}

func (e *Evaluator) evalIntegerInfixExpression(operator string, left, right *object.Integer) object.Object {
	switch operator {
	case "+":
		return &object.Integer{Value: left.Value + right.Value}
	case "-":
		return &object.Integer{Value: left.Value - right.Value}
	case "*":
		return &object.Integer{Value: left.Value * right.Value}
	case "/":
		if right.Value == 0 {
			return newError(object.DivisionByZero, "integer division by zero")
		}
		return &object.Integer{Value: left.Value / right.Value}
	case "%":
		if right.Value == 0 {
			return newError(object.DivisionByZero, "integer modulo by zero")
		}
		return &object.Integer{Value: left.Value % right.Value}
	case "<":
		return object.NativeBoolToBooleanObject(left.Value < right.Value)
	case "<=":
		return object.NativeBoolToBooleanObject(left.Value <= right.Value)
	case ">":
		return object.NativeBoolToBooleanObject(left.Value > right.Value)
	case ">=":
		return object.NativeBoolToBooleanObject(left.Value >= right.Value)
	}
	return newError(object.TypeMismatch, "unknown operator: INTEGER %s INTEGER", operator)
}

// evalFloatInfixExpression covers float/float and mixed int/float pairs;
// mixed operands promote to float, division by zero follows IEEE 754.
func (e *Evaluator) evalFloatInfixExpression(operator string, left, right float64) object.Object {
	switch operator {
	case "+":
		return &object.Float{Value: left + right}
	case "-":
		return &object.Float{Value: left - right}
	case "*":
		return &object.Float{Value: left * right}
	case "/":
		return &object.Float{Value: left / right}
	case "<":
		return object.NativeBoolToBooleanObject(left < right)
	case "<=":
		return object.NativeBoolToBooleanObject(left <= right)
	case ">":
		return object.NativeBoolToBooleanObject(left > right)
	case ">=":
		return object.NativeBoolToBooleanObject(left >= right)
	}
	return newError(object.TypeMismatch, "unknown operator: FLOAT %s FLOAT", operator)
}

func (e *Evaluator) evalStringInfixExpression(operator string, left, right *object.String) object.Object {
	switch operator {
	case "+":
		return &object.String{Value: left.Value + right.Value}
	case "<":
		return object.NativeBoolToBooleanObject(left.Value < right.Value)
	case "<=":
		return object.NativeBoolToBooleanObject(left.Value <= right.Value)
	case ">":
		return object.NativeBoolToBooleanObject(left.Value > right.Value)
	case ">=":
		return object.NativeBoolToBooleanObject(left.Value >= right.Value)
	}
	return newError(object.TypeMismatch, "unknown operator: STRING %s STRING", operator)
}

func (e *Evaluator) evalCharInfixExpression(operator string, left, right *object.Char) object.Object {
	switch operator {
	case "<":
		return object.NativeBoolToBooleanObject(left.Value < right.Value)
	case "<=":
		return object.NativeBoolToBooleanObject(left.Value <= right.Value)
	case ">":
		return object.NativeBoolToBooleanObject(left.Value > right.Value)
	case ">=":
		return object.NativeBoolToBooleanObject(left.Value >= right.Value)
	}
	return newError(object.TypeMismatch, "unknown operator: CHAR %s CHAR", operator)
}

func (e *Evaluator) evalRangeLiteral(node *ast.RangeLiteral) object.Object {
	start := e.Eval(node.Start)
	if object.IsSignal(start) {
		return start
	}
	end := e.Eval(node.End)
	if object.IsSignal(end) {
		return end
	}

	si, ok := start.(*object.Integer)
	if !ok {
		return newError(object.TypeMismatch, "range start must be an integer, got %s", start.Type())
	}
	ei, ok := end.(*object.Integer)
	if !ok {
		return newError(object.TypeMismatch, "range end must be an integer, got %s", end.Type())
	}

	return &object.Range{Start: si.Value, End: ei.Value, Inclusive: node.Inclusive}
}

func (e *Evaluator) evalIfExpression(node *ast.IfExpression) object.Object {
	condition := e.Eval(node.Condition)
	if object.IsSignal(condition) {
		return condition
	}

	if object.IsTruthy(condition) {
		return e.Eval(node.Consequence)
	} else if node.Alternative != nil {
		return e.Eval(node.Alternative)
	}
	return UNIT
}

// loopSignal inspects a loop body result: done reports whether the loop
// should stop, out is what escapes the loop when it does.
func loopSignal(result object.Object, label string) (out object.Object, done bool) {
	switch sig := result.(type) {
	case *object.BreakValue:
		if sig.Label == "" || sig.Label == label {
			return sig.Value, true
		}
		return sig, true // outer loop's break, keep propagating
	case *object.ContinueValue:
		if sig.Label == "" || sig.Label == label {
			return nil, false
		}
		return sig, true
	case *object.ReturnValue, *object.Throw, *object.RuntimeError:
		return sig, true
	}
	return nil, false
}

func (e *Evaluator) evalWhileExpression(node *ast.WhileExpression) object.Object {
	for {
		condition := e.Eval(node.Condition)
		if object.IsSignal(condition) {
			return condition
		}
		if !object.IsTruthy(condition) {
			return UNIT
		}

		result := e.Eval(node.Body)
		if out, done := loopSignal(result, node.Label); done {
			if out == nil {
				out = UNIT
			}
			return out
		}
	}
}

func (e *Evaluator) evalLoopExpression(node *ast.LoopExpression) object.Object {
	for {
		result := e.Eval(node.Body)
		if out, done := loopSignal(result, node.Label); done {
			if out == nil {
				out = UNIT
			}
			return out
		}
	}
}

func (e *Evaluator) evalForExpression(node *ast.ForExpression) object.Object {
	iterable := e.Eval(node.Iterable)
	if object.IsSignal(iterable) {
		return iterable
	}

	next, errObj := iterate(iterable)
	if errObj != nil {
		return errObj
	}

	for {
		item, more := next()
		if !more {
			break
		}

		bindings, ok := e.matchPattern(node.Binding, item)
		if !ok {
			return newError(object.NoMatchingArm,
				"for binding %s does not match %s", node.Binding.String(), item.Inspect())
		}

		iterEnv := object.NewEnclosedEnvironment(e.CurrentEnv())
		for _, b := range bindings {
			iterEnv.Define(b.name, b.value, false)
		}

		e.PushEnv(iterEnv)
		result := e.Eval(node.Body)
		e.PopEnv()

		if out, done := loopSignal(result, node.Label); done {
			if out == nil {
				out = UNIT
			}
			return out
		}
	}

	return UNIT
}

// iterate returns a pull cursor over the iterable; elements are produced
// one at a time, so a huge range never materializes. Maps yield (key, value)
// tuples in insertion order; strings yield chars by rune.
func iterate(iterable object.Object) (func() (object.Object, bool), object.Object) {
	switch it := iterable.(type) {
	case *object.Range:
		end := it.End
		if it.Inclusive {
			end++
		}
		v := it.Start
		return func() (object.Object, bool) {
			if v >= end {
				return nil, false
			}
			item := &object.Integer{Value: v}
			v++
			return item, true
		}, nil
	case *object.Array:
		return sliceCursor(it.Elements), nil
	case *object.Tuple:
		return sliceCursor(it.Elements), nil
	case *object.String:
		runes := []rune(it.Value)
		i := 0
		return func() (object.Object, bool) {
			if i >= len(runes) {
				return nil, false
			}
			item := &object.Char{Value: runes[i]}
			i++
			return item, true
		}, nil
	case *object.Map:
		keys := it.Keys()
		i := 0
		return func() (object.Object, bool) {
			if i >= len(keys) {
				return nil, false
			}
			k := keys[i]
			i++
			v, _ := it.Get(k)
			return &object.Tuple{Elements: []object.Object{
				&object.String{Value: k}, v,
			}}, true
		}, nil
	}
	return nil, newError(object.TypeMismatch, "%s is not iterable", iterable.Type())
}

func sliceCursor(elems []object.Object) func() (object.Object, bool) {
	i := 0
	return func() (object.Object, bool) {
		if i >= len(elems) {
			return nil, false
		}
		item := elems[i]
		i++
		return item, true
	}
}

func (e *Evaluator) evalExpressions(exps []ast.Expression) []object.Object {
	var result []object.Object

	for _, exp := range exps {
		evaluated := e.Eval(exp)
		if object.IsSignal(evaluated) {
			return []object.Object{evaluated}
		}
		result = append(result, evaluated)
	}

	return result
}

func (e *Evaluator) evalCallExpression(node *ast.CallExpression) object.Object {
	fn := e.Eval(node.Function)
	if object.IsSignal(fn) {
		return fn
	}

	args := e.evalExpressions(node.Arguments)
	if len(args) == 1 && object.IsSignal(args[0]) {
		return args[0]
	}

	return e.applyFunction(fn, args)
}

func (e *Evaluator) applyFunction(fnObj object.Object, args []object.Object) object.Object {
	switch fn := fnObj.(type) {
	case *object.Function:
		if len(args) != len(fn.Parameters) {
			return newError(object.ArityMismatch,
				"%s expects %d arguments, got %d", fnName(fn), len(fn.Parameters), len(args))
		}
		extended := extendFunctionEnv(fn, args)
		e.PushEnv(extended)
		result := e.evalFunctionBody(fn.Body)
		e.PopEnv()
		return e.unwrapReturnValue(result)

	case *object.Builtin:
		return fn.Fn(args...)

	case *object.Class:
		return e.instantiate(fn, args)

	case *object.Variant:
		return e.applyVariant(fn, args)
	}

	return newError(object.TypeMismatch, "not callable: %s", fnObj.Type())
}

// evalFunctionBody runs a body block in the already-extended environment,
// without opening the extra scope evalBlockStatement would.
func (e *Evaluator) evalFunctionBody(body *ast.BlockStatement) object.Object {
	var result object.Object = UNIT
	for _, statement := range body.Statements {
		result = e.Eval(statement)
		if object.IsSignal(result) {
			return result
		}
	}
	return result
}

func extendFunctionEnv(fn *object.Function, args []object.Object) *object.Environment {
	env := object.NewEnclosedEnvironment(fn.Env)
	for i, param := range fn.Parameters {
		env.Define(param.Value, args[i], false)
	}
	return env
}

func (e *Evaluator) unwrapReturnValue(obj object.Object) object.Object {
	switch sig := obj.(type) {
	case *object.ReturnValue:
		return sig.Value
	case *object.BreakValue, *object.ContinueValue:
		return newError(object.IllegalControl, "loop control crossed a function boundary")
	}
	return obj
}

func fnName(fn *object.Function) string {
	if fn.Name != "" {
		return "fn " + fn.Name
	}
	return "fn"
}

func (e *Evaluator) evalMapLiteral(node *ast.MapLiteral) object.Object {
	m := object.NewMap()

	for i, keyExpr := range node.Keys {
		key := e.Eval(keyExpr)
		if object.IsSignal(key) {
			return key
		}
		ks, ok := key.(*object.String)
		if !ok {
			return newError(object.TypeMismatch, "map keys must be strings, got %s", key.Type())
		}
		val := e.Eval(node.Vals[i])
		if object.IsSignal(val) {
			return val
		}
		m.Set(ks.Value, val)
	}

	return m
}

func (e *Evaluator) evalIndexExpression(left, index object.Object) object.Object {
	switch container := left.(type) {
	case *object.Array:
		return indexSequence(container.Elements, index)
	case *object.Tuple:
		return indexSequence(container.Elements, index)
	case *object.String:
		idx, ok := index.(*object.Integer)
		if !ok {
			return newError(object.TypeMismatch, "string index must be an integer, got %s", index.Type())
		}
		runes := []rune(container.Value)
		if idx.Value < 0 || idx.Value >= int64(len(runes)) {
			return newError(object.IndexOutOfRange,
				"string index %d out of range 0..%d", idx.Value, len(runes))
		}
		return &object.Char{Value: runes[idx.Value]}
	case *object.Map:
		key, ok := index.(*object.String)
		if !ok {
			return newError(object.TypeMismatch, "map keys must be strings, got %s", index.Type())
		}
		if val, found := container.Get(key.Value); found {
			return val
		}
		return newError(object.KeyNotFound, "key %q not found", key.Value)
	}
	return newError(object.TypeMismatch, "index operator not supported on %s", left.Type())
}

func indexSequence(elements []object.Object, index object.Object) object.Object {
	idx, ok := index.(*object.Integer)
	if !ok {
		return newError(object.TypeMismatch, "index must be an integer, got %s", index.Type())
	}
	if idx.Value < 0 || idx.Value >= int64(len(elements)) {
		return newError(object.IndexOutOfRange,
			"index %d out of range 0..%d", idx.Value, len(elements))
	}
	return elements[idx.Value]
}

// evalAssignExpression writes through the target path. Value containers are
// copy-on-write, so `a[0] = v` rebuilds the container and rebinds whatever
// holds it; instance fields mutate in place.
func (e *Evaluator) evalAssignExpression(node *ast.AssignExpression) object.Object {
	val := e.Eval(node.Value)
	if object.IsSignal(val) {
		return val
	}

	if errObj := e.assignTo(node.Target, val); errObj != nil {
		return errObj
	}
	return val
}

func (e *Evaluator) assignTo(target ast.Expression, val object.Object) object.Object {
	switch target := target.(type) {
	case *ast.Identifier:
		if _, err := e.CurrentEnv().Assign(target.Value, val); err != nil {
			kind := object.UndefinedVariable
			if errors.Is(err, object.ErrImmutableBinding) {
				kind = object.ImmutableBinding
			}
			return newError(kind, "%s", err.Error())
		}
		return nil

	case *ast.FieldAccess:
		obj := e.Eval(target.Object)
		if object.IsSignal(obj) {
			return obj
		}
		inst, ok := obj.(*object.Instance)
		if !ok {
			return newError(object.TypeMismatch,
				"cannot assign field %s on %s", target.Field.Value, obj.Type())
		}
		inst.SetField(target.Field.Value, val)
		return nil

	case *ast.IndexExpression:
		container := e.Eval(target.Left)
		if object.IsSignal(container) {
			return container
		}
		index := e.Eval(target.Index)
		if object.IsSignal(index) {
			return index
		}

		updated := withIndexSet(container, index, val)
		if object.IsSignal(updated) {
			return updated
		}
		return e.assignTo(target.Left, updated)
	}

	return newError(object.TypeMismatch, "invalid assignment target")
}

func withIndexSet(container, index, val object.Object) object.Object {
	switch c := container.(type) {
	case *object.Array:
		idx, ok := index.(*object.Integer)
		if !ok {
			return newError(object.TypeMismatch, "index must be an integer, got %s", index.Type())
		}
		if idx.Value < 0 || idx.Value >= int64(len(c.Elements)) {
			return newError(object.IndexOutOfRange,
				"index %d out of range 0..%d", idx.Value, len(c.Elements))
		}
		return c.WithSet(int(idx.Value), val)
	case *object.Map:
		key, ok := index.(*object.String)
		if !ok {
			return newError(object.TypeMismatch, "map keys must be strings, got %s", index.Type())
		}
		return c.WithSet(key.Value, val)
	}
	return newError(object.TypeMismatch, "index assignment not supported on %s", container.Type())
}

func (e *Evaluator) evalTryCatchExpression(node *ast.TryCatchExpression) object.Object {
	result := e.Eval(node.TryBlock)

	var caught object.Object
	switch sig := result.(type) {
	case *object.Throw:
		caught = sig.Payload
	case *object.RuntimeError:
		caught = sig
	default:
		return result
	}

	bindings, ok := e.matchPattern(node.CatchPattern, caught)
	if !ok {
		return result // not ours, keep unwinding
	}

	catchEnv := object.NewEnclosedEnvironment(e.CurrentEnv())
	for _, b := range bindings {
		catchEnv.Define(b.name, b.value, false)
	}

	e.PushEnv(catchEnv)
	defer e.PopEnv()
	return e.evalFunctionBody(node.CatchBlock)
}

func (e *Evaluator) evalFieldAccess(obj object.Object, field string) object.Object {
	switch obj := obj.(type) {
	case *object.Instance:
		if val, ok := obj.GetField(field); ok {
			return val
		}
		if method, ok := obj.Class.Methods[field]; ok {
			return bindMethod(method, obj)
		}
		return newError(object.MethodNotFound,
			"%s has no field or method %s", obj.Class.Name, field)
	case *object.Map:
		if val, ok := obj.Get(field); ok {
			return val
		}
		return newError(object.KeyNotFound, "key %q not found", field)
	case *object.ActorRef:
		return newError(object.TypeMismatch,
			"actor internals are private; message the actor instead")
	}
	return newError(object.TypeMismatch, "%s has no fields", obj.Type())
}

// bindMethod closes a method over its receiver so it stays callable as a
// first-class value.
func bindMethod(method *object.Function, self *object.Instance) *object.Function {
	env := object.NewEnclosedEnvironment(method.Env)
	env.Define("self", self, false)
	return &object.Function{
		Name:       method.Name,
		Parameters: method.Parameters,
		Body:       method.Body,
		Env:        env,
	}
}

func newError(kind, format string, a ...interface{}) *object.RuntimeError {
	return &object.RuntimeError{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

func isNumeric(obj object.Object) bool {
	return obj.Type() == object.INTEGER_OBJ || obj.Type() == object.FLOAT_OBJ
}

func toFloat(obj object.Object) float64 {
	switch obj := obj.(type) {
	case *object.Integer:
		return float64(obj.Value)
	case *object.Float:
		return obj.Value
	}
	return 0
}

// inspectBare renders a value for string concatenation: strings and chars
// drop their quotes, everything else uses Inspect.
func inspectBare(obj object.Object) string {
	switch obj := obj.(type) {
	case *object.String:
		return obj.Value
	case *object.Char:
		return string(obj.Value)
	}
	return obj.Inspect()
}

func isUpperIdent(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= 'A' && c <= 'Z'
}
