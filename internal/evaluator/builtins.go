package evaluator

import (
	"fmt"
	"rill/internal/object"
	"strconv"
	"strings"
	"time"
)

var builtins = map[string]*object.Builtin{
	"type":    funcType(),
	"len":     funcLen(),
	"print":   funcPrint(),
	"println": funcPrintLn(),
	"sleep":   funcSleep(),

	// conversions
	"str":   funcStr(),
	"int":   funcInt(),
	"float": funcFloat(),
	"chars": funcChars(),

	// string functions
	"trim":     funcTrim(),
	"contains": funcContains(),
	"split":    funcSplit(),
	"join":     funcJoin(),

	// collection functions
	"push":  funcPush(),
	"keys":  funcKeys(),
	"range": funcRange(),

	// db native module
	"db_connect":  funcDbConnect(),
	"db_query":    funcDbQuery(),
	"db_exec":     funcDbExec(),
	"db_begin":    funcDbBegin(),
	"db_commit":   funcDbCommit(),
	"db_rollback": funcDbRollback(),
	"db_close":    funcDbClose(),
}

// systemBuiltin resolves the builtins that need the running actor system.
func (e *Evaluator) systemBuiltin(name string) (*object.Builtin, bool) {
	switch name {
	case "stop":
		return &object.Builtin{Name: "stop", Fn: func(args ...object.Object) object.Object {
			ref, errObj := oneActorRef("stop", args)
			if errObj != nil {
				return errObj
			}
			return e.system.Stop(ref)
		}}, true

	case "alive":
		return &object.Builtin{Name: "alive", Fn: func(args ...object.Object) object.Object {
			ref, errObj := oneActorRef("alive", args)
			if errObj != nil {
				return errObj
			}
			return object.NativeBoolToBooleanObject(e.system.Alive(ref))
		}}, true

	case "ask":
		// ask(ref, msg, timeoutMillis) is the bounded form of `ref ? msg`
		return &object.Builtin{Name: "ask", Fn: func(args ...object.Object) object.Object {
			if len(args) != 3 {
				return newError(object.ArityMismatch,
					"ask expects 3 arguments (ref, msg, millis), got %d", len(args))
			}
			ref, ok := args[0].(*object.ActorRef)
			if !ok {
				return newError(object.TypeMismatch,
					"first argument to ask must be an actor ref, got %s", args[0].Type())
			}
			timeout, ok := args[2].(*object.Integer)
			if !ok {
				return newError(object.TypeMismatch,
					"third argument to ask must be an integer, got %s", args[2].Type())
			}
			return e.system.Ask(ref, args[1], timeout.Value)
		}}, true
	}
	return nil, false
}

func oneActorRef(name string, args []object.Object) (*object.ActorRef, object.Object) {
	if len(args) != 1 {
		return nil, newError(object.ArityMismatch,
			"%s expects 1 argument, got %d", name, len(args))
	}
	ref, ok := args[0].(*object.ActorRef)
	if !ok {
		return nil, newError(object.TypeMismatch,
			"argument to %s must be an actor ref, got %s", name, args[0].Type())
	}
	return ref, nil
}

func funcType() *object.Builtin {
	return &object.Builtin{
		Name: "type",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return newError(object.ArityMismatch, "type expects 1 argument, got %d", len(args))
			}
			return &object.String{Value: string(args[0].Type())}
		},
	}
}

func funcLen() *object.Builtin {
	return &object.Builtin{
		Name: "len",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return newError(object.ArityMismatch, "len expects 1 argument, got %d", len(args))
			}
			switch arg := args[0].(type) {
			case *object.String:
				return &object.Integer{Value: int64(len([]rune(arg.Value)))}
			case *object.Array:
				return &object.Integer{Value: int64(len(arg.Elements))}
			case *object.Tuple:
				return &object.Integer{Value: int64(len(arg.Elements))}
			case *object.Map:
				return &object.Integer{Value: int64(arg.Len())}
			case *object.Range:
				return &object.Integer{Value: arg.Len()}
			}
			return newError(object.TypeMismatch, "argument to len not supported, got %s", args[0].Type())
		},
	}
}

func funcPrint() *object.Builtin {
	return &object.Builtin{
		Name: "print",
		Fn: func(args ...object.Object) object.Object {
			parts := make([]string, len(args))
			for i, arg := range args {
				parts[i] = inspectBare(arg)
			}
			fmt.Print(strings.Join(parts, " "))
			return UNIT
		},
	}
}

func funcPrintLn() *object.Builtin {
	return &object.Builtin{
		Name: "println",
		Fn: func(args ...object.Object) object.Object {
			parts := make([]string, len(args))
			for i, arg := range args {
				parts[i] = inspectBare(arg)
			}
			fmt.Println(strings.Join(parts, " "))
			return UNIT
		},
	}
}

func funcSleep() *object.Builtin {
	return &object.Builtin{
		Name: "sleep",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return newError(object.ArityMismatch, "sleep expects 1 argument, got %d", len(args))
			}
			millis, ok := args[0].(*object.Integer)
			if !ok {
				return newError(object.TypeMismatch, "argument to sleep must be an integer, got %s", args[0].Type())
			}
			time.Sleep(time.Duration(millis.Value) * time.Millisecond)
			return UNIT
		},
	}
}

func funcStr() *object.Builtin {
	return &object.Builtin{
		Name: "str",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return newError(object.ArityMismatch, "str expects 1 argument, got %d", len(args))
			}
			return &object.String{Value: inspectBare(args[0])}
		},
	}
}

func funcInt() *object.Builtin {
	return &object.Builtin{
		Name: "int",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return newError(object.ArityMismatch, "int expects 1 argument, got %d", len(args))
			}
			switch arg := args[0].(type) {
			case *object.Integer:
				return arg
			case *object.Float:
				return &object.Integer{Value: int64(arg.Value)}
			case *object.Char:
				return &object.Integer{Value: int64(arg.Value)}
			case *object.Boolean:
				if arg.Value {
					return &object.Integer{Value: 1}
				}
				return &object.Integer{Value: 0}
			case *object.String:
				v, err := strconv.ParseInt(strings.TrimSpace(arg.Value), 10, 64)
				if err != nil {
					return newError(object.TypeMismatch, "cannot parse %q as an integer", arg.Value)
				}
				return &object.Integer{Value: v}
			}
			return newError(object.TypeMismatch, "cannot convert %s to an integer", args[0].Type())
		},
	}
}

func funcFloat() *object.Builtin {
	return &object.Builtin{
		Name: "float",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return newError(object.ArityMismatch, "float expects 1 argument, got %d", len(args))
			}
			switch arg := args[0].(type) {
			case *object.Float:
				return arg
			case *object.Integer:
				return &object.Float{Value: float64(arg.Value)}
			case *object.String:
				v, err := strconv.ParseFloat(strings.TrimSpace(arg.Value), 64)
				if err != nil {
					return newError(object.TypeMismatch, "cannot parse %q as a float", arg.Value)
				}
				return &object.Float{Value: v}
			}
			return newError(object.TypeMismatch, "cannot convert %s to a float", args[0].Type())
		},
	}
}

func funcChars() *object.Builtin {
	return &object.Builtin{
		Name: "chars",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return newError(object.ArityMismatch, "chars expects 1 argument, got %d", len(args))
			}
			s, ok := args[0].(*object.String)
			if !ok {
				return newError(object.TypeMismatch, "argument to chars must be a string, got %s", args[0].Type())
			}
			var elements []object.Object
			for _, r := range s.Value {
				elements = append(elements, &object.Char{Value: r})
			}
			return &object.Array{Elements: elements}
		},
	}
}

func funcTrim() *object.Builtin {
	return &object.Builtin{
		Name: "trim",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return newError(object.ArityMismatch, "trim expects 1 argument, got %d", len(args))
			}
			s, ok := args[0].(*object.String)
			if !ok {
				return newError(object.TypeMismatch, "argument to trim must be a string, got %s", args[0].Type())
			}
			return &object.String{Value: strings.TrimSpace(s.Value)}
		},
	}
}

func funcContains() *object.Builtin {
	return &object.Builtin{
		Name: "contains",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 2 {
				return newError(object.ArityMismatch, "contains expects 2 arguments, got %d", len(args))
			}
			switch hay := args[0].(type) {
			case *object.String:
				needle, ok := args[1].(*object.String)
				if !ok {
					return newError(object.TypeMismatch, "second argument to contains must be a string")
				}
				return object.NativeBoolToBooleanObject(strings.Contains(hay.Value, needle.Value))
			case *object.Array:
				for _, el := range hay.Elements {
					if object.Equals(el, args[1]) {
						return TRUE
					}
				}
				return FALSE
			case *object.Map:
				key, ok := args[1].(*object.String)
				if !ok {
					return FALSE
				}
				_, found := hay.Get(key.Value)
				return object.NativeBoolToBooleanObject(found)
			case *object.Range:
				v, ok := args[1].(*object.Integer)
				if !ok {
					return FALSE
				}
				return object.NativeBoolToBooleanObject(hay.Contains(v.Value))
			}
			return newError(object.TypeMismatch, "first argument to contains must be a string, array, map or range")
		},
	}
}

func funcSplit() *object.Builtin {
	return &object.Builtin{
		Name: "split",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 2 {
				return newError(object.ArityMismatch, "split expects 2 arguments, got %d", len(args))
			}
			s, ok := args[0].(*object.String)
			if !ok {
				return newError(object.TypeMismatch, "first argument to split must be a string, got %s", args[0].Type())
			}
			sep, ok := args[1].(*object.String)
			if !ok {
				return newError(object.TypeMismatch, "second argument to split must be a string, got %s", args[1].Type())
			}
			var elements []object.Object
			for _, part := range strings.Split(s.Value, sep.Value) {
				elements = append(elements, &object.String{Value: part})
			}
			return &object.Array{Elements: elements}
		},
	}
}

func funcJoin() *object.Builtin {
	return &object.Builtin{
		Name: "join",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 2 {
				return newError(object.ArityMismatch, "join expects 2 arguments, got %d", len(args))
			}
			arr, ok := args[0].(*object.Array)
			if !ok {
				return newError(object.TypeMismatch, "first argument to join must be an array, got %s", args[0].Type())
			}
			sep, ok := args[1].(*object.String)
			if !ok {
				return newError(object.TypeMismatch, "second argument to join must be a string, got %s", args[1].Type())
			}
			parts := make([]string, len(arr.Elements))
			for i, el := range arr.Elements {
				parts[i] = inspectBare(el)
			}
			return &object.String{Value: strings.Join(parts, sep.Value)}
		},
	}
}

// funcPush returns a new array with the value appended; the original is
// untouched.
func funcPush() *object.Builtin {
	return &object.Builtin{
		Name: "push",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 2 {
				return newError(object.ArityMismatch, "push expects 2 arguments, got %d", len(args))
			}
			arr, ok := args[0].(*object.Array)
			if !ok {
				return newError(object.TypeMismatch, "first argument to push must be an array, got %s", args[0].Type())
			}
			elements := make([]object.Object, 0, len(arr.Elements)+1)
			elements = append(elements, arr.Elements...)
			elements = append(elements, args[1])
			return &object.Array{Elements: elements}
		},
	}
}

func funcKeys() *object.Builtin {
	return &object.Builtin{
		Name: "keys",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return newError(object.ArityMismatch, "keys expects 1 argument, got %d", len(args))
			}
			m, ok := args[0].(*object.Map)
			if !ok {
				return newError(object.TypeMismatch, "argument to keys must be a map, got %s", args[0].Type())
			}
			var elements []object.Object
			for _, k := range m.Keys() {
				elements = append(elements, &object.String{Value: k})
			}
			return &object.Array{Elements: elements}
		},
	}
}

func funcRange() *object.Builtin {
	return &object.Builtin{
		Name: "range",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return newError(object.ArityMismatch, "range expects 1 argument, got %d", len(args))
			}
			n, ok := args[0].(*object.Integer)
			if !ok {
				return newError(object.TypeMismatch, "argument to range must be an integer, got %s", args[0].Type())
			}
			return &object.Range{Start: 0, End: n.Value}
		},
	}
}
