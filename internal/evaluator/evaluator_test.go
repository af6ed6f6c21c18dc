package evaluator

import (
	"rill/internal/lexer"
	"rill/internal/object"
	"rill/internal/parser"
	"testing"
)

func testEval(t *testing.T, input string) object.Object {
	t.Helper()
	l := lexer.New(input)
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	return Eval(program, object.NewEnvironment())
}

func wantInt(t *testing.T, obj object.Object, expected int64) {
	t.Helper()
	result, ok := obj.(*object.Integer)
	if !ok {
		t.Fatalf("object is not Integer. got=%T (%s)", obj, obj.Inspect())
	}
	if result.Value != expected {
		t.Fatalf("wrong integer value. got=%d, want=%d", result.Value, expected)
	}
}

func wantFloat(t *testing.T, obj object.Object, expected float64) {
	t.Helper()
	result, ok := obj.(*object.Float)
	if !ok {
		t.Fatalf("object is not Float. got=%T (%s)", obj, obj.Inspect())
	}
	if result.Value != expected {
		t.Fatalf("wrong float value. got=%g, want=%g", result.Value, expected)
	}
}

func wantBool(t *testing.T, obj object.Object, expected bool) {
	t.Helper()
	result, ok := obj.(*object.Boolean)
	if !ok {
		t.Fatalf("object is not Boolean. got=%T (%s)", obj, obj.Inspect())
	}
	if result.Value != expected {
		t.Fatalf("wrong boolean value. got=%t, want=%t", result.Value, expected)
	}
}

func wantString(t *testing.T, obj object.Object, expected string) {
	t.Helper()
	result, ok := obj.(*object.String)
	if !ok {
		t.Fatalf("object is not String. got=%T (%s)", obj, obj.Inspect())
	}
	if result.Value != expected {
		t.Fatalf("wrong string value. got=%q, want=%q", result.Value, expected)
	}
}

func wantUnit(t *testing.T, obj object.Object) {
	t.Helper()
	if _, ok := obj.(*object.Unit); !ok {
		t.Fatalf("object is not Unit. got=%T (%s)", obj, obj.Inspect())
	}
}

func wantRuntimeError(t *testing.T, obj object.Object, kind string) {
	t.Helper()
	err, ok := obj.(*object.RuntimeError)
	if !ok {
		t.Fatalf("object is not RuntimeError. got=%T (%s)", obj, obj.Inspect())
	}
	if err.Kind != kind {
		t.Fatalf("wrong error kind. got=%s (%s), want=%s", err.Kind, err.Message, kind)
	}
}

func TestIntegerArithmetic(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"5", 5},
		{"-5", -5},
		{"5 + 5 + 5 + 5 - 10", 10},
		{"2 * 2 * 2 * 2 * 2", 32},
		{"5 * 2 + 10", 20},
		{"5 + 2 * 10", 25},
		{"50 / 2 * 2 + 10", 60},
		{"(5 + 10 * 2 + 15 / 3) * 2 + -10", 50},
		{"17 % 5", 2},
	}

	for _, tt := range tests {
		wantInt(t, testEval(t, tt.input), tt.expected)
	}
}

func TestFloatPromotion(t *testing.T) {
	wantFloat(t, testEval(t, "1 + 2.5"), 3.5)
	wantFloat(t, testEval(t, "2.5 * 2"), 5.0)
	wantFloat(t, testEval(t, "1.0 / 4"), 0.25)
	wantBool(t, testEval(t, "1 < 1.5"), true)
}

func TestDivisionByZero(t *testing.T) {
	wantRuntimeError(t, testEval(t, "10 / 0"), object.DivisionByZero)
	wantRuntimeError(t, testEval(t, "10 % 0"), object.DivisionByZero)

	// float division follows IEEE 754 instead
	result := testEval(t, "1.0 / 0.0")
	if _, ok := result.(*object.Float); !ok {
		t.Fatalf("float division by zero should produce a float, got %T", result)
	}
}

func TestBooleanExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"1 < 2", true},
		{"1 >= 2", false},
		{"1 == 1", true},
		{"1 != 2", true},
		{"(1, 2) == (1, 2)", true},
		{"[1, 2] == [1, 2]", true},
		{"[1, 2] == [1, 3]", false},
		{`"a" == "a"`, true},
		{"1 == 1.0", true},
		{"!true", false},
		{"!0", false}, // zero is truthy; only false and unit are falsy
		{"true && false", false},
		{"true || false", true},
	}

	for _, tt := range tests {
		wantBool(t, testEval(t, tt.input), tt.expected)
	}
}

func TestShortCircuitSkipsRightOperand(t *testing.T) {
	// the right operand would throw if evaluated
	wantBool(t, testEval(t, "false && (10 / 0 == 0)"), false)
	wantBool(t, testEval(t, "true || (10 / 0 == 0)"), true)
}

func TestStringOperations(t *testing.T) {
	wantString(t, testEval(t, `"foo" + "bar"`), "foobar")
	wantString(t, testEval(t, `"n = " + 42`), "n = 42")
	wantBool(t, testEval(t, `"abc" < "abd"`), true)

	char := testEval(t, `"héllo"[1]`)
	c, ok := char.(*object.Char)
	if !ok {
		t.Fatalf("string index should yield a char, got %T", char)
	}
	if c.Value != 'é' {
		t.Fatalf("string indexing is not rune-based: got %q", c.Value)
	}
}

func TestLetAndAssignment(t *testing.T) {
	wantInt(t, testEval(t, "let a = 5; a"), 5)
	wantInt(t, testEval(t, "let mut a = 5; a = a + 1; a"), 6)
	wantInt(t, testEval(t, "let a = 5; let b = a; let c = a + b + 5; c"), 15)
	wantInt(t, testEval(t, "let (a, b) = (1, 2); a + b"), 3)
}

func TestAssignmentToImmutableBinding(t *testing.T) {
	wantRuntimeError(t, testEval(t, "let a = 5; a = 6"), object.ImmutableBinding)
	wantRuntimeError(t, testEval(t, "b = 6"), object.UndefinedVariable)
}

func TestUndefinedVariable(t *testing.T) {
	wantRuntimeError(t, testEval(t, "foobar"), object.UndefinedVariable)
}

func TestBlockScoping(t *testing.T) {
	// inner let shadows; outer binding is untouched
	wantInt(t, testEval(t, `
		let mut x = 1;
		if true {
			let x = 99;
		}
		x
	`), 1)

	// assignment without let writes through to the outer frame
	wantInt(t, testEval(t, `
		let mut x = 1;
		if true {
			x = 2;
		}
		x
	`), 2)
}

func TestClosuresCaptureByReference(t *testing.T) {
	wantInt(t, testEval(t, `
		let counter = fn() {
			let mut n = 0;
			fn() { n = n + 1; n }
		};
		let tick = counter();
		tick();
		tick();
		tick()
	`), 3)
}

func TestFunctionApplication(t *testing.T) {
	wantInt(t, testEval(t, "fn double(x) { x * 2 } double(5)"), 10)
	wantInt(t, testEval(t, "let id = fn(x) { x }; id(5)"), 5)
	wantInt(t, testEval(t, "fn add(a, b) { a + b } add(1, add(2, 3))"), 6)
	wantRuntimeError(t, testEval(t, "fn f(a) { a } f(1, 2)"), object.ArityMismatch)
}

func TestEarlyReturn(t *testing.T) {
	wantString(t, testEval(t, `
		fn classify(x) {
			if x < 0 { return "neg" }
			if x == 0 { return "zero" }
			"pos"
		}
		classify(5)
	`), "pos")

	wantInt(t, testEval(t, `
		fn f() {
			for i in 0..10 {
				if i == 3 { return i * 100 }
			}
			-1
		}
		f()
	`), 300)
}

func TestForOverLargeRangeBreaksEarly(t *testing.T) {
	// The range is walked lazily; materializing it would exhaust memory long
	// before the break.
	wantInt(t, testEval(t, `
		let mut n = 0;
		for i in 0..1000000000 {
			n = n + 1;
			if n == 3 { break }
		}
		n
	`), 3)
}

func TestForLoopAccumulation(t *testing.T) {
	wantInt(t, testEval(t, "let mut x = 0; for i in 0..5 { x = x + i }; x"), 10)
	wantInt(t, testEval(t, "let mut x = 0; for i in 0..=5 { x = x + i }; x"), 15)
	wantInt(t, testEval(t, "let mut x = 0; for v in [2, 4, 6] { x = x + v }; x"), 12)
}

func TestForOverMapYieldsPairs(t *testing.T) {
	wantString(t, testEval(t, `
		let mut out = "";
		for (k, v) in {"a": 1, "b": 2} {
			out = out + k + v;
		}
		out
	`), "a1b2")
}

func TestWhileLoop(t *testing.T) {
	wantInt(t, testEval(t, `
		let mut n = 0;
		while n < 10 { n = n + 2 }
		n
	`), 10)
}

func TestLoopBreakValue(t *testing.T) {
	wantInt(t, testEval(t, "loop { break 42 }"), 42)
	wantUnit(t, testEval(t, "loop { break }"))
}

func TestContinueSkipsIteration(t *testing.T) {
	wantInt(t, testEval(t, `
		let mut x = 0;
		for i in 0..=10 {
			if i % 2 == 1 { continue }
			x = x + i;
		}
		x
	`), 30)
}

func TestLabelledBreakAndContinue(t *testing.T) {
	wantInt(t, testEval(t, `
		let mut hits = 0;
		'outer: for i in 0..3 {
			for j in 0..3 {
				if j == 2 { continue 'outer }
				if i == 2 { break 'outer }
				hits = hits + 1;
			}
		}
		hits
	`), 4)

	wantInt(t, testEval(t, `
		'outer: loop {
			loop { break 'outer 7 }
		}
	`), 7)
}

func TestLoopControlOutsideLoop(t *testing.T) {
	wantRuntimeError(t, testEval(t, "break"), object.IllegalControl)
	wantRuntimeError(t, testEval(t, "fn f() { break } loop { f(); break }"), object.IllegalControl)
}

func TestArraysAreCopyOnWrite(t *testing.T) {
	wantInt(t, testEval(t, `
		let a = [1, 2, 3];
		let mut b = a;
		b[0] = 99;
		a[0]
	`), 1)

	wantInt(t, testEval(t, `
		let a = [1, 2, 3];
		let mut b = a;
		b[0] = 99;
		b[0]
	`), 99)
}

func TestNestedIndexAssignment(t *testing.T) {
	wantInt(t, testEval(t, `
		let mut grid = [[1, 2], [3, 4]];
		grid[1][0] = 30;
		grid[1][0]
	`), 30)
}

func TestIndexErrors(t *testing.T) {
	wantRuntimeError(t, testEval(t, "[1, 2][5]"), object.IndexOutOfRange)
	wantRuntimeError(t, testEval(t, `"ab"[-1]`), object.IndexOutOfRange)
	wantRuntimeError(t, testEval(t, `{"a": 1}["b"]`), object.KeyNotFound)
}

func TestMapLiteralAndAccess(t *testing.T) {
	wantInt(t, testEval(t, `{"a": 1, "b": 2}["b"]`), 2)
	wantInt(t, testEval(t, `len({"a": 1, "b": 2})`), 2)
	wantInt(t, testEval(t, `
		let mut m = {"a": 1};
		m["b"] = 2;
		m["b"]
	`), 2)
}

func TestThrowAndCatch(t *testing.T) {
	wantInt(t, testEval(t, `try { 10 / 0 } catch e { -1 }`), -1)
	wantString(t, testEval(t, `try { throw "boom" } catch e { e }`), "boom")
	wantInt(t, testEval(t, `try { 1 + 1 } catch e { -1 }`), 2)
}

func TestCatchPatternRethrowsOnMismatch(t *testing.T) {
	// the literal catch pattern doesn't match, so the throw keeps unwinding
	wantString(t, testEval(t, `
		try {
			try { throw "inner" } catch "other" { "wrong" }
		} catch e { e }
	`), "inner")
}

func TestReturnIsNotCatchable(t *testing.T) {
	wantInt(t, testEval(t, `
		fn f() {
			try { return 1 } catch e { 2 }
		}
		f()
	`), 1)
}

func TestUncaughtThrow(t *testing.T) {
	result := testEval(t, `throw "boom"`)
	wantRuntimeError(t, result, object.UncaughtThrow)
}

func TestIfIsAnExpression(t *testing.T) {
	wantInt(t, testEval(t, "let x = if true { 1 } else { 2 }; x"), 1)
	wantUnit(t, testEval(t, "if false { 1 }"))
}

func TestDbConnectArgumentChecking(t *testing.T) {
	wantRuntimeError(t, testEval(t, `db_connect(1, "dsn")`), object.TypeMismatch)
	wantRuntimeError(t, testEval(t, `db_connect("sqlite3", 1)`), object.TypeMismatch)
}

func TestBuiltins(t *testing.T) {
	wantInt(t, testEval(t, `len("héllo")`), 5)
	wantInt(t, testEval(t, "len([1, 2, 3])"), 3)
	wantString(t, testEval(t, "type(1)"), "INTEGER")
	wantString(t, testEval(t, "str(42)"), "42")
	wantInt(t, testEval(t, `int("17")`), 17)
	wantInt(t, testEval(t, "int(3.9)"), 3)
	wantFloat(t, testEval(t, `float("2.5")`), 2.5)
	wantInt(t, testEval(t, "len(chars(\"abc\"))"), 3)
	wantInt(t, testEval(t, "[1, 2][len(push([1], 9)) - 1]"), 2)
	wantString(t, testEval(t, `join(split("a,b,c", ","), "-")`), "a-b-c")
	wantBool(t, testEval(t, `contains("haystack", "hay")`), true)
	wantInt(t, testEval(t, "let mut x = 0; for i in range(4) { x = x + i }; x"), 6)
	wantRuntimeError(t, testEval(t, "len(1)"), object.TypeMismatch)
}

func TestEnumDeclarationAndMatching(t *testing.T) {
	wantInt(t, testEval(t, `
		enum Shape { Circle(r), Rect(w, h), Empty }
		fn area(s) {
			match s {
				Circle(r) => r * r * 3,
				Rect(w, h) => w * h,
				Empty => 0,
			}
		}
		area(Rect(3, 4)) + area(Circle(2)) + area(Empty)
	`), 24)

	wantRuntimeError(t, testEval(t, `
		enum E { V(a) }
		V(1, 2)
	`), object.ArityMismatch)
}
