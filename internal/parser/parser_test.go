package parser

import (
	"fmt"
	"rill/internal/ast"
	"rill/internal/lexer"
	"testing"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	l := lexer.New(input)
	p := New(l)
	program := p.ParseProgram()
	checkParserErrors(t, p)
	return program
}

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	errors := p.Errors()
	if len(errors) == 0 {
		return
	}

	t.Errorf("parser has %d errors", len(errors))
	for _, msg := range errors {
		t.Errorf("parser error: %q", msg)
	}
	t.FailNow()
}

func TestLetStatements(t *testing.T) {
	tests := []struct {
		input        string
		expectedName string
		expectedMut  bool
	}{
		{"let x = 5;", "x", false},
		{"let mut y = true;", "y", true},
		{"let foobar = y;", "foobar", false},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)

		if len(program.Statements) != 1 {
			t.Fatalf("program.Statements does not contain 1 statement. got=%d",
				len(program.Statements))
		}

		stmt, ok := program.Statements[0].(*ast.LetStatement)
		if !ok {
			t.Fatalf("statement is not *ast.LetStatement. got=%T", program.Statements[0])
		}
		if stmt.Mutable != tt.expectedMut {
			t.Errorf("mutable flag wrong for %q. got=%t", tt.input, stmt.Mutable)
		}
		pat, ok := stmt.Pattern.(*ast.IdentifierPattern)
		if !ok {
			t.Fatalf("let pattern is not identifier. got=%T", stmt.Pattern)
		}
		if pat.Value.Value != tt.expectedName {
			t.Errorf("binding name wrong. expected=%q got=%q", tt.expectedName, pat.Value.Value)
		}
	}
}

func TestLetWithTuplePattern(t *testing.T) {
	program := parseProgram(t, "let (a, b) = (1, 2);")

	stmt := program.Statements[0].(*ast.LetStatement)
	pat, ok := stmt.Pattern.(*ast.TuplePattern)
	if !ok {
		t.Fatalf("let pattern is not tuple. got=%T", stmt.Pattern)
	}
	if len(pat.Elements) != 2 {
		t.Fatalf("tuple pattern has %d elements, want 2", len(pat.Elements))
	}
}

func TestReturnStatements(t *testing.T) {
	program := parseProgram(t, "return 5; return; return x + y;")

	if len(program.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(program.Statements))
	}
	for _, stmt := range program.Statements {
		if _, ok := stmt.(*ast.ReturnStatement); !ok {
			t.Errorf("statement is not *ast.ReturnStatement. got=%T", stmt)
		}
	}
	if program.Statements[1].(*ast.ReturnStatement).ReturnValue != nil {
		t.Errorf("bare return should carry no value")
	}
}

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"-a * b", "((-a) * b)"},
		{"!-a", "(!(-a))"},
		{"a + b + c", "((a + b) + c)"},
		{"a + b * c", "(a + (b * c))"},
		{"a % b + c", "((a % b) + c)"},
		{"5 < 4 != 3 > 4", "((5 < 4) != (3 > 4))"},
		{"3 + 4 * 5 == 3 * 1 + 4 * 5", "((3 + (4 * 5)) == ((3 * 1) + (4 * 5)))"},
		{"true == !false", "(true == (!false))"},
		{"a && b || c", "((a && b) || c)"},
		{"1 + (2 + 3) + 4", "((1 + (2 + 3)) + 4)"},
		{"-(5 + 5)", "(-(5 + 5))"},
		{"a * [1, 2, 3][b * c] * d", "((a * ([1, 2, 3][(b * c)])) * d)"},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		actual := program.String()
		if actual != tt.expected {
			t.Errorf("input %q: expected=%q, got=%q", tt.input, tt.expected, actual)
		}
	}
}

func TestRangeParsing(t *testing.T) {
	tests := []struct {
		input         string
		wantInclusive bool
	}{
		{"0..5", false},
		{"0..=5", true},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		stmt := program.Statements[0].(*ast.ExpressionStatement)
		r, ok := stmt.Expression.(*ast.RangeLiteral)
		if !ok {
			t.Fatalf("expression is not *ast.RangeLiteral. got=%T", stmt.Expression)
		}
		if r.Inclusive != tt.wantInclusive {
			t.Errorf("input %q: inclusive=%t, want %t", tt.input, r.Inclusive, tt.wantInclusive)
		}
	}
}

func TestIfElseChain(t *testing.T) {
	program := parseProgram(t, `if x < 0 { "neg" } else if x == 0 { "zero" } else { "pos" }`)

	stmt := program.Statements[0].(*ast.ExpressionStatement)
	exp, ok := stmt.Expression.(*ast.IfExpression)
	if !ok {
		t.Fatalf("expression is not *ast.IfExpression. got=%T", stmt.Expression)
	}
	inner, ok := exp.Alternative.(*ast.IfExpression)
	if !ok {
		t.Fatalf("alternative is not a chained if. got=%T", exp.Alternative)
	}
	if _, ok := inner.Alternative.(*ast.BlockStatement); !ok {
		t.Fatalf("final else is not a block. got=%T", inner.Alternative)
	}
}

func TestFunctionDeclaration(t *testing.T) {
	program := parseProgram(t, `fn add(x, y) { x + y }`)

	decl, ok := program.Statements[0].(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("statement is not *ast.FunctionDeclaration. got=%T", program.Statements[0])
	}
	if decl.Name.Value != "add" {
		t.Errorf("function name wrong. got=%q", decl.Name.Value)
	}
	if len(decl.Function.Parameters) != 2 {
		t.Errorf("expected 2 parameters, got %d", len(decl.Function.Parameters))
	}
}

func TestFunctionLiteralExpression(t *testing.T) {
	program := parseProgram(t, `let f = fn(x) { x * 2 };`)

	stmt := program.Statements[0].(*ast.LetStatement)
	fn, ok := stmt.Value.(*ast.FunctionLiteral)
	if !ok {
		t.Fatalf("let value is not *ast.FunctionLiteral. got=%T", stmt.Value)
	}
	if len(fn.Parameters) != 1 || fn.Parameters[0].Value != "x" {
		t.Errorf("parameters wrong: %v", fn.Parameters)
	}
}

func TestAssignExpression(t *testing.T) {
	tests := []struct {
		input      string
		targetType string
	}{
		{"x = 1", "*ast.Identifier"},
		{"a[0] = 1", "*ast.IndexExpression"},
		{"p.x = 1", "*ast.FieldAccess"},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		stmt := program.Statements[0].(*ast.ExpressionStatement)
		assign, ok := stmt.Expression.(*ast.AssignExpression)
		if !ok {
			t.Fatalf("input %q: expression is not *ast.AssignExpression. got=%T",
				tt.input, stmt.Expression)
		}
		if got := fmt.Sprintf("%T", assign.Target); got != tt.targetType {
			t.Errorf("input %q: target type=%s, want %s", tt.input, got, tt.targetType)
		}
	}
}

func TestInvalidAssignTarget(t *testing.T) {
	l := lexer.New("1 = 2")
	p := New(l)
	p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatalf("expected a parse error for literal assignment target")
	}
}

func TestMatchExpression(t *testing.T) {
	input := `match n {
		0 => "zero",
		x if x < 0 => "less",
		1..=9 => "digit",
		_ => { "more" }
	}`

	program := parseProgram(t, input)
	stmt := program.Statements[0].(*ast.ExpressionStatement)
	m, ok := stmt.Expression.(*ast.MatchExpression)
	if !ok {
		t.Fatalf("expression is not *ast.MatchExpression. got=%T", stmt.Expression)
	}
	if len(m.Arms) != 4 {
		t.Fatalf("expected 4 arms, got %d", len(m.Arms))
	}

	if _, ok := m.Arms[0].Pattern.(*ast.LiteralPattern); !ok {
		t.Errorf("arm 0 pattern is not literal. got=%T", m.Arms[0].Pattern)
	}
	if m.Arms[1].Guard == nil {
		t.Errorf("arm 1 should carry a guard")
	}
	rp, ok := m.Arms[2].Pattern.(*ast.RangePattern)
	if !ok {
		t.Fatalf("arm 2 pattern is not range. got=%T", m.Arms[2].Pattern)
	}
	if !rp.Inclusive {
		t.Errorf("arm 2 range should be inclusive")
	}
	if _, ok := m.Arms[3].Pattern.(*ast.WildcardPattern); !ok {
		t.Errorf("arm 3 pattern is not wildcard. got=%T", m.Arms[3].Pattern)
	}
	if _, ok := m.Arms[3].Body.(*ast.BlockStatement); !ok {
		t.Errorf("arm 3 body is not a block. got=%T", m.Arms[3].Body)
	}
}

func TestVariantAndStructPatterns(t *testing.T) {
	input := `match v {
		None => 0,
		Some(x) => x,
		Point { x, y: 0 } => x,
		{ name } => name,
		[first, ..rest] => first,
	}`

	program := parseProgram(t, input)
	m := program.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.MatchExpression)
	if len(m.Arms) != 5 {
		t.Fatalf("expected 5 arms, got %d", len(m.Arms))
	}

	bare, ok := m.Arms[0].Pattern.(*ast.VariantPattern)
	if !ok || bare.Name.Value != "None" || len(bare.Elements) != 0 {
		t.Errorf("arm 0: want bare variant None, got %T %s", m.Arms[0].Pattern, m.Arms[0].Pattern)
	}

	some, ok := m.Arms[1].Pattern.(*ast.VariantPattern)
	if !ok || some.Name.Value != "Some" || len(some.Elements) != 1 {
		t.Fatalf("arm 1: want Some(x), got %T", m.Arms[1].Pattern)
	}

	point, ok := m.Arms[2].Pattern.(*ast.StructPattern)
	if !ok || point.Name == nil || point.Name.Value != "Point" {
		t.Fatalf("arm 2: want named struct pattern, got %T", m.Arms[2].Pattern)
	}
	if len(point.Fields) != 2 {
		t.Fatalf("arm 2: want 2 fields, got %d", len(point.Fields))
	}
	if point.Fields[0].Pattern != nil {
		t.Errorf("arm 2: field x should be shorthand")
	}
	if point.Fields[1].Pattern == nil {
		t.Errorf("arm 2: field y should carry a subpattern")
	}

	anon, ok := m.Arms[3].Pattern.(*ast.StructPattern)
	if !ok || anon.Name != nil {
		t.Fatalf("arm 3: want anonymous struct pattern, got %T", m.Arms[3].Pattern)
	}

	arr, ok := m.Arms[4].Pattern.(*ast.ArrayPattern)
	if !ok || len(arr.Elements) != 2 {
		t.Fatalf("arm 4: want array pattern with 2 elements, got %T", m.Arms[4].Pattern)
	}
	rest, ok := arr.Elements[1].(*ast.RestPattern)
	if !ok || rest.Name == nil || rest.Name.Value != "rest" {
		t.Errorf("arm 4: want named rest pattern, got %T", arr.Elements[1])
	}
}

func TestLoops(t *testing.T) {
	program := parseProgram(t, `
		for i in 0..5 { i }
		while x < 10 { x = x + 1 }
		loop { break 42 }
		'outer: loop { break 'outer }
	`)

	if len(program.Statements) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(program.Statements))
	}

	forExp := program.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.ForExpression)
	if _, ok := forExp.Iterable.(*ast.RangeLiteral); !ok {
		t.Errorf("for iterable is not a range. got=%T", forExp.Iterable)
	}

	if _, ok := program.Statements[1].(*ast.ExpressionStatement).Expression.(*ast.WhileExpression); !ok {
		t.Errorf("statement 1 is not a while loop")
	}

	loopExp := program.Statements[2].(*ast.ExpressionStatement).Expression.(*ast.LoopExpression)
	brk := loopExp.Body.Statements[0].(*ast.BreakStatement)
	if brk.Value == nil {
		t.Errorf("break should carry a value")
	}

	labelled := program.Statements[3].(*ast.ExpressionStatement).Expression.(*ast.LoopExpression)
	if labelled.Label != "outer" {
		t.Errorf("loop label wrong. got=%q", labelled.Label)
	}
	lbrk := labelled.Body.Statements[0].(*ast.BreakStatement)
	if lbrk.Label != "outer" {
		t.Errorf("break label wrong. got=%q", lbrk.Label)
	}
}

func TestTryCatch(t *testing.T) {
	program := parseProgram(t, `try { risky() } catch e { handle(e) }`)

	stmt := program.Statements[0].(*ast.ExpressionStatement)
	tc, ok := stmt.Expression.(*ast.TryCatchExpression)
	if !ok {
		t.Fatalf("expression is not *ast.TryCatchExpression. got=%T", stmt.Expression)
	}
	if _, ok := tc.CatchPattern.(*ast.IdentifierPattern); !ok {
		t.Errorf("catch pattern is not identifier. got=%T", tc.CatchPattern)
	}
}

func TestThrowStatement(t *testing.T) {
	program := parseProgram(t, `throw "boom";`)

	if _, ok := program.Statements[0].(*ast.ThrowStatement); !ok {
		t.Fatalf("statement is not *ast.ThrowStatement. got=%T", program.Statements[0])
	}
}

func TestClassDeclaration(t *testing.T) {
	input := `class Counter {
		init(start) {
			self.count = start
		}
		fn increment() {
			self.count = self.count + 1
		}
		fn value() {
			self.count
		}
	}`

	program := parseProgram(t, input)
	decl, ok := program.Statements[0].(*ast.ClassDeclaration)
	if !ok {
		t.Fatalf("statement is not *ast.ClassDeclaration. got=%T", program.Statements[0])
	}
	if decl.Name.Value != "Counter" {
		t.Errorf("class name wrong. got=%q", decl.Name.Value)
	}
	if decl.Init == nil || len(decl.Init.Parameters) != 1 {
		t.Fatalf("init constructor missing or wrong arity")
	}
	if len(decl.Methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(decl.Methods))
	}
	if decl.Methods[0].Name.Value != "increment" || decl.Methods[1].Name.Value != "value" {
		t.Errorf("method names wrong: %q, %q",
			decl.Methods[0].Name.Value, decl.Methods[1].Name.Value)
	}
}

func TestActorDeclaration(t *testing.T) {
	input := `actor Counter {
		init(start) {
			self.count = start
		}
		receive {
			Increment => { self.count = self.count + 1 },
			Get => self.count,
		}
	}`

	program := parseProgram(t, input)
	decl, ok := program.Statements[0].(*ast.ActorDeclaration)
	if !ok {
		t.Fatalf("statement is not *ast.ActorDeclaration. got=%T", program.Statements[0])
	}
	if decl.Name.Value != "Counter" {
		t.Errorf("actor name wrong. got=%q", decl.Name.Value)
	}
	if decl.Init == nil {
		t.Fatalf("init constructor missing")
	}
	if len(decl.Receive) != 2 {
		t.Fatalf("expected 2 receive arms, got %d", len(decl.Receive))
	}
}

func TestEnumDeclaration(t *testing.T) {
	program := parseProgram(t, `enum Shape { Circle(radius), Rect(w, h), Empty }`)

	decl, ok := program.Statements[0].(*ast.EnumDeclaration)
	if !ok {
		t.Fatalf("statement is not *ast.EnumDeclaration. got=%T", program.Statements[0])
	}
	if len(decl.Variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(decl.Variants))
	}
	if len(decl.Variants[0].Params) != 1 || len(decl.Variants[1].Params) != 2 || len(decl.Variants[2].Params) != 0 {
		t.Errorf("variant arities wrong")
	}
}

func TestSpawnSendAsk(t *testing.T) {
	program := parseProgram(t, `
		let ref = spawn Counter(0);
		ref ! Increment;
		let n = ref ? Get;
	`)

	spawnStmt := program.Statements[0].(*ast.LetStatement)
	sp, ok := spawnStmt.Value.(*ast.SpawnExpression)
	if !ok {
		t.Fatalf("let value is not *ast.SpawnExpression. got=%T", spawnStmt.Value)
	}
	if sp.Call == nil || len(sp.Call.Arguments) != 1 {
		t.Fatalf("spawn call wrong: %v", sp.Call)
	}

	sendStmt := program.Statements[1].(*ast.ExpressionStatement)
	if _, ok := sendStmt.Expression.(*ast.SendExpression); !ok {
		t.Fatalf("expression is not *ast.SendExpression. got=%T", sendStmt.Expression)
	}

	askStmt := program.Statements[2].(*ast.LetStatement)
	if _, ok := askStmt.Value.(*ast.AskExpression); !ok {
		t.Fatalf("let value is not *ast.AskExpression. got=%T", askStmt.Value)
	}
}

func TestUnitAndTupleLiterals(t *testing.T) {
	program := parseProgram(t, `(); (1, "two", true);`)

	if _, ok := program.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.UnitLiteral); !ok {
		t.Fatalf("statement 0 is not a unit literal")
	}
	tup, ok := program.Statements[1].(*ast.ExpressionStatement).Expression.(*ast.TupleLiteral)
	if !ok {
		t.Fatalf("statement 1 is not a tuple literal")
	}
	if len(tup.Elements) != 3 {
		t.Errorf("expected 3 tuple elements, got %d", len(tup.Elements))
	}
}

func TestMapLiteral(t *testing.T) {
	program := parseProgram(t, `{"one": 1, "two": 2}`)

	m, ok := program.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.MapLiteral)
	if !ok {
		t.Fatalf("expression is not *ast.MapLiteral. got=%T",
			program.Statements[0].(*ast.ExpressionStatement).Expression)
	}
	if len(m.Keys) != 2 || len(m.Vals) != 2 {
		t.Errorf("map literal sizes wrong: %d keys, %d values", len(m.Keys), len(m.Vals))
	}
}
