package evaluator

import (
	"rill/internal/object"
	"testing"
)

func TestClassConstructionAndMethods(t *testing.T) {
	wantInt(t, testEval(t, `
		class Counter {
			init(start) {
				self.count = start;
			}
			fn increment() {
				self.count = self.count + 1;
			}
			fn value() {
				self.count
			}
		}
		let c = Counter(10);
		c.increment();
		c.increment();
		c.value()
	`), 12)
}

func TestInstancesShareByReference(t *testing.T) {
	// aliasing: both names refer to the same cell
	wantInt(t, testEval(t, `
		class Counter {
			init() { self.count = 0; }
			fn increment() { self.count = self.count + 1; }
		}
		let a = Counter();
		let b = a;
		b.increment();
		a.count
	`), 1)
}

func TestInstanceEqualityIsIdentity(t *testing.T) {
	wantBool(t, testEval(t, `
		class Box { init(v) { self.v = v; } }
		let a = Box(1);
		let b = Box(1);
		a == b
	`), false)

	wantBool(t, testEval(t, `
		class Box { init(v) { self.v = v; } }
		let a = Box(1);
		let b = a;
		a == b
	`), true)
}

func TestMethodsCallOtherMethods(t *testing.T) {
	wantInt(t, testEval(t, `
		class Calc {
			init(n) { self.n = n; }
			fn double() { self.n * 2 }
			fn quadruple() { self.double() + self.double() }
		}
		Calc(5).quadruple()
	`), 20)
}

func TestMethodsAreFirstClass(t *testing.T) {
	wantInt(t, testEval(t, `
		class Counter {
			init() { self.count = 0; }
			fn increment() { self.count = self.count + 1; }
		}
		let c = Counter();
		let bump = c.increment;
		bump();
		bump();
		c.count
	`), 2)
}

func TestFieldReadAndDirectWrite(t *testing.T) {
	wantInt(t, testEval(t, `
		class Point { init(x, y) { self.x = x; self.y = y; } }
		let p = Point(1, 2);
		p.x = 10;
		p.x + p.y
	`), 12)
}

func TestSelfReentrancyThroughMethodCall(t *testing.T) {
	// reading a field, then calling a method that writes the same field,
	// inside a single method body
	wantInt(t, testEval(t, `
		class Acc {
			init() { self.total = 0; }
			fn add(n) { self.total = self.total + n; }
			fn addTwice(n) {
				self.add(n);
				self.add(self.total);
			}
		}
		let a = Acc();
		a.addTwice(3);
		a.total
	`), 6)
}

func TestClassErrors(t *testing.T) {
	wantRuntimeError(t, testEval(t, `
		class Empty {}
		Empty(1)
	`), object.MissingConstructor)

	wantRuntimeError(t, testEval(t, `
		class P { init(x) { self.x = x; } }
		P(1, 2)
	`), object.ArityMismatch)

	wantRuntimeError(t, testEval(t, `
		class P { init(x) { self.x = x; } }
		P(1).nope()
	`), object.MethodNotFound)
}

func TestConstructorYieldsInstanceNotBodyValue(t *testing.T) {
	result := testEval(t, `
		class P { init() { self.x = 42; 99 } }
		P()
	`)
	inst, ok := result.(*object.Instance)
	if !ok {
		t.Fatalf("constructor call should yield the instance, got %T (%s)", result, result.Inspect())
	}
	v, found := inst.GetField("x")
	if !found {
		t.Fatalf("field x not initialized")
	}
	wantInt(t, v, 42)
}

func TestThrowFromConstructorPropagates(t *testing.T) {
	wantString(t, testEval(t, `
		class P { init() { throw "bad init" } }
		try { P() } catch e { e }
	`), "bad init")
}
