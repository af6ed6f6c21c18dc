package evaluator

import (
	"rill/internal/object"
	"testing"
)

const counterActor = `
	actor Counter {
		init(start) {
			self.count = start;
		}
		receive {
			Increment => { self.count = self.count + 1 },
			Add(n) => { self.count = self.count + n },
			Get => self.count,
		}
	}
`

func TestActorSendAndAsk(t *testing.T) {
	wantInt(t, testEval(t, counterActor+`
		let c = spawn Counter(0);
		c ! Increment;
		c ! Increment;
		c ! Add(5);
		c ? Get
	`), 7)
}

func TestAskReturnsHandlerResult(t *testing.T) {
	wantInt(t, testEval(t, `
		actor Doubler {
			init() { self.unused = 0; }
			receive {
				Double(n) => n * 2,
			}
		}
		let d = spawn Doubler();
		(d ? Double(4)) + (d ? Double(10))
	`), 28)
}

func TestMessagesProcessedInOrder(t *testing.T) {
	// ask acts as a barrier: every send from this goroutine lands first
	wantInt(t, testEval(t, counterActor+`
		let c = spawn Counter(0);
		for i in 0..100 {
			c ! Increment;
		}
		c ? Get
	`), 100)
}

func TestActorStateIsolatedPerSpawn(t *testing.T) {
	wantInt(t, testEval(t, counterActor+`
		let a = spawn Counter(0);
		let b = spawn Counter(100);
		a ! Increment;
		(a ? Get) + (b ? Get)
	`), 101)
}

func TestActorRefEqualityIsIdentity(t *testing.T) {
	wantBool(t, testEval(t, counterActor+`
		let a = spawn Counter(0);
		let b = spawn Counter(0);
		a == b
	`), false)

	wantBool(t, testEval(t, counterActor+`
		let a = spawn Counter(0);
		let b = a;
		a == b
	`), true)
}

func TestStopAndAlive(t *testing.T) {
	wantBool(t, testEval(t, counterActor+`
		let c = spawn Counter(0);
		alive(c)
	`), true)

	// stop is graceful: messages ahead of it still process, sends after the
	// actor winds down fail
	wantRuntimeError(t, testEval(t, counterActor+`
		let c = spawn Counter(0);
		c ! Increment;
		ask(c, Get, 500);
		stop(c);
		while alive(c) { sleep(1) }
		c ! Increment
	`), object.ActorStopped)
}

func TestAskTimeout(t *testing.T) {
	wantRuntimeError(t, testEval(t, `
		actor Sleeper {
			init() { self.unused = 0; }
			receive {
				Nap(millis) => { sleep(millis) },
			}
		}
		let s = spawn Sleeper();
		s ! Nap(500);
		ask(s, Nap(1), 20)
	`), object.AskTimeout)
}

func TestAskRacingStopIsAlwaysAnswered(t *testing.T) {
	// An ask landing around the stop must get either the handler's reply or
	// ActorStopped; it must never be left waiting on a dead mailbox.
	for i := 0; i < 25; i++ {
		result := testEval(t, counterActor+`
			let c = spawn Counter(0);
			stop(c);
			ask(c, Get, 300)
		`)
		switch obj := result.(type) {
		case *object.Integer:
			if obj.Value != 0 {
				t.Fatalf("unexpected reply %d", obj.Value)
			}
		case *object.RuntimeError:
			if obj.Kind != object.ActorStopped {
				t.Fatalf("expected ActorStopped, got %s: %s", obj.Kind, obj.Message)
			}
		default:
			t.Fatalf("expected a reply or ActorStopped, got %s", result.Inspect())
		}
	}
}

func TestUnmatchedAskReturnsNoMatchingArm(t *testing.T) {
	wantRuntimeError(t, testEval(t, counterActor+`
		let c = spawn Counter(0);
		c ? Bogus
	`), object.NoMatchingArm)
}

func TestActorsMessageEachOther(t *testing.T) {
	wantInt(t, testEval(t, `
		actor Echo {
			init() { self.unused = 0; }
			receive {
				Ping(n) => n + 1,
			}
		}
		actor Relay {
			init(target) { self.target = target; }
			receive {
				Forward(n) => self.target ? Ping(n),
			}
		}
		let e = spawn Echo();
		let r = spawn Relay(e);
		r ? Forward(41)
	`), 42)
}

func TestReceiveGuards(t *testing.T) {
	wantString(t, testEval(t, `
		actor Gate {
			init(limit) { self.limit = limit; }
			receive {
				Check(n) if n < self.limit => "under",
				Check(n) => "over",
			}
		}
		let g = spawn Gate(10);
		(g ? Check(3)) + (g ? Check(30))
	`), "underover")
}

func TestSendToNonActorIsError(t *testing.T) {
	wantRuntimeError(t, testEval(t, `1 ! Increment`), object.TypeMismatch)
	wantRuntimeError(t, testEval(t, `1 ? Get`), object.TypeMismatch)
}

func TestSpawnRequiresActor(t *testing.T) {
	wantRuntimeError(t, testEval(t, `
		class C { init() { self.x = 0; } }
		spawn C()
	`), object.TypeMismatch)
}
