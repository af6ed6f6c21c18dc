package evaluator

import (
	"log/slog"
	"rill/internal/ast"
	"rill/internal/object"
	"sync"
	"sync/atomic"
	"time"
)

// inTrayCapacity bounds only the handoff buffer between senders and the
// pump goroutine; the queue behind it is unbounded.
const inTrayCapacity = 64

type envelopeKind int

const (
	userEnvelope envelopeKind = iota
	stopEnvelope
)

type envelope struct {
	kind    envelopeKind
	payload object.Object
	reply   chan object.Object // nil for fire-and-forget sends
}

// Actor owns one spawned instance: its state cell, its receive arms and the
// two goroutines that feed it. The pump drains inTray into an unbounded
// queue so senders never block on a busy handler; the worker processes one
// message to completion before taking the next.
type Actor struct {
	PID     int64
	Name    string
	self    *object.Instance
	receive []*ast.MatchArm
	eval    *Evaluator

	inTray  chan envelope
	mailbox chan envelope
	quit    chan struct{}

	stopMu  sync.RWMutex
	stopped bool
}

func (a *Actor) pump() {
	var queue []envelope

	for {
		var next chan envelope
		var head envelope
		if len(queue) > 0 {
			next = a.mailbox
			head = queue[0]
		}

		select {
		case env := <-a.inTray:
			queue = append(queue, env)
		case next <- head:
			queue = queue[1:]
		case <-a.quit:
			a.flush(a.drainInTray(queue))
			return
		}
	}
}

// drainInTray collects whatever is still sitting in the handoff buffer at
// wind-down. Every deliver that passed the stopped check has finished its
// inTray send before quit closes, so after this drain nothing is stranded.
func (a *Actor) drainInTray(queue []envelope) []envelope {
	for {
		select {
		case env := <-a.inTray:
			queue = append(queue, env)
		default:
			return queue
		}
	}
}

// flush answers every queued ask after a stop so callers blocked on a reply
// are released rather than stranded.
func (a *Actor) flush(queue []envelope) {
	for _, env := range queue {
		if env.reply != nil {
			env.reply <- newError(object.ActorStopped, "actor %s stopped", a.Name)
		}
	}
}

func (a *Actor) work(system *ActorSystem) {
	for env := range a.mailbox {
		if env.kind == stopEnvelope {
			if env.reply != nil {
				env.reply <- UNIT
			}
			break
		}

		result := a.handle(env.payload)

		if env.reply != nil {
			env.reply <- result
			continue
		}
		if object.IsError(result) {
			slog.Warn("actor message handler failed",
				"actor", a.Name, "pid", a.PID, "error", result.Inspect())
		}
	}

	a.stopMu.Lock()
	a.stopped = true
	a.stopMu.Unlock()

	system.remove(a.PID)
	close(a.quit)
}

func (a *Actor) handle(msg object.Object) object.Object {
	handlerEnv := object.NewEnclosedEnvironment(a.eval.CurrentEnv())
	handlerEnv.Define("self", a.self, false)

	a.eval.PushEnv(handlerEnv)
	defer a.eval.PopEnv()

	for _, arm := range a.receive {
		result, matched := a.eval.evalMatchArm(arm, msg)
		if matched {
			return a.eval.unwrapReturnValue(result)
		}
	}
	return newError(object.NoMatchingArm,
		"actor %s has no receive arm for %s", a.Name, msg.Inspect())
}

// ActorSystem is the PID registry: every live actor is reachable through
// it, and an ActorRef is nothing but a PID to resolve here.
type ActorSystem struct {
	mu      sync.Mutex
	actors  map[int64]*Actor
	nextPID int64
}

func NewActorSystem() *ActorSystem {
	return &ActorSystem{actors: map[int64]*Actor{}}
}

func (s *ActorSystem) nextID() int64 {
	return atomic.AddInt64(&s.nextPID, 1)
}

func (s *ActorSystem) lookup(pid int64) (*Actor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[pid]
	return a, ok
}

func (s *ActorSystem) remove(pid int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.actors, pid)
}

// Spawn starts the pump and worker goroutines for a constructed actor
// instance and registers its PID.
func (s *ActorSystem) Spawn(name string, self *object.Instance, receive []*ast.MatchArm, eval *Evaluator) *object.ActorRef {
	actor := &Actor{
		PID:     s.nextID(),
		Name:    name,
		self:    self,
		receive: receive,
		eval:    eval,
		inTray:  make(chan envelope, inTrayCapacity),
		mailbox: make(chan envelope),
		quit:    make(chan struct{}),
	}

	s.mu.Lock()
	s.actors[actor.PID] = actor
	s.mu.Unlock()

	go actor.pump()
	go actor.work(s)

	slog.Debug("actor spawned", "actor", name, "pid", actor.PID)
	return &object.ActorRef{PID: actor.PID, ActorName: name}
}

// Send enqueues msg and returns immediately.
func (s *ActorSystem) Send(ref *object.ActorRef, msg object.Object) object.Object {
	actor, ok := s.lookup(ref.PID)
	if !ok {
		return newError(object.ActorStopped, "actor %s is stopped", ref.Inspect())
	}
	actor.deliver(envelope{kind: userEnvelope, payload: msg})
	return UNIT
}

// Ask enqueues msg and blocks until the matched handler's result comes
// back. timeoutMillis <= 0 waits forever.
func (s *ActorSystem) Ask(ref *object.ActorRef, msg object.Object, timeoutMillis int64) object.Object {
	actor, ok := s.lookup(ref.PID)
	if !ok {
		return newError(object.ActorStopped, "actor %s is stopped", ref.Inspect())
	}

	reply := make(chan object.Object, 1)
	actor.deliver(envelope{kind: userEnvelope, payload: msg, reply: reply})

	if timeoutMillis <= 0 {
		return <-reply
	}
	select {
	case result := <-reply:
		return result
	case <-time.After(time.Duration(timeoutMillis) * time.Millisecond):
		return newError(object.AskTimeout,
			"actor %s did not reply within %dms", ref.Inspect(), timeoutMillis)
	}
}

// Stop requests a graceful stop: messages already enqueued ahead of the
// stop are still processed.
func (s *ActorSystem) Stop(ref *object.ActorRef) object.Object {
	actor, ok := s.lookup(ref.PID)
	if !ok {
		return UNIT // stopping a stopped actor is a no-op
	}
	actor.deliver(envelope{kind: stopEnvelope})
	return UNIT
}

func (s *ActorSystem) Alive(ref *object.ActorRef) bool {
	_, ok := s.lookup(ref.PID)
	return ok
}

// Shutdown stops every live actor and waits for their goroutines to wind
// down. Used on interpreter exit.
func (s *ActorSystem) Shutdown() {
	s.mu.Lock()
	live := make([]*Actor, 0, len(s.actors))
	for _, a := range s.actors {
		live = append(live, a)
	}
	s.mu.Unlock()

	for _, a := range live {
		a.deliver(envelope{kind: stopEnvelope})
	}
	for _, a := range live {
		<-a.quit
	}
}

// deliver hands an envelope to the pump. The read lock is held across the
// inTray send so the worker cannot flip stopped (and let the pump exit)
// while a send is in flight: either the envelope lands before the wind-down
// drain, or the sender sees stopped and is rejected here.
func (a *Actor) deliver(env envelope) {
	a.stopMu.RLock()
	if a.stopped {
		a.stopMu.RUnlock()
		if env.reply != nil {
			env.reply <- newError(object.ActorStopped, "actor %s stopped", a.Name)
		}
		return
	}
	a.inTray <- env
	a.stopMu.RUnlock()
}

// ---------------------------------------------------------------------------
// Evaluator hooks
// ---------------------------------------------------------------------------

func (e *Evaluator) evalActorDeclaration(node *ast.ActorDeclaration) object.Object {
	def := &object.ActorDef{
		Name:    node.Name.Value,
		Methods: map[string]*object.Function{},
		Receive: node.Receive,
		Env:     e.CurrentEnv(),
	}

	if node.Init != nil {
		def.Init = &object.Function{
			Name:       "init",
			Parameters: node.Init.Parameters,
			Body:       node.Init.Body,
			Env:        e.CurrentEnv(),
		}
	}
	for _, m := range node.Methods {
		def.Methods[m.Name.Value] = &object.Function{
			Name:       m.Name.Value,
			Parameters: m.Function.Parameters,
			Body:       m.Function.Body,
			Env:        e.CurrentEnv(),
		}
	}

	e.CurrentEnv().Define(def.Name, def, false)
	return UNIT
}

func (e *Evaluator) evalSpawnExpression(node *ast.SpawnExpression) object.Object {
	target := e.Eval(node.Call.Function)
	if object.IsSignal(target) {
		return target
	}
	def, ok := target.(*object.ActorDef)
	if !ok {
		return newError(object.TypeMismatch, "spawn expects an actor, got %s", target.Type())
	}

	args := e.evalExpressions(node.Call.Arguments)
	if len(args) == 1 && object.IsSignal(args[0]) {
		return args[0]
	}

	// actor state reuses the instance cell machinery
	class := &object.Class{Name: def.Name, Init: def.Init, Methods: def.Methods, Env: def.Env}
	state := e.instantiate(class, args)
	if object.IsSignal(state) {
		return state
	}

	worker := &Evaluator{system: e.system}
	worker.PushEnv(def.Env)

	return e.system.Spawn(def.Name, state.(*object.Instance), def.Receive, worker)
}

func (e *Evaluator) evalSendExpression(node *ast.SendExpression) object.Object {
	target := e.Eval(node.Target)
	if object.IsSignal(target) {
		return target
	}
	ref, ok := target.(*object.ActorRef)
	if !ok {
		return newError(object.TypeMismatch, "! expects an actor ref, got %s", target.Type())
	}

	msg := e.Eval(node.Message)
	if object.IsSignal(msg) {
		return msg
	}

	return e.system.Send(ref, msg)
}

func (e *Evaluator) evalAskExpression(node *ast.AskExpression) object.Object {
	target := e.Eval(node.Target)
	if object.IsSignal(target) {
		return target
	}
	ref, ok := target.(*object.ActorRef)
	if !ok {
		return newError(object.TypeMismatch, "? expects an actor ref, got %s", target.Type())
	}

	msg := e.Eval(node.Message)
	if object.IsSignal(msg) {
		return msg
	}

	return e.system.Ask(ref, msg, 0)
}
