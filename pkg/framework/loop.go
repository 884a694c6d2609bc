package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the default iteration period (60 frames per second).
const DefaultInterval = time.Second / 60

// Loop manages sensors, controllers, acuators.
// All controllers run on the goroutine calling Run or Step, in
// priority order, so they never race with each other.
type Loop struct {
	// Interval is the wall-clock period between iterations.
	Interval time.Duration
	// FixedStep makes every iteration cover exactly Interval of
	// simulated time. Otherwise the measured elapsed time is used.
	FixedStep bool
	// MaxDelta bounds the delta of a variable step, 0 means 4*Interval.
	MaxDelta time.Duration

	controllers [PriorityLevels]controllerList

	runners []Runnable

	messages messageList
	lock     sync.Mutex

	frame    uint64
	lastTime time.Time
}

type loopCtl struct {
	*Loop
}

type loopIteration struct {
	loopCtl
	ctx           context.Context
	time          time.Time
	frame         uint64
	delta         time.Duration
	priorityLevel int
	messages      messageList
}

type messageList struct {
	head *messageItem
	tail *messageItem
}

type messageItem struct {
	msg  Message
	next *messageItem
}

func (l *messageList) append(item *messageItem) {
	if l.head == nil {
		l.head = item
	} else {
		l.tail.next = item
	}
	l.tail = item
}

func (l *messageList) splice(src *messageList) {
	l.head, l.tail, src.head, src.tail = src.head, src.tail, nil, nil
}

func (l *messageList) concat(lst *messageList) {
	if lst.head == nil {
		return
	}
	if l.head == nil {
		l.head = lst.head
	} else {
		l.tail.next = lst.head
	}
	l.tail = lst.tail
}

type controllerList struct {
	controllers []Controller
	postHooks   []Controller
	lock        sync.Mutex
}

var (
	loopCtxKey = &Loop{}
)

// LoopCtlFrom gets LoopCtl from context.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// CtlCtxFrom gets ControlContext from context.
func CtlCtxFrom(ctx context.Context) ControlContext {
	return ctx.Value(loopCtxKey).(ControlContext)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// WithInterval sets the interval.
func (l *Loop) WithInterval(interval time.Duration, fixed bool) *Loop {
	l.Interval, l.FixedStep = interval, fixed
	return l
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	lst := &l.controllers[priorityLevel]
	lst.controllers = append(lst.controllers, ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Frame returns the number of iterations executed so far.
func (l *Loop) Frame() uint64 {
	return l.frame
}

// Run implements Runnable. It returns when ctx is done or a controller
// returns a FatalError.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey, &loopCtl{l}))
	runner.Go(l.runners...)
	defer func() {
		cancel()
		runner.Wait()
	}()

	ticker := time.NewTicker(l.interval())
	defer ticker.Stop()
	for {
		var now time.Time
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now = <-ticker.C:
		}
		if err := l.runIteration(ctx, now, l.nextDelta(now)); err != nil {
			glog.Errorf("loop stopped at frame %d: %v", l.frame, err)
			return err
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail() {
	if err := NewRunner().HandleSignals().Go(l).Wait(); err != nil {
		glog.Exitln(err)
	}
}

// Step runs exactly one iteration synchronously covering delta of
// simulated time. Runnables are not started.
func (l *Loop) Step(ctx context.Context, delta time.Duration) error {
	now := time.Now()
	l.lastTime = now
	return l.runIteration(ctx, now, delta)
}

// PostRunAt implements LoopCtl.
func (l *Loop) PostRunAt(priorityLevel int, hooks ...Controller) {
	lst := &l.controllers[priorityLevel]
	lst.lock.Lock()
	lst.postHooks = append(lst.postHooks, hooks...)
	lst.lock.Unlock()
}

// PostMessage implements LoopCtl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages.append(&messageItem{msg: msg})
	l.lock.Unlock()
}

func (l *Loop) interval() time.Duration {
	if l.Interval <= 0 {
		return DefaultInterval
	}
	return l.Interval
}

func (l *Loop) nextDelta(now time.Time) time.Duration {
	interval := l.interval()
	last := l.lastTime
	l.lastTime = now
	if l.FixedStep || last.IsZero() {
		return interval
	}
	delta := now.Sub(last)
	maxDelta := l.MaxDelta
	if maxDelta <= 0 {
		maxDelta = 4 * interval
	}
	if delta > maxDelta {
		delta = maxDelta
	}
	return delta
}

func (l *Loop) runIteration(ctx context.Context, now time.Time, delta time.Duration) error {
	l.frame++
	iter := &loopIteration{loopCtl: loopCtl{l}, time: now, frame: l.frame, delta: delta}
	l.lock.Lock()
	iter.messages.splice(&l.messages)
	l.lock.Unlock()
	iter.ctx = context.WithValue(ctx, loopCtxKey, iter)
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		if err := l.controllers[i].run(iter); err != nil {
			return err
		}
	}
	return nil
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) Frame() uint64 {
	return t.frame
}

func (t *loopIteration) Delta() time.Duration {
	return t.delta
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}

func (t *loopIteration) Messages() MessageStore {
	return t
}

func (t *loopIteration) PostRun(hooks ...Controller) {
	t.PostRunAt(t.priorityLevel, hooks...)
}

// MessageStore implementations

type messageContext struct {
	iter  *loopIteration
	item  *messageItem
	taken bool
	stop  bool
}

func (c *messageContext) CurrentMessage() Message     { return c.item.msg }
func (c *messageContext) MessageTaken()               { c.taken = true }
func (c *messageContext) StopProcessing()             { c.stop = true }
func (c *messageContext) AddMessages(msgs ...Message) { c.iter.AddMessages(msgs...) }

func (t *loopIteration) ProcessMessages(proc MessageProcessor) {
	var msgs, remains messageList
	msgs.splice(&t.messages)
	for msgs.head != nil {
		mctx := &messageContext{iter: t, item: msgs.head}
		msgs.head = msgs.head.next
		mctx.item.next = nil
		proc.ProcessMessage(mctx)
		if !mctx.taken {
			remains.append(mctx.item)
		}
		if mctx.stop {
			remains.concat(&msgs)
			break
		}
	}
	remains.concat(&t.messages)
	t.messages = remains
}

func (t *loopIteration) AddMessages(msgs ...Message) {
	for _, msg := range msgs {
		t.messages.append(&messageItem{msg: msg})
	}
}

func (c *controllerList) run(iter *loopIteration) error {
	if err := runControllers(iter, c.controllers); err != nil {
		return err
	}
	c.lock.Lock()
	ctls := c.postHooks
	c.postHooks = nil
	c.lock.Unlock()
	return runControllers(iter, ctls)
}

// runControllers logs controller errors and keeps going, except for
// fatal ones which abort the iteration.
func runControllers(iter *loopIteration, ctls []Controller) error {
	for _, ctl := range ctls {
		if err := ctl.Control(iter); err != nil {
			if IsFatal(err) {
				return err
			}
			glog.Errorf("frame %d: controller error: %v", iter.frame, err)
		}
	}
	return nil
}
