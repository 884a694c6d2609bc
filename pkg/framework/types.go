package framework

import (
	"context"
	"time"
)

// Named is implemented by things with a name.
type Named interface {
	Name() string
}

// Runnable runs in the background until the context is done. Input
// sources and transports are Runnables which post messages into the
// loop.
type Runnable interface {
	Run(context.Context) error
}

// Message is anything passed between Runnables and controllers
// through the loop.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller is called once per iteration at its priority level.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// LoopAdder adds itself, as controllers or Runnables, to a loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

// ControlContext is the iteration being run.
type ControlContext interface {
	// Context carries the LoopControl, see CtlCtxFrom.
	Context() context.Context
	// Time is the wall-clock time the iteration started.
	Time() time.Time
	// Frame is the sequence number of the iteration, starting from 1.
	Frame() uint64
	// Delta is the simulated time covered by the iteration.
	Delta() time.Duration
	// PriorityLevel is the level of the running controller.
	PriorityLevel() int
	// Messages holds what was posted before the iteration started,
	// plus what controllers added during it.
	Messages() MessageStore
	// PostRun adds one-shot hooks run after the controllers of the
	// current level. Hooks added by hooks run in the next iteration.
	PostRun(hooks ...Controller)

	LoopControl
}

// LoopControl is what Runnables may do to a running loop.
type LoopControl interface {
	// PostRunAt adds one-shot hooks at the priority level.
	PostRunAt(priorityLevel int, hooks ...Controller)
	// PostMessage enqueues the message for the next iteration.
	PostMessage(Message)
}

// PriorityLevels is the number of priority levels.
const PriorityLevels int = 16

// Priority levels, lower runs first. A frame folds input, resolves it,
// drives the motors, steps the physics, then reports.
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvInput folds raw input events into input state.
	PrLvInput = PrLvHigh - 1
	// PrLvSense samples input state.
	PrLvSense = PrLvHigh
	// PrLvControl computes commands.
	PrLvControl = PrLvNormal
	// PrLvAcuate applies commands, the physics step runs here.
	PrLvAcuate = PrLvLow
	// PrLvPostProc observes the result of the frame.
	PrLvPostProc = PrLvIdle - 1
)

// MessageStore holds the messages of an iteration.
type MessageStore interface {
	// ProcessMessages visits messages in posting order.
	ProcessMessages(MessageProcessor)
	// AddMessages appends messages visible to later controllers of the
	// same iteration.
	AddMessages(msgs ...Message)
}

// MessageProcessor visits a message.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the message being visited.
type MessageProcessingContext interface {
	CurrentMessage() Message
	// MessageTaken removes the message from the store.
	MessageTaken()
	// StopProcessing skips the remaining messages.
	StopProcessing()
	AddMessages(msgs ...Message)
}
