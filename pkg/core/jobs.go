package core

import (
	"context"
	"sync/atomic"
)

// Frame is what jobs see after each tick.
type Frame struct {
	Tick    uint64
	Elapsed float64 // simulated seconds
	Dt      float64
}

// Job defines a scheduled task.
type Job interface {
	Name() string
	ShouldFire(f *Frame) bool
	Run(ctx context.Context, f *Frame)
}

// BaseJob provides atomic running state to prevent re-entry.
type BaseJob struct {
	name    string
	running int32 // 1 if running, 0 otherwise
}

func NewBaseJob(name string) BaseJob {
	return BaseJob{name: name}
}

func (b *BaseJob) Name() string {
	return b.name
}

// TryLock attempts to set running to 1. Returns true if successful.
func (b *BaseJob) TryLock() bool {
	return atomic.CompareAndSwapInt32(&b.running, 0, 1)
}

func (b *BaseJob) Unlock() {
	atomic.StoreInt32(&b.running, 0)
}

// SimTimeJob fires whenever more than Interval seconds of simulated time
// have accumulated since it last fired.
type SimTimeJob struct {
	BaseJob
	interval float64
	buffer   float64
	last     float64
	action   func(context.Context, Frame)
}

func NewSimTimeJob(name string, interval float64, action func(context.Context, Frame)) *SimTimeJob {
	return &SimTimeJob{
		BaseJob:  NewBaseJob(name),
		interval: interval,
		action:   action,
	}
}

func (j *SimTimeJob) ShouldFire(f *Frame) bool {
	if atomic.LoadInt32(&j.running) == 1 {
		return false
	}
	j.buffer += f.Elapsed - j.last
	j.last = f.Elapsed
	return j.buffer > j.interval
}

func (j *SimTimeJob) Run(ctx context.Context, f *Frame) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	j.buffer = 0
	j.action(ctx, *f)
}

// TickJob fires every N ticks, starting with the first.
type TickJob struct {
	BaseJob
	every  uint64
	action func(context.Context, Frame)
}

func NewTickJob(name string, every int, action func(context.Context, Frame)) *TickJob {
	if every < 1 {
		every = 1
	}
	return &TickJob{
		BaseJob: NewBaseJob(name),
		every:   uint64(every),
		action:  action,
	}
}

func (j *TickJob) ShouldFire(f *Frame) bool {
	if atomic.LoadInt32(&j.running) == 1 {
		return false
	}
	return (f.Tick-1)%j.every == 0
}

func (j *TickJob) Run(ctx context.Context, f *Frame) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	j.action(ctx, *f)
}
