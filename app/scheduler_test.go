package app

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRuns(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	var fired atomic.Int32
	s.Schedule("k", 10*time.Millisecond, func() { fired.Add(1) })
	assert.True(t, s.Pending("k"))

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, s.Pending("k"))
}

func TestSchedulerRescheduleCancelsPrevious(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	var first, second atomic.Int32
	s.Schedule("k", 30*time.Millisecond, func() { first.Add(1) })
	s.Schedule("k", 60*time.Millisecond, func() { second.Add(1) })

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, first.Load())
}

func TestSchedulerKeysIndependent(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	var a, b atomic.Int32
	s.Schedule("a", 10*time.Millisecond, func() { a.Add(1) })
	s.Schedule("b", 10*time.Millisecond, func() { b.Add(1) })

	assert.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSchedulerClose(t *testing.T) {
	s := NewScheduler()
	var fired atomic.Int32
	s.Schedule("k", 20*time.Millisecond, func() { fired.Add(1) })
	s.Close()
	s.Schedule("k", time.Millisecond, func() { fired.Add(1) })

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, fired.Load())
	assert.False(t, s.Pending("k"))
}
