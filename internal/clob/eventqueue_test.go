package clob

import "testing"

func TestEventQueue_FIFO(t *testing.T) {
	q := NewEventQueue()
	if err := q.Push(FillEvent{MakerOrderID: 1}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := q.Push(FillEvent{MakerOrderID: 2}); err != nil {
		t.Fatalf("push: %v", err)
	}
	ev, err := q.Front()
	if err != nil {
		t.Fatalf("front: %v", err)
	}
	if ev.MakerOrderID != 1 {
		t.Fatalf("expected order 1 first, got %d", ev.MakerOrderID)
	}
	if err := q.PopFront(); err != nil {
		t.Fatalf("pop front: %v", err)
	}
	ev, _ = q.Front()
	if ev.MakerOrderID != 2 {
		t.Fatalf("expected order 2 next, got %d", ev.MakerOrderID)
	}
}

func TestEventQueue_FullAndEmpty(t *testing.T) {
	q := NewEventQueue()
	for i := 0; i < MaxEvents; i++ {
		if err := q.Push(FillEvent{MakerOrderID: uint64(i)}); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if !q.IsFull() {
		t.Fatalf("expected queue full at MaxEvents")
	}
	if err := q.Push(FillEvent{}); err != ErrEventQueueFull {
		t.Fatalf("expected ErrEventQueueFull, got %v", err)
	}
	for i := 0; i < MaxEvents; i++ {
		if err := q.PopFront(); err != nil {
			t.Fatalf("pop %d: %v", i, err)
		}
	}
	if !q.IsEmpty() {
		t.Fatalf("expected queue empty")
	}
	if _, err := q.Front(); err != ErrEventQueueEmpty {
		t.Fatalf("expected ErrEventQueueEmpty, got %v", err)
	}
}

func TestEventQueue_WrapsAroundCircularBuffer(t *testing.T) {
	q := NewEventQueue()
	for i := 0; i < MaxEvents-1; i++ {
		if err := q.Push(FillEvent{MakerOrderID: uint64(i)}); err != nil {
			t.Fatalf("push: %v", err)
		}
		if err := q.PopFront(); err != nil {
			t.Fatalf("pop: %v", err)
		}
	}
	// head has wrapped almost all the way around; push/pop MaxEvents more
	// times to exercise the modulo wrap in Push/PopFront.
	for i := 0; i < MaxEvents; i++ {
		if err := q.Push(FillEvent{MakerOrderID: uint64(1000 + i)}); err != nil {
			t.Fatalf("push after wrap: %v", err)
		}
	}
	if q.Len() != MaxEvents {
		t.Fatalf("expected %d events queued, got %d", MaxEvents, q.Len())
	}
	ev, err := q.Front()
	if err != nil {
		t.Fatalf("front: %v", err)
	}
	if ev.MakerOrderID != 1000 {
		t.Fatalf("expected oldest surviving event 1000, got %d", ev.MakerOrderID)
	}
}
