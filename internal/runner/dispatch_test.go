package runner

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLoopPreservesPostOrder(t *testing.T) {
	loop := NewLoop()
	done := make(chan struct{})

	var got []int
	go func() {
		for i := 0; i < 1000; i++ {
			i := i
			loop.Post(func() { got = append(got, i) })
		}
		loop.Post(func() { close(done) })
	}()

	loop.RunUntil(done)

	if len(got) != 1000 {
		t.Fatalf("ran %d functions, want 1000", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("position %d ran %d", i, v)
		}
	}
}

func TestLoopDrainsAfterDone(t *testing.T) {
	loop := NewLoop()
	done := make(chan struct{})

	ran := 0
	loop.Post(func() { ran++ })
	loop.Post(func() { ran++ })
	close(done)

	loop.RunUntil(done)
	if ran != 2 {
		t.Errorf("ran = %d, want 2 functions posted before done", ran)
	}
}

func TestLoopConcurrentPosters(t *testing.T) {
	loop := NewLoop()
	done := make(chan struct{})

	const posters, each = 8, 250
	count := 0
	var wg sync.WaitGroup
	wg.Add(posters)
	for p := 0; p < posters; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				loop.Post(func() { count++ })
			}
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	loop.RunUntil(done)
	if count != posters*each {
		t.Errorf("count = %d, want %d", count, posters*each)
	}
}

func TestImmediateSerializes(t *testing.T) {
	d := &Immediate{}
	count := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Post(func() { count++ })
		}()
	}
	wg.Wait()

	if count != 100 {
		t.Errorf("count = %d, want 100", count)
	}
}

func TestLoopSurvivesPanickingFunction(t *testing.T) {
	var logs bytes.Buffer
	loop := NewLoop().WithLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	done := make(chan struct{})

	ran := 0
	loop.Post(func() { ran++ })
	loop.Post(func() { panic("sink exploded") })
	loop.Post(func() { ran++ })
	close(done)

	loop.RunUntil(done)

	if ran != 2 {
		t.Errorf("ran = %d, want both functions around the panic to run", ran)
	}
	if !strings.Contains(logs.String(), "sink exploded") {
		t.Errorf("panic not logged: %q", logs.String())
	}
}
