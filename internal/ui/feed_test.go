package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/allapse/feel/internal/session"
)

func TestFeedKeepsNewestFrame(t *testing.T) {
	f := NewFeed()

	// No consumer yet: Offer must not block
	for i := 1; i <= 3; i++ {
		f.Offer(session.Update{Position: time.Duration(i) * time.Second})
	}
	if got := f.Dropped(); got != 2 {
		t.Errorf("Dropped = %d, want 2", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan tea.Msg, 4)
	done := make(chan struct{})
	go func() {
		f.Run(ctx, func(msg tea.Msg) { got <- msg })
		close(done)
	}()

	select {
	case msg := <-got:
		frame, ok := msg.(FrameMsg)
		if !ok {
			t.Fatalf("delivered %T, want FrameMsg", msg)
		}
		if frame.Position != 3*time.Second {
			t.Errorf("delivered position %v, want the newest 3s", frame.Position)
		}
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if len(got) != 0 {
		t.Errorf("%d extra frames delivered", len(got))
	}
}

func TestFeedDoesNotBlockOnSlowConsumer(t *testing.T) {
	f := NewFeed()
	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go f.Run(ctx, func(tea.Msg) { <-release })
	defer close(release)

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			f.Offer(session.Update{})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Offer blocked behind a stalled consumer")
	}
	if f.Dropped() == 0 {
		t.Error("no frames dropped while the consumer was stalled")
	}
}
