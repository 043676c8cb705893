package ui

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/allapse/feel/internal/session"
)

// Feed hands frames to the program without blocking the frame loop. Only
// the newest undelivered frame is kept; older ones are dropped.
type Feed struct {
	latest  chan FrameMsg
	dropped atomic.Uint64
}

// NewFeed returns an empty feed
func NewFeed() *Feed {
	return &Feed{latest: make(chan FrameMsg, 1)}
}

// Offer queues u, replacing any frame still waiting. Safe for a single
// producer.
func (f *Feed) Offer(u session.Update) {
	msg := FrameMsg(u)
	select {
	case f.latest <- msg:
		return
	default:
	}

	select {
	case <-f.latest:
		f.dropped.Add(1)
	default:
	}

	select {
	case f.latest <- msg:
	default:
		f.dropped.Add(1)
	}
}

// Run delivers frames to send until ctx is cancelled. send is normally
// tea.Program.Send.
func (f *Feed) Run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-f.latest:
			send(msg)
		}
	}
}

// Dropped returns how many frames were replaced before delivery
func (f *Feed) Dropped() uint64 {
	return f.dropped.Load()
}
