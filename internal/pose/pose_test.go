// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package pose

import (
	"sync"
	"testing"
	"time"
)

func TestNewSessionGreets(t *testing.T) {
	m := NewManager()
	if m.State() != Greeting {
		t.Errorf("initial state = %q, want %q", m.State(), Greeting)
	}

	m.OnSendStart(false, "hi")
	m.OnNewSession()
	if m.State() != Greeting {
		t.Errorf("state after new session = %q, want %q", m.State(), Greeting)
	}
}

func TestSendStartPoses(t *testing.T) {
	tests := []struct {
		name    string
		isImage bool
		message string
		want    State
	}{
		{"plain send types", false, "book me a flight", Typing},
		{"image agent without intent types", true, "what can you do?", Typing},
		{"image agent with draw paints", true, "draw a cat on a skateboard", Painting},
		{"image agent with generate paints", true, "please generate a sunset", Painting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			m.OnSendStart(tt.isImage, tt.message)
			if m.State() != tt.want {
				t.Errorf("state = %q, want %q", m.State(), tt.want)
			}
		})
	}
}

func TestApologyWonders(t *testing.T) {
	m := NewManager()
	m.OnAgentMessage("I'm sorry, I couldn't find that city.")
	if m.State() != Wondering {
		t.Errorf("state = %q, want %q", m.State(), Wondering)
	}

	m.Reset()
	m.OnAgentMessage("Here are three hotels in Lisbon.")
	if m.State() != Greeting {
		t.Errorf("non-apology changed state to %q", m.State())
	}
}

func TestIdleCrossesArms(t *testing.T) {
	m := NewManager()
	m.OnIdle(IdleThreshold - time.Second)
	if m.State() == ArmsCrossing {
		t.Error("crossed arms before the idle threshold")
	}
	m.OnIdle(IdleThreshold)
	if m.State() != ArmsCrossing {
		t.Errorf("state = %q, want %q", m.State(), ArmsCrossing)
	}
}

func TestIdleDoesNotInterruptSend(t *testing.T) {
	m := NewManager()
	m.OnSendStart(false, "hello")
	m.OnIdle(IdleThreshold * 2)
	if m.State() != Typing {
		t.Errorf("idle overrode in-flight pose: %q", m.State())
	}
}

func TestInputChangeThinks(t *testing.T) {
	m := NewManager()
	m.OnInputChange(true)
	if m.State() != Thinking {
		t.Errorf("state = %q, want %q", m.State(), Thinking)
	}
}

// The send pipeline reports lifecycle events from its own goroutine while
// the UI loop polls State and feeds idle ticks; run both sides under the
// race detector.
func TestConcurrentSendAndIdleEvents(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			m.OnSendStart(false, "hello")
			m.OnAgentMessage("sorry about that")
			m.OnError()
			m.OnSendDone()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = m.State()
			m.OnIdle(IdleThreshold)
			m.OnInputChange(i%2 == 0)
		}
	}()
	wg.Wait()

	switch m.State() {
	case Greeting, Typing, Thinking, ArmsCrossing, Wondering, Painting:
	default:
		t.Errorf("state corrupted: %q", m.State())
	}
}

func TestResetIsSideEffectFree(t *testing.T) {
	m := NewManager()
	m.OnError()
	m.Reset()
	if m.State() != Greeting {
		t.Errorf("state after reset = %q, want %q", m.State(), Greeting)
	}
}
