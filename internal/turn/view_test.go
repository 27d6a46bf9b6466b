package turn

import "testing"

func TestFormatClock(t *testing.T) {
	cases := map[int]string{
		0:    "0:00",
		5:    "0:05",
		60:   "1:00",
		125:  "2:05",
		300:  "5:00",
		3725: "62:05",
		-3:   "0:00",
	}
	for in, want := range cases {
		if got := FormatClock(in); got != want {
			t.Fatalf("FormatClock(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestViewFlags(t *testing.T) {
	c := New(180, nil)
	c.ToggleActive(B)
	c.RequestInterrupt(A)
	v := c.View()
	if !v.Frozen || v.Pending != A || v.Active != B {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.MeterA || !v.MeterB {
		t.Fatalf("meter gates should follow the active side: %+v", v)
	}
	if v.ClockA != "3:00" {
		t.Fatalf("clock A = %q", v.ClockA)
	}
	selected := 0
	for _, d := range v.Durations {
		if d.Selected {
			selected++
			if d.Seconds != 180 || d.Label != "3 min" {
				t.Fatalf("wrong selected duration: %+v", d)
			}
		}
	}
	if selected != 1 {
		t.Fatalf("expected one selected duration, got %d", selected)
	}
}

func TestParseSpeaker(t *testing.T) {
	if s, err := ParseSpeaker("a"); err != nil || s != A {
		t.Fatalf("parse a: %q %v", s, err)
	}
	if s, err := ParseSpeaker(" B "); err != nil || s != B {
		t.Fatalf("parse B: %q %v", s, err)
	}
	if _, err := ParseSpeaker("C"); err == nil {
		t.Fatalf("expected error for C")
	}
	if A.Other() != B || B.Other() != A || None.Other() != None {
		t.Fatalf("Other() mismatch")
	}
}

func TestCanRequestReasons(t *testing.T) {
	s := NewSession(60)
	s.Active = A
	if err := s.CanRequest(A); err != ErrRequestSelf {
		t.Fatalf("self: %v", err)
	}
	if err := s.CanRequest(B); err != nil {
		t.Fatalf("B should be allowed: %v", err)
	}
	s.TokensB = 0
	if err := s.CanRequest(B); err != ErrNoTokens {
		t.Fatalf("tokens: %v", err)
	}
	s.Pending = A
	if err := s.CanRequest(B); err != ErrRequestPending {
		t.Fatalf("pending: %v", err)
	}
	if err := s.CanRequest(None); err != ErrInvalidSpeaker {
		t.Fatalf("none: %v", err)
	}
}
