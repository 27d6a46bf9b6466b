package health

import (
	"context"
	"fmt"
	"time"

	"skwabl/turns/internal/meter"
)

type CheckResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency_ms"`
	Detail  string        `json:"detail,omitempty"`
	Error   string        `json:"error,omitempty"`
	// Optional checks are reported but never fail the overall status.
	Optional bool `json:"optional,omitempty"`
}

type HealthStatus struct {
	OK        bool          `json:"ok"`
	Checks    []CheckResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

func (h HealthStatus) String() string {
	status := "OK"
	if !h.OK {
		status = "FAIL"
	}
	s := fmt.Sprintf("Health: %s\n", status)
	for _, c := range h.Checks {
		mark := "✓"
		if !c.OK {
			mark = "✗"
		}
		s += fmt.Sprintf("  %s %s (%dms)", mark, c.Name, c.Latency.Milliseconds())
		if c.Detail != "" {
			s += fmt.Sprintf(" %s", c.Detail)
		}
		if c.Error != "" {
			s += fmt.Sprintf(" - %s", c.Error)
		}
		s += "\n"
	}
	return s
}

// RoomCounter is the slice of the room store the checks need.
type RoomCounter interface {
	Len() int
}

type Deps struct {
	Bridge meter.Bridge
	Rooms  RoomCounter
}

// CheckAll runs all health checks and returns combined status
func CheckAll(ctx context.Context, d Deps) HealthStatus {
	checks := []CheckResult{
		checkBridge(ctx, d.Bridge),
		checkRooms(d.Rooms),
	}

	allOK := true
	for _, c := range checks {
		if !c.OK && !c.Optional {
			allOK = false
		}
	}

	return HealthStatus{
		OK:        allOK,
		Checks:    checks,
		CheckedAt: time.Now().UTC(),
	}
}

func checkBridge(ctx context.Context, b meter.Bridge) CheckResult {
	start := time.Now()
	result := CheckResult{Name: "meter_bridge", Optional: true}
	if b == nil {
		result.Error = "no bridge configured"
		return result
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	msg, err := b.Probe(ctx)
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.OK = true
	result.Detail = msg
	return result
}

func checkRooms(rooms RoomCounter) CheckResult {
	result := CheckResult{Name: "rooms"}
	if rooms == nil {
		result.Error = "room store not initialised"
		return result
	}
	result.OK = true
	result.Detail = fmt.Sprintf("%d open", rooms.Len())
	return result
}
