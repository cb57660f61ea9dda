package chat

import "time"

// DefaultSoloInterval applies when the configured interval is not positive.
const DefaultSoloInterval = 5 * time.Minute

var soloPrompts = []string{
	"Please give more information",
	"Please extend your answer",
	"Please continue and tell me more",
}

// Autopilot re-prompts the assistant on a fixed interval (solo mode).
type Autopilot struct {
	enabled  bool
	interval time.Duration
	next     int
	lastFire time.Time
}

func NewAutopilot(enabled bool, intervalMinutes int, now time.Time) *Autopilot {
	a := &Autopilot{lastFire: now}
	a.Configure(enabled, intervalMinutes, now)
	return a
}

// Configure applies settings and restarts the interval.
func (a *Autopilot) Configure(enabled bool, intervalMinutes int, now time.Time) {
	a.enabled = enabled
	a.interval = time.Duration(intervalMinutes) * time.Minute
	if a.interval <= 0 {
		a.interval = DefaultSoloInterval
	}
	a.lastFire = now
}

func (a *Autopilot) Enabled() bool {
	return a.enabled
}

func (a *Autopilot) Interval() time.Duration {
	return a.interval
}

// Due reports whether the interval has elapsed since the last fire.
func (a *Autopilot) Due(now time.Time) bool {
	return a.enabled && now.Sub(a.lastFire) >= a.interval
}

// Remaining is the time until the next fire.
func (a *Autopilot) Remaining(now time.Time) time.Duration {
	d := a.interval - now.Sub(a.lastFire)
	if d < 0 {
		return 0
	}
	return d
}

// Tick returns the prompt to send when the interval has elapsed. The tick is
// consumed even when it is skipped because a request is in flight or the
// transcript is empty.
func (a *Autopilot) Tick(now time.Time, busy bool, transcriptLen int) (string, bool) {
	if !a.Due(now) {
		return "", false
	}
	a.lastFire = now
	if busy || transcriptLen == 0 {
		return "", false
	}
	prompt := soloPrompts[a.next]
	a.next = (a.next + 1) % len(soloPrompts)
	return prompt, true
}
