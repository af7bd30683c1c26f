package playback

import "time"

// Pacer spaces playback frames in wall-clock time. Pacing is advisory:
// it affects presentation, never correctness.
type Pacer interface {
	// Wait blocks until the next frame should be emitted.
	Wait()
}

// Immediate is a no-delay pacer, used by tests and offline rendering.
type Immediate struct{}

// Wait returns immediately.
func (Immediate) Wait() {}

// fixedRate sleeps the remainder of the frame interval, accounting for
// the time the frame itself took to solve and emit.
type fixedRate struct {
	interval time.Duration
	next     time.Time
}

// NewFixedRate returns a pacer targeting hz frames per second. A
// non-positive rate yields an Immediate pacer.
func NewFixedRate(hz float64) Pacer {
	if hz <= 0 {
		return Immediate{}
	}
	return &fixedRate{interval: time.Duration(float64(time.Second) / hz)}
}

func (p *fixedRate) Wait() {
	now := time.Now()
	if p.next.IsZero() || p.next.Before(now.Add(-p.interval)) {
		// First wait, or fell far behind: resynchronize
		p.next = now.Add(p.interval)
		time.Sleep(p.interval)
		return
	}
	p.next = p.next.Add(p.interval)
	if d := p.next.Sub(now); d > 0 {
		time.Sleep(d)
	}
}
