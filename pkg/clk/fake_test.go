package clk

import (
	"errors"
	"sync"
)

// fakeOps is a configurable capability value for tree tests. Each node gets
// its own instance; calls are recorded into a shared journal so ordering
// across nodes can be asserted.
type fakeOps struct {
	name    string
	journal *journal

	enableErr    error
	setRateErr   error
	setParentErr error
	hwParent     int
	div          uint64
	rates        []uint64
	on           bool
}

type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, s)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.calls))
	copy(out, j.calls)
	return out
}

func (j *journal) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = nil
}

func (f *fakeOps) Enable() error {
	f.journal.add("enable " + f.name)
	if f.enableErr != nil {
		return f.enableErr
	}
	f.on = true
	return nil
}

func (f *fakeOps) Disable() {
	f.journal.add("disable " + f.name)
	f.on = false
}

func (f *fakeOps) IsEnabled() bool { return f.on }

// gateOps only gates.
type gateOps struct{ *fakeOps }

// divOps divides the parent rate and can be programmed.
type divOps struct{ *fakeOps }

func (d divOps) Enable() error { return d.fakeOps.Enable() }
func (d divOps) Disable()      { d.fakeOps.Disable() }

func (d divOps) Rate(parent uint64) uint64 {
	if d.div == 0 {
		return parent
	}
	return parent / d.div
}

func (d divOps) SetRate(rate, parent uint64) error {
	d.journal.add("set_rate " + d.name)
	if d.setRateErr != nil {
		return d.setRateErr
	}
	if rate == 0 || parent%rate != 0 {
		return ErrUnsupportedRate
	}
	d.div = parent / rate
	return nil
}

func (d divOps) Rates(parent uint64) []uint64 {
	return []uint64{parent, parent / 2, parent / 4}
}

// muxOps selects between parents.
type muxOps struct{ *fakeOps }

func (m muxOps) Enable() error { return m.fakeOps.Enable() }
func (m muxOps) Disable()      { m.fakeOps.Disable() }
func (m muxOps) Parent() int   { return m.hwParent }

func (m muxOps) SetParent(index int) error {
	m.journal.add("set_parent " + m.name)
	if m.setParentErr != nil {
		return m.setParentErr
	}
	m.hwParent = index
	return nil
}

// orphanSetter offers set-parent without get-parent.
type orphanSetter struct{}

func (orphanSetter) SetParent(int) error { return nil }

var errFake = errors.New("fake hardware failure")
