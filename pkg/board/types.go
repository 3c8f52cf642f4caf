package board

import "fmt"

// Board is a parsed board description.
type Board struct {
	// Name identifies the board in logs.
	Name string `yaml:"name"`

	// SoC selects the PMC wiring. Only "sama5d2" is known.
	SoC string `yaml:"soc"`

	// Oscillators configures the main oscillator.
	Oscillators Oscillators `yaml:"oscillators"`

	// Assigned lists boot-time clock assignments, applied in order.
	Assigned []Assignment `yaml:"assigned,omitempty"`

	// Bindings lists the protocol bindings per channel.
	Bindings []Binding `yaml:"bindings,omitempty"`
}

// Oscillators describes the main oscillator input.
type Oscillators struct {
	// MainXtal is the crystal or bypass clock rate in Hz.
	MainXtal uint64 `yaml:"main_xtal"`

	// Bypass drives XIN from an external clock.
	Bypass bool `yaml:"bypass,omitempty"`
}

// Assignment fixes a clock's parent, rate or enable state. The parent is
// applied before the rate.
type Assignment struct {
	Clock  string `yaml:"clock"`
	Parent string `yaml:"parent,omitempty"`
	Rate   uint64 `yaml:"rate,omitempty"`

	// Enable takes one reference that is never dropped.
	Enable bool `yaml:"enable,omitempty"`
}

// Binding exposes clocks on one protocol channel, either from a named SoC
// table or as an explicit list of node names. List position is the
// protocol clock identifier.
type Binding struct {
	Channel uint32   `yaml:"channel"`
	Table   string   `yaml:"table,omitempty"`
	Clocks  []string `yaml:"clocks,omitempty"`
}

// LoadError provides details about a board loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
