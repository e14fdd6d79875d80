package engine

import "fmt"

// Diagnostic is the error type surfaced by compilation and rendering. It
// pins the failure to a template position.
type Diagnostic struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line,omitempty"`
	Col      int    `json:"col,omitempty"`
	Slot     string `json:"slot,omitempty"`

	Err error `json:"-"`
}

func (d Diagnostic) Error() string {
	if d.Line == 0 {
		if d.Filename != "" {
			return fmt.Sprintf("%s: %s", d.Filename, d.Message)
		}
		return d.Message
	}
	name := d.Filename
	if name == "" {
		name = "template"
	}
	return fmt.Sprintf("%s:%d:%d: %s", name, d.Line, d.Col, d.Message)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}
