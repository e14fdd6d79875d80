package app

import (
	"vueblade/internal/slots"
	"vueblade/pkg/engine"
)

// NewCompiler builds a Blade compiler with @vue registered according to cfg.
func NewCompiler(cfg Config) *slots.Compiler {
	c := slots.NewCompiler(slots.CompilerOptions{Strict: cfg.Strict})
	c.Extend(slots.VueExtension(slots.VueOptions{Legacy: cfg.Legacy}))
	return c
}

// RegisterAllSlots wires every render slot a compiled view can reach.
func RegisterAllSlots(eng *engine.Engine, views *slots.ViewLoader) {
	slots.RegisterBladeSlots(eng)
	slots.RegisterVueSlots(eng)
	if views != nil {
		slots.RegisterViewSlots(eng, views)
	}
}
