package command

import (
	"strings"

	"go.uber.org/zap"
)

// Provider contributes commands to a registry.
type Provider interface {
	Commands() []Command
}

// Build registers every provider's commands wrapped with mws and logs the
// resulting set once.
func Build(log *zap.Logger, providers []Provider, mws ...Middleware) *Registry {
	r := NewRegistry()
	for _, p := range providers {
		for _, c := range p.Commands() {
			if _, dup := r.Get(c.Name()); dup {
				log.Warn("duplicate command replaced", zap.String("command", c.Name()))
			}
			r.Register(Apply(c, mws...))
		}
	}

	names := make([]string, 0)
	for _, c := range r.GetAll() {
		names = append(names, c.Name())
	}
	log.Info("commands registered", zap.Int("count", len(names)), zap.String("names", strings.Join(names, ",")))
	return r
}
