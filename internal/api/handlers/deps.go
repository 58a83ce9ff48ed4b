// Package handlers provides HTTP handlers for Heimdall's deconfliction API.
package handlers

import (
	"github.com/PossumXI/Asgard/Heimdall/internal/alertfeed"
	"github.com/PossumXI/Asgard/Heimdall/internal/archive"
	"github.com/PossumXI/Asgard/Heimdall/internal/engine"
	"github.com/PossumXI/Asgard/Heimdall/internal/missionbus"
	"github.com/PossumXI/Asgard/Heimdall/internal/obsv"
)

// Deps collects the collaborators every handler needs. Archive is nil when
// Mongo is unreachable and AllowNoDB is set; Bus is nil whenever NATS is
// unreachable. Handlers degrade gracefully rather than panicking.
type Deps struct {
	Engine  *engine.Engine
	Archive *archive.Archive
	Bus     *missionbus.Bridge
	Hub     *alertfeed.Hub
	Metrics *obsv.Metrics
}

// Handlers holds Deps and exposes one method per route.
type Handlers struct {
	deps Deps
}

// New builds a Handlers bound to deps.
func New(deps Deps) *Handlers {
	return &Handlers{deps: deps}
}
