package mcp

import (
	"github.com/custodia-labs/sanad/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Pipeline opens the conversations the tools operate on.
	Pipeline driving.PipelineService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipeline
	}
	return nil
}
