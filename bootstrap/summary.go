package bootstrap

import (
	"context"
	"time"

	"github.com/kbukum/shadowkit/component"
	"github.com/kbukum/shadowkit/logger"
)

// ComponentInfo is one line of the startup summary.
type ComponentInfo struct {
	Name    string
	Type    string
	Details string
	Port    int
	Status  string
}

// Summary is what the app reports once startup completes.
type Summary struct {
	Service         string
	Version         string
	StartupDuration time.Duration
	Components      []ComponentInfo
}

// collectSummary describes every registered component and pairs it with
// its current health.
func collectSummary(ctx context.Context, name, version string, reg *component.Registry, took time.Duration) Summary {
	s := Summary{Service: name, Version: version, StartupDuration: took}
	health := reg.HealthAll(ctx)
	for i, c := range reg.All() {
		info := ComponentInfo{Name: c.Name()}
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			if desc.Name != "" {
				info.Name = desc.Name
			}
			info.Type, info.Details, info.Port = desc.Type, desc.Details, desc.Port
		}
		if i < len(health) {
			info.Status = string(health[i].Status)
		}
		s.Components = append(s.Components, info)
	}
	return s
}

// log writes the summary as one line per component.
func (s Summary) log(l *logger.Logger) {
	l.Info("application started", logger.Fields(
		"service", s.Service,
		"version", s.Version,
		"components", len(s.Components),
	), logger.DurationFields("startup", s.StartupDuration))
	for _, c := range s.Components {
		fields := logger.Fields("component", c.Name, "type", c.Type, "status", c.Status)
		if c.Details != "" {
			fields["details"] = c.Details
		}
		if c.Port != 0 {
			fields["port"] = c.Port
		}
		l.Info("component ready", fields)
	}
}
