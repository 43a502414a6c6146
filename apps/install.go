package apps

import (
	"fmt"

	"github.com/umbralab/umbra/sim"
	"github.com/umbralab/umbra/simulation"
)

// Default ping behavior for scenario-installed clients.
const (
	DefaultPingInterval = 1 * sim.Second
	DefaultPingCount    = 10
)

// InstallFromScenario wires the scenario's application specs onto the
// simulation's hosts. It returns the installed applications keyed by host
// name.
func InstallFromScenario(
	s *simulation.Simulation,
	sc *simulation.Scenario,
) (map[string]any, error) {
	installed := make(map[string]any)
	pid := 1

	for _, spec := range sc.Hosts {
		if spec.App == "" {
			continue
		}

		host := s.HostByName(spec.Name)
		if host == nil {
			return nil, fmt.Errorf("app %s names unknown host %s",
				spec.App, spec.Name)
		}

		app, err := install(s, host, spec)
		if err != nil {
			return nil, err
		}

		host.SetProcess(&sim.Process{PID: pid, Name: spec.App})
		pid++

		installed[spec.Name] = app
	}

	return installed, nil
}

func install(
	s *simulation.Simulation,
	host *sim.Host,
	spec simulation.HostSpec,
) (any, error) {
	switch spec.App {
	case "ping":
		peer := s.DNS().ResolveName(spec.Peer)
		if peer == nil {
			return nil, fmt.Errorf("ping on %s names unknown peer %s",
				spec.Name, spec.Peer)
		}

		return NewPing(
			host, peer.IP, DefaultPingInterval, DefaultPingCount), nil

	case "echo":
		return NewEcho(host), nil

	default:
		return nil, fmt.Errorf("unknown app %s on host %s",
			spec.App, spec.Name)
	}
}
