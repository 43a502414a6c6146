package simulation

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from strings like "10ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}

	*d = Duration(parsed)

	return nil
}

// HostSpec describes one host in a scenario file.
type HostSpec struct {
	Name          string `yaml:"name"`
	IP            string `yaml:"ip"`
	BandwidthUp   uint64 `yaml:"bandwidth_up"`
	BandwidthDown uint64 `yaml:"bandwidth_down"`
	App           string `yaml:"app"`
	Peer          string `yaml:"peer"`
}

// LinkSpec describes one symmetric link in a scenario file.
type LinkSpec struct {
	A       string   `yaml:"a"`
	B       string   `yaml:"b"`
	Latency Duration `yaml:"latency"`
}

// Scenario is the YAML description of a simulated network.
type Scenario struct {
	Hosts []HostSpec `yaml:"hosts"`
	Links []LinkSpec `yaml:"links"`
}

// LoadScenario parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario

	err := yaml.Unmarshal(data, &sc)
	if err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}

	if len(sc.Hosts) == 0 {
		return nil, fmt.Errorf("scenario has no hosts")
	}

	return &sc, nil
}

// Apply registers the scenario's hosts and links with a simulation.
func (sc *Scenario) Apply(s *Simulation) error {
	for _, h := range sc.Hosts {
		_, err := s.AddHost(h.Name, h.IP, h.BandwidthUp, h.BandwidthDown)
		if err != nil {
			return err
		}
	}

	for _, l := range sc.Links {
		err := s.AddLink(l.A, l.B, time.Duration(l.Latency))
		if err != nil {
			return err
		}
	}

	return nil
}
