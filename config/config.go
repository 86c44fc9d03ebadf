// Package config loads a gateway's declarative configuration from YAML or
// JSON on disk and converts it to core.GatewayConfig (§6.4). Package core
// never interprets a configuration file itself; this is the one layer
// above it that does, matching the source's external-config-parser
// boundary (§1).
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gatewaymux/gatewaymux/core"
)

// ModuleDoc is one "modules" entry as it appears in a gateway config file.
type ModuleDoc struct {
	Name       string         `yaml:"name" json:"name"`
	Loader     string         `yaml:"loader" json:"loader"`
	Entrypoint map[string]any `yaml:"entrypoint,omitempty" json:"entrypoint,omitempty"`
	Config     map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}

// LinkDoc is one "links" entry. Source may be "*".
type LinkDoc struct {
	Source string `yaml:"source" json:"source"`
	Sink   string `yaml:"sink" json:"sink"`
}

// Document is the on-disk shape of a gateway configuration file.
type Document struct {
	Modules []ModuleDoc `yaml:"modules" json:"modules"`
	Links   []LinkDoc   `yaml:"links" json:"links"`
}

// FromYAML parses YAML bytes into a core.GatewayConfig.
func FromYAML(data []byte) (*core.GatewayConfig, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("gatewaymux: config: parse yaml: %w", err)
	}
	return doc.toGatewayConfig()
}

// FromJSON parses JSON bytes into a core.GatewayConfig.
func FromJSON(data []byte) (*core.GatewayConfig, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("gatewaymux: config: parse json: %w", err)
	}
	return doc.toGatewayConfig()
}

// LoadYAMLFile reads and parses a YAML gateway configuration file.
func LoadYAMLFile(path string) (*core.GatewayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gatewaymux: config: read %s: %w", path, err)
	}
	return FromYAML(data)
}

func (d *Document) toGatewayConfig() (*core.GatewayConfig, error) {
	cfg := &core.GatewayConfig{
		Modules: make([]core.ModuleSpec, 0, len(d.Modules)),
		Links:   make([]core.LinkSpec, 0, len(d.Links)),
	}

	for _, m := range d.Modules {
		if m.Name == "" {
			return nil, fmt.Errorf("gatewaymux: config: module entry missing name")
		}
		if m.Loader == "" {
			return nil, fmt.Errorf("gatewaymux: config: module %q missing loader", m.Name)
		}
		entrypoint, err := toRawMessage(m.Entrypoint)
		if err != nil {
			return nil, fmt.Errorf("gatewaymux: config: module %q entrypoint: %w", m.Name, err)
		}
		moduleConfig, err := toRawMessage(m.Config)
		if err != nil {
			return nil, fmt.Errorf("gatewaymux: config: module %q config: %w", m.Name, err)
		}
		cfg.Modules = append(cfg.Modules, core.ModuleSpec{
			Name:       m.Name,
			LoaderName: m.Loader,
			Entrypoint: entrypoint,
			Config:     moduleConfig,
		})
	}

	for _, l := range d.Links {
		if l.Sink == "" {
			return nil, fmt.Errorf("gatewaymux: config: link entry missing sink")
		}
		source := l.Source
		if source == "" {
			source = "*"
		}
		cfg.Links = append(cfg.Links, core.LinkSpec{Source: source, Sink: l.Sink})
	}

	return cfg, nil
}

func toRawMessage(v map[string]any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("null"), nil
	}
	return json.Marshal(v)
}
