package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNoRoutes = errors.New("config: no routes configured")

// Route is one origin/destination pair to crawl.
type Route struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

func (r Route) String() string { return r.From + " → " + r.To }

// UnmarshalYAML accepts either {from, to} or a two-element [from, to] list.
func (r *Route) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var pair []string
		if err := node.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("line %d: route pair needs 2 cities, got %d", node.Line, len(pair))
		}
		r.From, r.To = pair[0], pair[1]
	case yaml.MappingNode:
		type plain Route
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*r = Route(p)
	default:
		return fmt.Errorf("line %d: route must be a map or a pair", node.Line)
	}
	r.From = strings.TrimSpace(r.From)
	r.To = strings.TrimSpace(r.To)
	if r.From == "" || r.To == "" {
		return fmt.Errorf("line %d: route has an empty city", node.Line)
	}
	return nil
}

type routesFile struct {
	Routes []Route `yaml:"routes"`
}

// ParseRoutes decodes a routes document. Both the
//
//	routes:
//	  - {from: Sài Gòn, to: Nha Trang}
//
// form and a bare JSON/YAML list of [from, to] pairs are accepted.
func ParseRoutes(data []byte) ([]Route, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("config: parse routes: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, ErrNoRoutes
	}

	var routes []Route
	doc := root.Content[0]
	if doc.Kind == yaml.SequenceNode {
		if err := doc.Decode(&routes); err != nil {
			return nil, fmt.Errorf("config: parse routes: %w", err)
		}
	} else {
		var f routesFile
		if err := doc.Decode(&f); err != nil {
			return nil, fmt.Errorf("config: parse routes: %w", err)
		}
		routes = f.Routes
	}

	if len(routes) == 0 {
		return nil, ErrNoRoutes
	}
	return routes, nil
}

// LoadRoutes reads and parses the routes file at path.
func LoadRoutes(path string) ([]Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read routes %q: %w", path, err)
	}
	return ParseRoutes(data)
}
