// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed screens.json
var defaultScreens []byte

func LoadRegistry(path string) (*ScreenRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a registry document.
func Parse(data []byte) (*ScreenRegistry, error) {
	var reg ScreenRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Default returns the built-in screen table.
func Default() *ScreenRegistry {
	reg, err := Parse(defaultScreens)
	if err != nil {
		panic(fmt.Sprintf("embedded screen registry: %v", err))
	}
	return reg
}

// Validate checks ids, routes and commands are present and unique.
func (r *ScreenRegistry) Validate() error {
	ids := map[string]bool{}
	routes := map[string]bool{}
	commands := map[string]string{}
	for _, s := range r.Screens {
		if s.ID == "" {
			return fmt.Errorf("screen with route %q has no id", s.Route)
		}
		if !strings.HasPrefix(s.Route, "/") {
			return fmt.Errorf("screen %s: route must start with /", s.ID)
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate screen id %s", s.ID)
		}
		if routes[s.Route] {
			return fmt.Errorf("duplicate route %s", s.Route)
		}
		ids[s.ID] = true
		routes[s.Route] = true
		for _, c := range s.Commands {
			if owner, ok := commands[c]; ok {
				return fmt.Errorf("command %s claimed by %s and %s", c, owner, s.ID)
			}
			commands[c] = s.ID
		}
	}
	return nil
}

// Lookup finds the screen serving route. Query strings are ignored.
func (r *ScreenRegistry) Lookup(route string) (Screen, bool) {
	if i := strings.IndexByte(route, '?'); i >= 0 {
		route = route[:i]
	}
	for _, s := range r.Screens {
		if s.Route == route {
			return s, true
		}
	}
	return Screen{}, false
}

func (r *ScreenRegistry) ByID(id string) (Screen, bool) {
	for _, s := range r.Screens {
		if s.ID == id {
			return s, true
		}
	}
	return Screen{}, false
}

// ByCommand finds the screen a CLI command belongs to.
func (r *ScreenRegistry) ByCommand(cmd string) (Screen, bool) {
	for _, s := range r.Screens {
		for _, c := range s.Commands {
			if c == cmd {
				return s, true
			}
		}
	}
	return Screen{}, false
}
