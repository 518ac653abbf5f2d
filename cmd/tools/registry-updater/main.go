// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"borrower-client/pkg/registry"
)

const defaultRegistryPath = "pkg/registry/screens.json"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		id := fs.String("id", "", "Screen ID (e.g., action.invoices)")
		displayName := fs.String("displayName", "", "Display Name (e.g., Invoices)")
		description := fs.String("description", "", "Description")
		route := fs.String("route", "", "Route (e.g., /invoices)")
		commands := fs.String("commands", "", "Comma separated CLI commands")
		requiresAuth := fs.Bool("requiresAuth", true, "Whether the screen needs a signed-in borrower")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *id == "" || *displayName == "" || *route == "" {
			fs.Usage()
			return fmt.Errorf("id, displayName and route are required for add")
		}
		screen := registry.Screen{
			ID:           *id,
			DisplayName:  *displayName,
			Description:  *description,
			Category:     categoryOf(*id),
			Route:        *route,
			RequiresAuth: *requiresAuth,
			Commands:     splitList(*commands),
			ErrorCodes:   []string{},
			Tags:         []string{},
		}
		if err := addScreen(*path, screen); err != nil {
			return fmt.Errorf("adding screen: %w", err)
		}
		fmt.Fprintf(out, "Added screen: %s\n", *id)

	case "update":
		fs := flag.NewFlagSet("update", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		id := fs.String("id", "", "Screen ID to update")
		field := fs.String("field", "", "Field to update (displayName, description, route, requiresAuth, commands)")
		value := fs.String("value", "", "New value for the field")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *id == "" || *field == "" {
			fs.Usage()
			return fmt.Errorf("id and field are required for update")
		}
		if err := updateScreen(*path, *id, *field, *value); err != nil {
			return fmt.Errorf("updating screen: %w", err)
		}
		fmt.Fprintf(out, "Updated screen %s, field %s to %s\n", *id, *field, *value)

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := registry.LoadRegistry(*path)
		if err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		if len(reg.Screens) == 0 {
			return fmt.Errorf("registry validation failed: no screens")
		}
		fmt.Fprintf(out, "Registry validation passed. Found %d screens.\n", len(reg.Screens))

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := registry.LoadRegistry(*path)
		if err != nil {
			return err
		}
		listScreens(out, reg)

	case "help":
		help(out)

	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func addScreen(path string, screen registry.Screen) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.ScreenRegistry{Version: "1.0.0", Screens: []registry.Screen{}}
	}

	reg.Screens = append(reg.Screens, screen)
	if err := reg.Validate(); err != nil {
		return err
	}
	return saveRegistry(reg, path)
}

func updateScreen(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	found := false
	for i := range reg.Screens {
		if reg.Screens[i].ID != id {
			continue
		}
		found = true
		switch field {
		case "displayName":
			reg.Screens[i].DisplayName = value
		case "description":
			reg.Screens[i].Description = value
		case "route":
			reg.Screens[i].Route = value
		case "commands":
			reg.Screens[i].Commands = splitList(value)
		case "requiresAuth":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid requiresAuth value: %w", err)
			}
			reg.Screens[i].RequiresAuth = b
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		break
	}
	if !found {
		return fmt.Errorf("screen with ID %s not found", id)
	}

	if err := reg.Validate(); err != nil {
		return err
	}
	return saveRegistry(reg, path)
}

func listScreens(out io.Writer, reg *registry.ScreenRegistry) {
	screens := append([]registry.Screen(nil), reg.Screens...)
	sort.Slice(screens, func(i, j int) bool { return screens[i].ID < screens[j].ID })

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tROUTE\tAUTH\tCOMMANDS")
	for _, s := range screens {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", s.ID, s.Route, s.RequiresAuth, strings.Join(s.Commands, ","))
	}
	tw.Flush()
}

// saveRegistry stamps lastUpdated and writes the document back.
func saveRegistry(reg *registry.ScreenRegistry, path string) error {
	reg.LastUpdated = time.Now().Format("2006-01-02")
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func categoryOf(id string) string {
	if i := strings.IndexByte(id, '.'); i > 0 {
		return id[:i]
	}
	return id
}

func splitList(s string) []string {
	items := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	return items
}

func help(out io.Writer) {
	fmt.Fprint(out, `
Usage: registry-updater <command> [flags]

Commands:
  add      Add a new screen to the registry
  update   Update an existing screen's field
  validate Validate the registry file
  list     Print the screen table
  help     Show this help message

Examples:
  registry-updater add -id action.statements -displayName "Statements" -route /statements -commands export
  registry-updater update -id action.statements -field requiresAuth -value true
  registry-updater validate -path pkg/registry/screens.json

Use 'registry-updater <command> -h' for more information about a command.
`)
}
