// cmd/tools/screen-generator/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"borrower-client/pkg/registry"
)

// ScreenData holds data for templates
type ScreenData struct {
	ID           string
	Name         string
	PackageName  string
	TypePrefix   string
	Description  string
	Route        string
	RequiresAuth bool
	ErrorCodes   []string
}

const configTemplate = `package {{ .PackageName }}

import (
	"fmt"
	"time"

	"borrower-client/internal/common/config"
)

type Config struct {
	Enabled bool          ` + "`mapstructure:\"enabled\"`" + `
	Timeout time.Duration ` + "`mapstructure:\"timeout\"`" + `
}

func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Timeout: 15 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func createConfigFromAppConfig(appCfg *config.Config, custom *Config) *Config {
	if custom != nil {
		return custom
	}
	cfg := DefaultConfig()
	if appCfg == nil {
		return cfg
	}
	screen := config.GetScreenConfig(appCfg, ScreenID)
	cfg.Enabled = screen.Enabled
	if screen.Timeout > 0 {
		cfg.Timeout = config.GetDuration(screen.Timeout)
	}
	return cfg
}
`

const serviceTemplate = `package {{ .PackageName }}

import "context"

// {{ .TypePrefix }}API is the slice of the backend client this screen calls.
type {{ .TypePrefix }}API interface{}

type Service struct {
	api {{ .TypePrefix }}API
}

func NewService(api {{ .TypePrefix }}API) *Service {
	return &Service{api: api}
}

// Load fetches what the screen shows.
func (s *Service) Load(ctx context.Context) error {
	return ctx.Err()
}
`

const handlerTemplate = `package {{ .PackageName }}

import (
	"context"
	"fmt"
	"io"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/logger"
)

// ScreenID is served at {{ .Route }}.
const ScreenID = "{{ .ID }}"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	API          {{ .TypePrefix }}API
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	screenConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := screenConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for {{ .Name }}: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}

	return &Handler{
		config:  screenConfig,
		logger:  log.WithFields(map[string]interface{}{"screen": ScreenID}),
		service: NewService(opts.API),
	}, nil
}

func (h *Handler) Service() *Service { return h.service }

func (h *Handler) Show(ctx context.Context, out io.Writer) error {
	if !h.config.Enabled {
		return fmt.Errorf("screen %s is disabled", ScreenID)
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	if err := h.service.Load(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "{{ .Name }}")
	return nil
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"bytes"
	"context"
	"testing"

	"borrower-client/internal/common/config"
	"borrower-client/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Show(t *testing.T) {
	h, err := NewHandler(HandlerOptions{AppConfig: config.Default(), Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, h.Show(context.Background(), &out))
	assert.Contains(t, out.String(), "{{ .Name }}")
}

func TestHandler_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	h, err := NewHandler(HandlerOptions{CustomConfig: cfg, Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)

	assert.Error(t, h.Show(context.Background(), &bytes.Buffer{}))
}
`

var templates = map[string]string{
	"config.go":       configTemplate,
	"service.go":      serviceTemplate,
	"handler.go":      handlerTemplate,
	"handler_test.go": testTemplate,
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("screen-generator", flag.ContinueOnError)
	screenID := fs.String("screen", "", "Screen ID from registry (e.g., action.invoices)")
	outputDir := fs.String("output", "./internal/screens/", "Output directory for the generated screen")
	registryPath := fs.String("registry", "pkg/registry/screens.json", "Path to the screen registry JSON file")
	force := fs.Bool("force", false, "Overwrite files that already exist")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *screenID == "" {
		fmt.Fprintln(out, "Usage: screen-generator -screen <id> [-output <dir>] [-registry <path>]")
		fmt.Fprintln(out, "\nExample:")
		fmt.Fprintln(out, "  go run ./cmd/tools/screen-generator -screen action.invoices")
		return fmt.Errorf("screen is required")
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		return fmt.Errorf("loading registry from %s: %w", *registryPath, err)
	}
	screen, ok := reg.ByID(*screenID)
	if !ok {
		return fmt.Errorf("screen %q not found in registry %s", *screenID, *registryPath)
	}

	data, dir := screenData(screen)
	screenDir := filepath.Join(*outputDir, dir)
	if err := os.MkdirAll(screenDir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, filename := range names {
		path := filepath.Join(screenDir, filename)
		if _, err := os.Stat(path); err == nil && !*force {
			fmt.Fprintf(out, "- Skipped %s (exists)\n", path)
			continue
		}
		if err := render(path, filename, templates[filename], data); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Generated %s\n", path)
	}

	fmt.Fprintf(out, "\nScreen scaffold generated at: %s\n", screenDir)
	fmt.Fprintf(out, "\nNext steps:\n")
	fmt.Fprintf(out, "  1. Declare the backend calls on %sAPI in service.go\n", data.TypePrefix)
	fmt.Fprintf(out, "  2. Wire the command in cmd/borrower-cli/commands.go\n")
	fmt.Fprintf(out, "  3. Add a screens.%s entry to configs/config.yaml if the defaults do not fit\n", screen.ID)
	return nil
}

func render(path, name, tmplStr string, data ScreenData) error {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return fmt.Errorf("parsing template %s: %w", name, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}
	defer file.Close()
	if err := tmpl.Execute(file, data); err != nil {
		return fmt.Errorf("executing template for %s: %w", name, err)
	}
	return nil
}

// screenData derives package and directory names from an id like
// "action.emi-reminders": directory action/emi-reminders, package emireminders.
func screenData(s registry.Screen) (ScreenData, string) {
	category, slug := s.Category, s.ID
	if i := strings.IndexByte(s.ID, '.'); i > 0 {
		category, slug = s.ID[:i], s.ID[i+1:]
	}

	var prefix strings.Builder
	for _, part := range strings.Split(slug, "-") {
		if part != "" {
			prefix.WriteString(strings.ToUpper(part[:1]) + part[1:])
		}
	}

	return ScreenData{
		ID:           s.ID,
		Name:         s.DisplayName,
		PackageName:  strings.ReplaceAll(slug, "-", ""),
		TypePrefix:   prefix.String(),
		Description:  s.Description,
		Route:        s.Route,
		RequiresAuth: s.RequiresAuth,
		ErrorCodes:   s.ErrorCodes,
	}, filepath.Join(category, slug)
}
