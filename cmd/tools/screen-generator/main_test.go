package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"borrower-client/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T) string {
	t.Helper()
	reg := registry.ScreenRegistry{
		Version: "1.0.0",
		Screens: []registry.Screen{{
			ID:          "action.emi-reminders",
			DisplayName: "Reminders",
			Category:    "action",
			Route:       "/reminders",
			Commands:    []string{"remind"},
		}},
	}
	data, err := json.Marshal(reg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "screens.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestScreenData(t *testing.T) {
	data, dir := screenData(registry.Screen{ID: "action.emi-reminders", DisplayName: "Reminders", Route: "/reminders"})
	assert.Equal(t, "emireminders", data.PackageName)
	assert.Equal(t, "EmiReminders", data.TypePrefix)
	assert.Equal(t, filepath.Join("action", "emi-reminders"), dir)
}

func TestRun_GeneratesScaffold(t *testing.T) {
	regPath := writeRegistry(t)
	outDir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, run([]string{"-screen", "action.emi-reminders", "-output", outDir, "-registry", regPath}, &out))

	handler, err := os.ReadFile(filepath.Join(outDir, "action", "emi-reminders", "handler.go"))
	require.NoError(t, err)
	assert.Contains(t, string(handler), "package emireminders")
	assert.Contains(t, string(handler), `const ScreenID = "action.emi-reminders"`)
	assert.Contains(t, string(handler), "API          EmiRemindersAPI")

	for _, name := range []string{"config.go", "service.go", "handler_test.go"} {
		assert.FileExists(t, filepath.Join(outDir, "action", "emi-reminders", name))
	}

	out.Reset()
	require.NoError(t, run([]string{"-screen", "action.emi-reminders", "-output", outDir, "-registry", regPath}, &out))
	assert.Contains(t, out.String(), "Skipped")
}

func TestRun_Errors(t *testing.T) {
	regPath := writeRegistry(t)
	var out bytes.Buffer

	assert.Error(t, run(nil, &out))
	assert.Error(t, run([]string{"-screen", "home.nowhere", "-registry", regPath}, &out))
	assert.Error(t, run([]string{"-screen", "action.emi-reminders", "-registry", filepath.Join(t.TempDir(), "missing.json")}, &out))
}
