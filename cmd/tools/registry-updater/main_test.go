package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"borrower-client/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryUpdater_AddUpdateList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screens.json")
	var out bytes.Buffer

	require.NoError(t, run([]string{"add", "-path", path, "-id", "action.statements",
		"-displayName", "Statements", "-route", "/statements", "-commands", "export, stmt"}, &out))
	assert.Contains(t, out.String(), "Added screen: action.statements")

	require.NoError(t, run([]string{"update", "-path", path, "-id", "action.statements",
		"-field", "requiresAuth", "-value", "false"}, &out))

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, reg.Screens, 1)
	assert.Equal(t, "action", reg.Screens[0].Category)
	assert.Equal(t, []string{"export", "stmt"}, reg.Screens[0].Commands)
	assert.False(t, reg.Screens[0].RequiresAuth)
	assert.NotEmpty(t, reg.LastUpdated)

	out.Reset()
	require.NoError(t, run([]string{"list", "-path", path}, &out))
	assert.Contains(t, out.String(), "/statements")

	out.Reset()
	require.NoError(t, run([]string{"validate", "-path", path}, &out))
	assert.Contains(t, out.String(), "Found 1 screens")
}

func TestRegistryUpdater_Rejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screens.json")
	var out bytes.Buffer
	require.NoError(t, run([]string{"add", "-path", path, "-id", "home.dashboard",
		"-displayName", "Dashboard", "-route", "/dashboard", "-commands", "dashboard"}, &out))

	tests := []struct {
		name string
		args []string
	}{
		{"missing command", nil},
		{"unknown command", []string{"frobnicate"}},
		{"add without route", []string{"add", "-path", path, "-id", "x.y", "-displayName", "Y"}},
		{"duplicate route", []string{"add", "-path", path, "-id", "x.y", "-displayName", "Y", "-route", "/dashboard"}},
		{"duplicate command", []string{"add", "-path", path, "-id", "x.y", "-displayName", "Y", "-route", "/y", "-commands", "dashboard"}},
		{"unknown field", []string{"update", "-path", path, "-id", "home.dashboard", "-field", "colour", "-value", "x"}},
		{"unknown screen", []string{"update", "-path", path, "-id", "nope", "-field", "route", "-value", "/n"}},
		{"bad bool", []string{"update", "-path", path, "-id", "home.dashboard", "-field", "requiresAuth", "-value", "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, run(tt.args, &out))
		})
	}
}

func TestRegistryUpdater_ValidatesShippedRegistry(t *testing.T) {
	path := filepath.Join("..", "..", "..", defaultRegistryPath)
	if _, err := os.Stat(path); err != nil {
		t.Skip("registry file not found")
	}
	var out bytes.Buffer
	require.NoError(t, run([]string{"validate", "-path", path}, &out))
}
