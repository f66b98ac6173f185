package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/ssh-vom/booksearch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, key := range []string{
		"BOOKSEARCH_GRAPHQL_ENDPOINT",
		"BOOKSEARCH_COUNTRY",
		"BOOKSEARCH_PROVIDER",
		"BOOKSEARCH_TIMEOUT",
		"BOOKSEARCH_VERBOSE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestConfigSaveWritesMergedSettings(t *testing.T) {
	isolateConfig(t)
	t.Setenv("BOOKSEARCH_COUNTRY", "GB")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "save", "--endpoint", "https://books.example.com/graphql", "--provider", "ol"})
	require.NoError(t, root.Execute())

	configPath, err := config.ConfigPath()
	require.NoError(t, err)
	assert.Contains(t, out.String(), configPath)

	os.Unsetenv("BOOKSEARCH_COUNTRY")
	saved, err := config.LoadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "https://books.example.com/graphql", saved.GraphQLEndpoint)
	assert.Equal(t, "ol", saved.DefaultProvider)
	assert.Equal(t, "GB", saved.Country)
}

func TestConfigSaveRejectsInvalidProvider(t *testing.T) {
	isolateConfig(t)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"config", "save", "--endpoint", "https://books.example.com/graphql", "--provider", "amazon"})
	require.Error(t, root.Execute())

	configPath, err := config.ConfigPath()
	require.NoError(t, err)
	_, err = os.Stat(configPath)
	assert.True(t, os.IsNotExist(err))
}

func TestSavedConfigIsUsedByLaterRuns(t *testing.T) {
	isolateConfig(t)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"config", "save", "--endpoint", "books.example.com/graphql", "--provider", "openlibrary"})
	require.NoError(t, root.Execute())

	cfg, provider, err := loadConfig(&flags{})
	require.NoError(t, err)
	endpoint, err := cfg.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, "https://books.example.com/graphql", endpoint)
	assert.Equal(t, "Open Library", provider.String())
}
