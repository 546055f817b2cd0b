package endpoints

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rpchealth/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStaticRepository(t *testing.T) {
	cfg := config.EndpointsConfig{
		RPCURLs: []string{"https://eth.llamarpc.com", "  ", " https://rpc.ankr.com/eth "},
	}
	repo := NewStaticRepository(cfg)
	cfg.RPCURLs[0] = "https://mutated.example.org"

	got, err := repo.GetEndpoints(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"https://eth.llamarpc.com", "https://rpc.ankr.com/eth"}, got.RPCURLs)
	require.NotNil(t, got.WSURLs)
	assert.Empty(t, got.WSURLs)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "endpoints.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileRepository_ReadsBothLists(t *testing.T) {
	path := writeFile(t, `
rpcUrls:
  - https://eth.llamarpc.com
  - https://rpc.ankr.com/eth
wsUrls:
  - wss://ethereum-rpc.publicnode.com
`)

	got, err := NewFileRepository(path, zap.NewNop()).GetEndpoints(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"https://eth.llamarpc.com", "https://rpc.ankr.com/eth"}, got.RPCURLs)
	assert.Equal(t, []string{"wss://ethereum-rpc.publicnode.com"}, got.WSURLs)
}

func TestFileRepository_AbsentListIsEmpty(t *testing.T) {
	path := writeFile(t, "rpcUrls:\n  - https://eth.llamarpc.com\n")

	got, err := NewFileRepository(path, zap.NewNop()).GetEndpoints(context.Background())

	require.NoError(t, err)
	require.NotNil(t, got.WSURLs)
	assert.Empty(t, got.WSURLs)
}

func TestFileRepository_ReReadsOnEveryCall(t *testing.T) {
	path := writeFile(t, "rpcUrls: [https://a.example.org]\n")
	repo := NewFileRepository(path, zap.NewNop())

	first, err := repo.GetEndpoints(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("rpcUrls: [https://b.example.org]\n"), 0o600))
	second, err := repo.GetEndpoints(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example.org"}, first.RPCURLs)
	assert.Equal(t, []string{"https://b.example.org"}, second.RPCURLs)
}

func TestFileRepository_Errors(t *testing.T) {
	_, err := NewFileRepository(filepath.Join(t.TempDir(), "missing.yaml"), zap.NewNop()).GetEndpoints(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeFile(t, "rpcUrls: {not: [a list\n")
	_, err = NewFileRepository(path, zap.NewNop()).GetEndpoints(context.Background())
	assert.Error(t, err)
}
