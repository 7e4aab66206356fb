package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anexotools/anexocon/internal/config"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3")
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "anexocon v1.2.3")
}

func TestGetConfigFallback(t *testing.T) {
	config.ResetConfig()
	cfg := getConfig()
	assert.Equal(t, config.DefaultWorkDir, cfg.WorkDir)
	assert.Equal(t, config.DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, config.DefaultStateFile, cfg.StatePath)
	assert.Equal(t, config.DefaultWorkers, cfg.Workers)
}

func TestLoadMaestraRequiresPath(t *testing.T) {
	_, err := loadMaestra(&config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no registry configured")
}
