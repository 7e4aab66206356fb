// Package config loads the anexocon configuration from file,
// environment and flags.
package config

import "github.com/anexotools/anexocon/internal/transfer"

// Default configuration values.
const (
	DefaultStateFile = "anexocon.db"
	DefaultWorkDir   = "descargas"
	DefaultOutputDir = "salida"
	DefaultSFTPPort  = 2243
	DefaultWorkers   = 1
)

// SFTPConfig holds the remote-store connection settings.
type SFTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
}

// Config is the resolved application configuration.
type Config struct {
	// RegistryPath points at the maestra workbook.
	RegistryPath string `koanf:"registry_path"`

	// RemoteRoot is the folder on the remote store under which
	// contract folders live.
	RemoteRoot string `koanf:"remote_root"`

	// WorkDir receives downloaded documents, one subfolder per
	// contract.
	WorkDir string `koanf:"work_dir"`

	// OutputDir receives the consolidated artifacts.
	OutputDir string `koanf:"output_dir"`

	// StatePath is the process-log database file.
	StatePath string `koanf:"state_path"`

	// Workers sets batch parallelism. Each worker dials its own
	// remote session; 1 means strictly sequential.
	Workers int `koanf:"workers"`

	// KeepDownloads retains the per-contract download folders after
	// processing instead of removing them.
	KeepDownloads bool `koanf:"keep_downloads"`

	Verbose bool `koanf:"verbose"`

	SFTP SFTPConfig `koanf:"sftp"`
}

// TransferConfig converts the SFTP section to the transfer layer's
// config type.
func (c *Config) TransferConfig() transfer.SFTPConfig {
	return transfer.SFTPConfig{
		Host:     c.SFTP.Host,
		Port:     c.SFTP.Port,
		User:     c.SFTP.User,
		Password: c.SFTP.Password,
	}
}
