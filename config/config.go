// Package config reads the server configuration file.
//
// The file is TOML. Every value has a default, so an empty file or no file at
// all yields a working single-node setup under ./data. Command line flags
// override file values; secrets such as the Vault token are never read from
// the file.
//
//	cipher = "aes-gcm"
//
//	[server]
//	listen_addr = "0.0.0.0:8080"
//	max_upload_bytes = 33554432
//
//	[storage]
//	locations = ["file:///var/lib/verichain/blobs", "s3://evidence/blobs?region=eu-west-1"]
//
//	[key_store]
//	location = "bolt:///var/lib/verichain/keys.db"
//	kdf_iterations = 100000
//
//	[catalog]
//	path = "/var/lib/verichain/catalog.db"
//
//	[cluster]
//	rpc_url = "http://127.0.0.1:8545"
//	timeout = "3s"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ruteri/verichain/cryptoutils"
	"github.com/ruteri/verichain/interfaces"
)

// Config is the root of the configuration file.
type Config struct {
	Cipher   string         `toml:"cipher"`
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	KeyStore KeyStoreConfig `toml:"key_store"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Cluster  ClusterConfig  `toml:"cluster"`
}

type ServerConfig struct {
	ListenAddr     string `toml:"listen_addr"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
}

// StorageConfig lists blob backend locations. More than one location enables
// redundant storage with read fallback.
type StorageConfig struct {
	Locations []string `toml:"locations"`
}

type KeyStoreConfig struct {
	// Location is a file://, bolt://, vault:// or memory:// URI.
	Location      string `toml:"location"`
	KDFIterations int    `toml:"kdf_iterations"`
}

type CatalogConfig struct {
	// Path of the bbolt catalog database. Empty keeps records in memory.
	Path string `toml:"path"`
}

type ClusterConfig struct {
	// RPCURL of an Ethereum JSON-RPC endpoint. Empty reports the ledger
	// network as unavailable.
	RPCURL  string   `toml:"rpc_url"`
	Timeout Duration `toml:"timeout"`
}

// Duration decodes TOML strings such as "3s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Cipher: cryptoutils.AESGCMCodecName,
		Server: ServerConfig{
			ListenAddr:     "127.0.0.1:8080",
			MaxUploadBytes: 32 << 20,
		},
		Storage: StorageConfig{
			Locations: []string{"file://./data/blobs"},
		},
		KeyStore: KeyStoreConfig{
			Location:      "file://./data/keys",
			KDFIterations: cryptoutils.DefaultKDFIterations,
		},
		Catalog: CatalogConfig{
			Path: "./data/catalog.db",
		},
		Cluster: ClusterConfig{
			Timeout: Duration{3 * time.Second},
		},
	}
}

// Read decodes r on top of the defaults.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys: %v", undecoded)
	}
	return cfg, nil
}

// Load reads the file at path. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// StorageLocations parses the configured blob locations.
func (c *Config) StorageLocations() ([]interfaces.StorageBackendLocation, error) {
	locations := make([]interfaces.StorageBackendLocation, 0, len(c.Storage.Locations))
	for _, raw := range c.Storage.Locations {
		location, err := interfaces.NewStorageBackendLocation(raw)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, nil
}

// KDFParams returns the key derivation parameters.
func (c *Config) KDFParams() cryptoutils.KDFParams {
	params := cryptoutils.DefaultKDFParams()
	params.Iterations = c.KeyStore.KDFIterations
	return params
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr must be set"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes))
	}

	if _, err := cryptoutils.NewCipherCodec(c.Cipher); err != nil {
		errs = append(errs, fmt.Errorf("cipher: %w", err))
	}

	if len(c.Storage.Locations) == 0 {
		errs = append(errs, errors.New("storage.locations must not be empty"))
	}
	if _, err := c.StorageLocations(); err != nil {
		errs = append(errs, fmt.Errorf("storage.locations: %w", err))
	}

	if _, err := interfaces.NewStorageBackendLocation(c.KeyStore.Location); err != nil {
		errs = append(errs, fmt.Errorf("key_store.location: %w", err))
	}
	if err := c.KDFParams().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("key_store.kdf_iterations: %w", err))
	}

	if c.Cluster.RPCURL != "" && c.Cluster.Timeout.Duration <= 0 {
		errs = append(errs, errors.New("cluster.timeout must be positive"))
	}

	return errors.Join(errs...)
}
