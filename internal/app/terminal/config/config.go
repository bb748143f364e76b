package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	StoreSQLite = "sqlite"
	StoreEEPROM = "eeprom"

	RadioWired = "wired"
	RadioNmcli = "nmcli"

	defaultConfigDir = ".accessterm"
	defaultStoreFile = "terminal.db"

	portalPort = "8080"
)

type Config struct {
	Env       string `mapstructure:"app_env"`
	ConfigDir string `mapstructure:"config_dir"`

	Store  Store
	Sync   Sync
	Link   Link
	Portal Portal
	Device Device
	Timing Timing
}

type Store struct {
	Driver string `mapstructure:"store_driver"`
	Path   string `mapstructure:"store_path"`
}

type Sync struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ScanTimeout    time.Duration `mapstructure:"scan_timeout"`
}

type Link struct {
	Radio           string        `mapstructure:"radio"`
	RadioInterface  string        `mapstructure:"radio_interface"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	ConnectSpacing  time.Duration `mapstructure:"connect_spacing"`
	APDwell         time.Duration `mapstructure:"ap_dwell"`
	APSSID          string        `mapstructure:"ap_ssid"`
	APPassphrase    string        `mapstructure:"ap_passphrase"`
}

type Portal struct {
	Address      string `mapstructure:"portal_address"`
	PasswordHash string `mapstructure:"portal_password_hash"`
}

type Device struct {
	ReaderDevice string `mapstructure:"reader_device"`
}

type Timing struct {
	PingInterval     time.Duration `mapstructure:"ping_interval"`
	PingRetryDelay   time.Duration `mapstructure:"ping_retry_delay"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	RestartDelay     time.Duration `mapstructure:"restart_delay"`
}

// SetDefaults registers every key with viper so AutomaticEnv can resolve it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvLocal)
	v.SetDefault("CONFIG_DIR", defaultConfigDir)

	v.SetDefault("STORE_DRIVER", StoreSQLite)
	v.SetDefault("STORE_PATH", "")

	v.SetDefault("REQUEST_TIMEOUT", "5s")
	v.SetDefault("SCAN_TIMEOUT", "15s")

	v.SetDefault("RADIO", RadioWired)
	v.SetDefault("RADIO_INTERFACE", "wlan0")
	v.SetDefault("CONNECT_ATTEMPTS", 20)
	v.SetDefault("CONNECT_SPACING", "500ms")
	v.SetDefault("AP_DWELL", "120s")
	v.SetDefault("AP_SSID", "Terminal Config")
	v.SetDefault("AP_PASSPHRASE", "terminator1605")

	v.SetDefault("PORTAL_ADDRESS", "")
	v.SetDefault("PORTAL_PASSWORD_HASH", "")

	v.SetDefault("READER_DEVICE", "")

	v.SetDefault("PING_INTERVAL", "60s")
	v.SetDefault("PING_RETRY_DELAY", "1s")
	v.SetDefault("FAILURE_THRESHOLD", 3)
	v.SetDefault("TICK_INTERVAL", "100ms")
	v.SetDefault("RESTART_DELAY", "1s")
}

// LoadWithDotEnv applies an optional .env file to the environment, then loads from v.
func LoadWithDotEnv(v *viper.Viper) (*Config, error) {
	loadDotEnv()
	return Load(v)
}

// Load resolves the configuration from v. Keys already read from a config file win over defaults,
// environment variables win over both.
func Load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	SetDefaults(v)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := v.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}

	storePath := v.GetString("STORE_PATH")
	if storePath == "" {
		storePath = filepath.Join(configDir, defaultStoreFile)
	}

	radio := v.GetString("RADIO")

	// The wired radio has no access point of its own, so the portal stays on loopback there.
	portalAddr := v.GetString("PORTAL_ADDRESS")
	if portalAddr == "" {
		portalAddr = ":" + portalPort
		if radio == RadioWired {
			portalAddr = "127.0.0.1:" + portalPort
		}
	}

	cfg := &Config{
		Env:       v.GetString("APP_ENV"),
		ConfigDir: configDir,
		Store: Store{
			Driver: v.GetString("STORE_DRIVER"),
			Path:   storePath,
		},
		Sync: Sync{
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
			ScanTimeout:    v.GetDuration("SCAN_TIMEOUT"),
		},
		Link: Link{
			Radio:           radio,
			RadioInterface:  v.GetString("RADIO_INTERFACE"),
			ConnectAttempts: v.GetInt("CONNECT_ATTEMPTS"),
			ConnectSpacing:  v.GetDuration("CONNECT_SPACING"),
			APDwell:         v.GetDuration("AP_DWELL"),
			APSSID:          v.GetString("AP_SSID"),
			APPassphrase:    v.GetString("AP_PASSPHRASE"),
		},
		Portal: Portal{
			Address:      portalAddr,
			PasswordHash: v.GetString("PORTAL_PASSWORD_HASH"),
		},
		Device: Device{
			ReaderDevice: v.GetString("READER_DEVICE"),
		},
		Timing: Timing{
			PingInterval:     v.GetDuration("PING_INTERVAL"),
			PingRetryDelay:   v.GetDuration("PING_RETRY_DELAY"),
			FailureThreshold: v.GetInt("FAILURE_THRESHOLD"),
			TickInterval:     v.GetDuration("TICK_INTERVAL"),
			RestartDelay:     v.GetDuration("RESTART_DELAY"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv() {
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}

	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", envPath, err)
		}
	}
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreSQLite, StoreEEPROM:
	default:
		return fmt.Errorf("store_driver %q is not supported", c.Store.Driver)
	}

	switch c.Link.Radio {
	case RadioWired, RadioNmcli:
	default:
		return fmt.Errorf("radio %q is not supported", c.Link.Radio)
	}

	durations := map[string]time.Duration{
		"request_timeout":  c.Sync.RequestTimeout,
		"scan_timeout":     c.Sync.ScanTimeout,
		"connect_spacing":  c.Link.ConnectSpacing,
		"ap_dwell":         c.Link.APDwell,
		"ping_interval":    c.Timing.PingInterval,
		"ping_retry_delay": c.Timing.PingRetryDelay,
		"tick_interval":    c.Timing.TickInterval,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	if c.Timing.RestartDelay < 0 {
		return fmt.Errorf("restart_delay must not be negative")
	}
	if c.Timing.FailureThreshold <= 0 {
		return fmt.Errorf("failure_threshold must be positive")
	}
	if c.Link.ConnectAttempts <= 0 {
		return fmt.Errorf("connect_attempts must be positive")
	}
	return nil
}

// IsProd reports whether the terminal runs with production logging.
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

// IsLocal reports whether the terminal runs with the developer setup.
func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal || c.Env == ""
}
