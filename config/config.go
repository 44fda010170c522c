package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/topsol/fatura-copel/utils/fatura"
)

type Config struct {
	ServerPort        string
	TesseractDataPath string
	MaxFileSize       int64
	LogLevel          string

	// TextServiceURL points at a remote document-to-text service. Empty means local extraction.
	TextServiceURL    string
	ConversionTimeout time.Duration
	MinTextLength     int
	OCRLanguage       string
	PixDecode         bool

	BlockStart         string
	BlockEnd           string
	BlockFallbackStart string
	BlockFallbackEnd   string
}

// flag name -> config key
var flagKeys = map[string]string{
	"port":               "server_port",
	"tessdata":           "tessdata_prefix",
	"max-file-size":      "max_file_size",
	"log-level":          "log_level",
	"text-service-url":   "text_service_url",
	"conversion-timeout": "conversion_timeout",
	"min-text-length":    "min_text_length",
	"ocr-language":       "ocr_language",
	"pix":                "pix_decode",
}

func setDefaults(v *viper.Viper) {
	d := fatura.DefaultOptions()

	v.SetDefault("server_port", "8080")
	v.SetDefault("tessdata_prefix", "/usr/share/tesseract-ocr/5/tessdata/")
	v.SetDefault("max_file_size", 10*1024*1024) // 10 MB
	v.SetDefault("log_level", "info")
	v.SetDefault("text_service_url", "")
	v.SetDefault("conversion_timeout", "60s")
	v.SetDefault("min_text_length", 20)
	v.SetDefault("ocr_language", "por")
	v.SetDefault("pix_decode", false)
	v.SetDefault("block_start", d.Primary.Start)
	v.SetDefault("block_end", d.Primary.End)
	v.SetDefault("block_fallback_start", d.Fallback.Start)
	v.SetDefault("block_fallback_end", d.Fallback.End)
}

// Load builds the configuration from defaults, an optional .env file, the
// environment, an optional YAML config file and finally the command flags.
// flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		ServerPort:         v.GetString("server_port"),
		TesseractDataPath:  v.GetString("tessdata_prefix"),
		MaxFileSize:        v.GetInt64("max_file_size"),
		LogLevel:           v.GetString("log_level"),
		TextServiceURL:     v.GetString("text_service_url"),
		ConversionTimeout:  v.GetDuration("conversion_timeout"),
		MinTextLength:      v.GetInt("min_text_length"),
		OCRLanguage:        v.GetString("ocr_language"),
		PixDecode:          v.GetBool("pix_decode"),
		BlockStart:         v.GetString("block_start"),
		BlockEnd:           v.GetString("block_end"),
		BlockFallbackStart: v.GetString("block_fallback_start"),
		BlockFallbackEnd:   v.GetString("block_fallback_end"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return errors.New("server port is required")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("invalid max file size %d", c.MaxFileSize)
	}
	if c.ConversionTimeout <= 0 {
		return fmt.Errorf("invalid conversion timeout %s", c.ConversionTimeout)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Level returns the charmbracelet log level, defaulting to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// ExtractOptions maps the block markers onto the classifier options.
func (c *Config) ExtractOptions() fatura.Options {
	return fatura.Options{
		Primary:  fatura.BlockMarkers{Start: c.BlockStart, End: c.BlockEnd},
		Fallback: fatura.BlockMarkers{Start: c.BlockFallbackStart, End: c.BlockFallbackEnd},
	}
}
