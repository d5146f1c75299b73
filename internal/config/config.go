// Package config merges defaults, an optional config file, CAPDISSECT_* environment
// variables and command-line flags into one Config.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/spf13/viper"
)

// ErrInvalid reports a configuration value outside its allowed set.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CAPDISSECT"

const (
	EngineTshark   = "tshark"
	EngineGopacket = "gopacket"

	DumpText = "text"
	DumpYAML = "yaml"
)

// Config is the resolved run configuration.
type Config struct {
	CaptureFile string `mapstructure:"-"`

	Wireless    bool     `mapstructure:"wireless"`
	Traffic     bool     `mapstructure:"traffic"`
	Benchmarks  bool     `mapstructure:"benchmarks"`
	ShowPackets bool     `mapstructure:"show_packets"`
	DumpFormat  string   `mapstructure:"dump_format"`
	Preferences []string `mapstructure:"preferences"`
	WLANKeys    []string `mapstructure:"wlan_keys"`
	Filter      string   `mapstructure:"filter"`

	Engine string `mapstructure:"engine"`
	Tshark string `mapstructure:"tshark"`

	ProgressEvery int    `mapstructure:"progress_every"`
	HTMLReport    string `mapstructure:"html_report"`
	TUI           bool   `mapstructure:"tui"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

// Flags are the command-line options. Set flags override file and environment values.
type Flags struct {
	Wireless    bool     `short:"w" long:"wireless" description:"Analyze wireless access points seen in beacons"`
	Traffic     bool     `short:"t" long:"traffic" description:"Analyze and display traffic information by host and protocol"`
	Benchmarks  bool     `short:"b" long:"benchmarks" description:"Time the processing of each packet"`
	ShowPackets bool     `short:"s" long:"show-packets" description:"Output the fields within each packet"`
	DumpFormat  string   `long:"dump-format" value-name:"text|yaml" description:"Format of --show-packets output"`
	Preferences []string `short:"p" long:"preference" value-name:"NAME=VALUE" description:"Set a Wireshark preference (repeatable)"`
	WLANKeys    []string `short:"k" long:"wlan-key" value-name:"TYPE:KEY" description:"WEP or WPA/WPA2 decryption key, e.g. wpa-pwd:passphrase:ssid (repeatable)"`
	Filter      string   `short:"f" long:"filter" value-name:"FILTER" description:"Display filter in Wireshark syntax"`

	Engine string `long:"engine" value-name:"tshark|gopacket" description:"Dissection engine"`
	Tshark string `long:"tshark" value-name:"PATH" description:"tshark executable"`

	HTMLReport string `long:"html-report" value-name:"DIR" description:"Write an HTML session report into DIR"`
	TUI        bool   `long:"tui" description:"Show a live view while processing"`

	Verbose bool   `short:"v" long:"verbose" description:"Debug logging"`
	Quiet   bool   `short:"q" long:"quiet" description:"Only log warnings and errors"`
	LogFile string `long:"log-file" value-name:"FILE" description:"Also write logs to FILE"`

	ConfigFile string `long:"config" value-name:"FILE" description:"Config file (yaml, toml or json)"`

	Args struct {
		CaptureFile string `positional-arg-name:"CAPFILE" description:"Capture file to process (- for stdin)"`
	} `positional-args:"yes" required:"yes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("wireless", false)
	v.SetDefault("traffic", false)
	v.SetDefault("benchmarks", false)
	v.SetDefault("show_packets", false)
	v.SetDefault("dump_format", DumpText)
	v.SetDefault("preferences", []string{})
	v.SetDefault("wlan_keys", []string{})
	v.SetDefault("filter", "")
	v.SetDefault("engine", EngineTshark)
	v.SetDefault("tshark", "tshark")
	v.SetDefault("progress_every", 100)
	v.SetDefault("html_report", "")
	v.SetDefault("tui", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_file", "")
}

// NewParser returns the go-flags parser for f. Help output is left to the caller.
func NewParser(f *Flags) *flags.Parser {
	p := flags.NewParser(f, flags.HelpFlag|flags.PassDoubleDash)
	p.Name = "capdissect"
	return p
}

// IsHelp reports whether err is the parser's response to -h/--help.
func IsHelp(err error) bool {
	var ferr *flags.Error
	return errors.As(err, &ferr) && ferr.Type == flags.ErrHelp
}

// Load parses args (without the program name) and resolves the configuration.
func Load(args []string) (*Config, error) {
	var f Flags
	rest, err := NewParser(&f).ParseArgs(args)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: exactly one capture file expected, got extra %q", ErrInvalid, rest)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if f.ConfigFile != "" {
		v.SetConfigFile(f.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", f.ConfigFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	f.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (f *Flags) apply(cfg *Config) {
	cfg.CaptureFile = f.Args.CaptureFile
	cfg.Wireless = cfg.Wireless || f.Wireless
	cfg.Traffic = cfg.Traffic || f.Traffic
	cfg.Benchmarks = cfg.Benchmarks || f.Benchmarks
	cfg.ShowPackets = cfg.ShowPackets || f.ShowPackets
	cfg.TUI = cfg.TUI || f.TUI

	if f.DumpFormat != "" {
		cfg.DumpFormat = f.DumpFormat
	}
	if len(f.Preferences) > 0 {
		cfg.Preferences = f.Preferences
	}
	if len(f.WLANKeys) > 0 {
		cfg.WLANKeys = f.WLANKeys
	}
	if f.Filter != "" {
		cfg.Filter = f.Filter
	}
	if f.Engine != "" {
		cfg.Engine = f.Engine
	}
	if f.Tshark != "" {
		cfg.Tshark = f.Tshark
	}
	if f.HTMLReport != "" {
		cfg.HTMLReport = f.HTMLReport
	}
	if f.LogFile != "" {
		cfg.LogFile = f.LogFile
	}

	switch {
	case f.Verbose:
		cfg.LogLevel = "debug"
	case f.Quiet:
		cfg.LogLevel = "warn"
	}
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if c.CaptureFile == "" {
		return fmt.Errorf("%w: no capture file", ErrInvalid)
	}
	switch c.Engine {
	case EngineTshark, EngineGopacket:
	default:
		return fmt.Errorf("%w: engine %q (want %s or %s)", ErrInvalid, c.Engine, EngineTshark, EngineGopacket)
	}
	switch c.DumpFormat {
	case DumpText, DumpYAML:
	default:
		return fmt.Errorf("%w: dump format %q (want %s or %s)", ErrInvalid, c.DumpFormat, DumpText, DumpYAML)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.LogFormat)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.TUI && c.ShowPackets {
		return fmt.Errorf("%w: --show-packets cannot be combined with --tui", ErrInvalid)
	}
	if c.ProgressEvery <= 0 {
		return fmt.Errorf("%w: progress_every must be positive", ErrInvalid)
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
	}
	return l, nil
}
