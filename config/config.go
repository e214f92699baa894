// Package config loads the settings of a simulated machine from environment
// variables and dotenv files.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sarchlab/vmsim/mem/vm"
)

// DefaultEnvFile is loaded when no dotenv file is named and it exists.
const DefaultEnvFile = ".env"

// Recording backends.
const (
	BackendSQLite     = "sqlite"
	BackendMySQL      = "mysql"
	BackendClickHouse = "clickhouse"
	BackendMongoDB    = "mongodb"
)

// Config holds the settings of a simulated machine.
type Config struct {
	PageSize     uint64
	NumFrames    int
	SwapSlots    int
	SwapFile     string
	UserTop      uint64
	ForkMappings vm.ForkMappingPolicy
	LogLevel     slog.Level
	MonitorPort  int

	// RecordDB names the SQLite file that receives the events. Recording
	// is off when it is empty and the backend is SQLite.
	RecordDB      string
	RecordBackend string
	RecordDSN     string
}

// Default returns the settings used for every unset variable.
func Default() Config {
	return Config{
		PageSize:      4096,
		NumFrames:     64,
		SwapSlots:     256,
		UserTop:       0x8004000000,
		ForkMappings:  vm.ForkSkipMappings,
		LogLevel:      slog.LevelInfo,
		RecordBackend: BackendSQLite,
	}
}

// Recording reports whether events should be recorded.
func (c Config) Recording() bool {
	if c.RecordBackend == BackendSQLite {
		return c.RecordDB != ""
	}

	return c.RecordDSN != ""
}

// Load reads envFile into the environment, without overriding variables that
// are already set, and then builds a Config from the environment. An empty
// envFile loads DefaultEnvFile if it exists.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return FromEnv()
		}

		envFile = DefaultEnvFile
	}

	err := godotenv.Load(envFile)
	if err != nil {
		return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
	}

	return FromEnv()
}

// FromEnv builds a Config from the VMSIM_* environment variables.
func FromEnv() (Config, error) {
	c := Default()
	p := parser{}

	c.PageSize = p.uint("VMSIM_PAGE_SIZE", c.PageSize)
	c.NumFrames = p.int("VMSIM_NUM_FRAMES", c.NumFrames)
	c.SwapSlots = p.int("VMSIM_SWAP_SLOTS", c.SwapSlots)
	c.SwapFile = p.string("VMSIM_SWAP_FILE", c.SwapFile)
	c.UserTop = p.uint("VMSIM_USER_TOP", c.UserTop)
	c.MonitorPort = p.int("VMSIM_MONITOR_PORT", c.MonitorPort)
	c.RecordDB = p.string("VMSIM_RECORD_DB", c.RecordDB)
	c.RecordBackend = strings.ToLower(
		p.string("VMSIM_RECORD_BACKEND", c.RecordBackend))
	c.RecordDSN = p.string("VMSIM_RECORD_DSN", c.RecordDSN)

	if v, ok := os.LookupEnv("VMSIM_FORK_MAPPINGS"); ok {
		policy, err := ParseForkMappingPolicy(v)
		p.fail("VMSIM_FORK_MAPPINGS", err)
		c.ForkMappings = policy
	}

	if v, ok := os.LookupEnv("VMSIM_LOG_LEVEL"); ok {
		level, err := ParseLogLevel(v)
		p.fail("VMSIM_LOG_LEVEL", err)
		c.LogLevel = level
	}

	switch c.RecordBackend {
	case BackendSQLite, BackendMySQL, BackendClickHouse, BackendMongoDB:
	default:
		p.fail("VMSIM_RECORD_BACKEND",
			fmt.Errorf("unknown backend %q", c.RecordBackend))
	}

	if p.err != nil {
		return Config{}, p.err
	}

	return c, nil
}

type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if err != nil {
		p.err = errors.Join(p.err, fmt.Errorf("%s: %w", key, err))
	}
}

func (p *parser) string(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return def
}

func (p *parser) uint(key string, def uint64) uint64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	n, err := strconv.ParseUint(v, 0, 64)
	p.fail(key, err)

	return n
}

func (p *parser) int(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	n, err := strconv.Atoi(v)
	p.fail(key, err)

	return n
}

// ParseForkMappingPolicy converts "skip" or "inherit" to a policy.
func ParseForkMappingPolicy(s string) (vm.ForkMappingPolicy, error) {
	switch strings.ToLower(s) {
	case "", "skip":
		return vm.ForkSkipMappings, nil
	case "inherit":
		return vm.ForkInheritMappings, nil
	default:
		return vm.ForkSkipMappings, fmt.Errorf("unknown fork policy %q", s)
	}
}

// ParseLogLevel converts debug, info, warn, or error to a level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NewLogger creates a text logger that drops records below level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler).With("module", "vmsim")
}
