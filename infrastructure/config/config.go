package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/btcsuite/btcutil"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultDataDirname         = "data"
	defaultLogLevel            = "info"
	defaultLogDirname          = "logs"
	defaultLogFilename         = "calicod.log"
	defaultErrLogFilename      = "calicod_err.log"
	defaultTargetOutboundPeers = 8
	defaultMaxInboundPeers     = 117
	defaultListenAddress       = "calicod"
)

var (
	// DefaultAppDir is the default home directory for calicod.
	DefaultAppDir = btcutil.AppDataDir("calicod", false)

	defaultDataDir = filepath.Join(DefaultAppDir, defaultDataDirname)
	defaultLogDir  = filepath.Join(DefaultAppDir, defaultLogDirname)
)

// Flags defines the configuration options for calicod.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion         bool     `short:"V" long:"version" description:"Display version information and exit"`
	AppDir              string   `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir              string   `long:"logdir" description:"Directory to log output."`
	LogLevel            string   `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	Listeners           []string `long:"listen" description:"Add an in-process address other nodes may connect to"`
	ConnectPeers        []string `long:"connect" description:"Connect only to the specified in-process peers at startup"`
	TargetOutboundPeers int      `long:"outpeers" description:"Target number of outbound peers"`
	MaxInboundPeers     int      `long:"maxinpeers" description:"Max number of inbound peers"`
	DisableBanning      bool     `long:"nobanning" description:"Disable banning of misbehaving peers"`
	Profile             string   `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
	NetworkFlags
}

// Config defines the configuration options for calicod.
//
// See LoadConfig for details on the configuration load process.
type Config struct {
	*Flags
}

// DefaultConfig returns the default calicod configuration
func DefaultConfig() *Config {
	return &Config{Flags: newDefaultFlags()}
}

func newDefaultFlags() *Flags {
	return &Flags{
		AppDir:              defaultDataDir,
		LogDir:              defaultLogDir,
		LogLevel:            defaultLogLevel,
		Listeners:           []string{defaultListenAddress},
		TargetOutboundPeers: defaultTargetOutboundPeers,
		MaxInboundPeers:     defaultMaxInboundPeers,
	}
}

// LoadConfig initializes and parses the config using command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Parse CLI options and overwrite/add any specified options
//  3. Resolve the network and namespace the directories by it
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

func loadConfig(args []string) (*Config, error) {
	cfgFlags := newDefaultFlags()
	parser := flags.NewParser(cfgFlags, flags.HelpFlag|flags.PassDoubleDash)

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)

	_, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); !ok || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, err
	}

	cfg := &Config{Flags: cfgFlags}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	if cfg.MaxInboundPeers < 0 {
		return nil, errors.Errorf("maxinpeers must not be negative, got %d", cfg.MaxInboundPeers)
	}
	if cfg.TargetOutboundPeers < 0 {
		return nil, errors.Errorf("outpeers must not be negative, got %d", cfg.TargetOutboundPeers)
	}

	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return nil, errors.Errorf("the profile port must be between 1024 and 65535, got %s", cfg.Profile)
		}
	}

	// Data and logs are namespaced per network
	cfg.AppDir = cleanAndExpandPath(cfg.AppDir)
	cfg.AppDir = filepath.Join(cfg.AppDir, cfg.NetParams().Name)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.NetParams().Name)

	if cfg.LogLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	err = logger.ParseAndSetLogLevels(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid loglevel %s", cfg.LogLevel)
	}

	return cfg, nil
}

// LogFile returns the path of the main log file
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

// ErrLogFile returns the path of the error log file
func (cfg *Config) ErrLogFile() string {
	return filepath.Join(cfg.LogDir, defaultErrLogFilename)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
