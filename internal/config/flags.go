package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile = flag.String("log-file", "", "Write logs to this file as well")
	flagWorkers = flag.Int("workers", -1, "Concurrent groups when smoothing (0 = one per group)")
	flagSeed    = flag.Int64("seed", 0, "Seed for the random falloff")
	flagEncode  = flag.String("encoding", "", "Text encoding of OBJ files (e.g. utf-8, euc-kr, windows-1252)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after the global flags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagEncode != "" {
		cfg.Files.Encoding = *flagEncode
	}
	if *flagWorkers >= 0 {
		cfg.Smoothing.Workers = *flagWorkers
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.Proportional.Seed = *flagSeed
		}
	})
}
