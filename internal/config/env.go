package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/shorsim/internal/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// lookupEnv returns the value of EnvPrefix+key if it is set and not empty.
func lookupEnv(key string) (string, bool) {
	val := os.Getenv(EnvPrefix + key)
	return val, val != ""
}

func getEnvString(key, defaultVal string) string {
	if val, ok := lookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvUint64, getEnvInt, getEnvFloat and getEnvDuration keep the default
// when the variable is unset or does not parse.

func getEnvUint64(key string, defaultVal uint64) uint64 {
	if val, ok := lookupEnv(key); ok {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := lookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val, ok := lookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := lookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool accepts true/1/yes and false/0/no, case-insensitively.
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := lookupEnv(key); ok {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// isFlagSet reports whether any of names was given on the command line.
func isFlagSet(fs *flag.FlagSet, names ...string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				found = true
			}
		}
	})
	return found
}

// applyEnvOverrides fills every field whose flag was not given from its
// SHORSIM_* variable, so flags win over the environment and the
// environment wins over defaults. Only a malformed SHORSIM_N is an error;
// other malformed values are ignored.
//
// Variables: SHORSIM_N, SHORSIM_TRIES, SHORSIM_SEED, SHORSIM_ENGINE,
// SHORSIM_WORKERS, SHORSIM_NOISE, SHORSIM_PARALLEL_THRESHOLD,
// SHORSIM_TIMEOUT, SHORSIM_PORT, SHORSIM_OUTPUT,
// SHORSIM_CALIBRATION_PROFILE, SHORSIM_EXPLORE_LIMIT and the booleans
// SHORSIM_DETAILS, SHORSIM_VERBOSE, SHORSIM_JSON, SHORSIM_QUIET,
// SHORSIM_NO_COLOR, SHORSIM_SERVER, SHORSIM_INTERACTIVE,
// SHORSIM_CALIBRATE, SHORSIM_AUTO_CALIBRATE, SHORSIM_EXPLORE.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) error {
	if !isFlagSet(fs, "n") && fs.NArg() == 0 {
		if val, ok := lookupEnv("N"); ok {
			targets, err := ParseTargets(val)
			if err != nil {
				return apperrors.NewConfigError("%sN: %v", EnvPrefix, err)
			}
			config.Targets = targets
		}
	}
	applyNumericOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
	return nil
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "tries") {
		config.MaxTries = getEnvInt("TRIES", config.MaxTries)
	}
	if !isFlagSet(fs, "seed") {
		config.Seed = getEnvUint64("SEED", config.Seed)
	}
	if !isFlagSet(fs, "workers") {
		config.Workers = getEnvInt("WORKERS", config.Workers)
	}
	if !isFlagSet(fs, "noise") {
		config.NoiseThreshold = getEnvFloat("NOISE", config.NoiseThreshold)
	}
	if !isFlagSet(fs, "parallel-threshold") {
		config.ParallelThreshold = getEnvInt("PARALLEL_THRESHOLD", config.ParallelThreshold)
	}
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
	if !isFlagSet(fs, "explore-limit") {
		config.ExploreLimit = getEnvInt("EXPLORE_LIMIT", config.ExploreLimit)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "engine") {
		config.Engine = getEnvString("ENGINE", config.Engine)
	}
	if !isFlagSet(fs, "port") {
		config.Port = getEnvString("PORT", config.Port)
	}
	if !isFlagSet(fs, "output", "o") {
		config.OutputFile = getEnvString("OUTPUT", config.OutputFile)
	}
	if !isFlagSet(fs, "calibration-profile") {
		config.CalibrationProfile = getEnvString("CALIBRATION_PROFILE", config.CalibrationProfile)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	bools := []struct {
		key   string
		flags []string
		dst   *bool
	}{
		{"DETAILS", []string{"d", "details"}, &config.Details},
		{"VERBOSE", []string{"v"}, &config.Verbose},
		{"JSON", []string{"json"}, &config.JSONOutput},
		{"QUIET", []string{"quiet", "q"}, &config.Quiet},
		{"NO_COLOR", []string{"no-color"}, &config.NoColor},
		{"SERVER", []string{"server"}, &config.ServerMode},
		{"INTERACTIVE", []string{"interactive"}, &config.Interactive},
		{"CALIBRATE", []string{"calibrate"}, &config.Calibrate},
		{"AUTO_CALIBRATE", []string{"auto-calibrate"}, &config.AutoCalibrate},
		{"EXPLORE", []string{"explore"}, &config.Explore},
	}
	for _, b := range bools {
		if !isFlagSet(fs, b.flags...) {
			*b.dst = getEnvBool(b.key, *b.dst)
		}
	}
}
