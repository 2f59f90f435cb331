// Package calibration times the transform engines on this machine and
// remembers the fastest setup in a YAML profile.
// This file implements calibration profile persistence.
package calibration

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sys/cpu"
	"gopkg.in/yaml.v3"
)

// CalibrationProfile stores the results of a calibration run.
// It captures both the winning setup and the hardware it was measured on,
// so a cached profile is only reused on the same kind of machine.
type CalibrationProfile struct {
	// Hardware identification
	CPUModel  string   `yaml:"cpu_model"`
	Features  []string `yaml:"cpu_features,omitempty"`
	NumCPU    int      `yaml:"num_cpu"`
	GOARCH    string   `yaml:"goarch"`
	GOOS      string   `yaml:"goos"`
	GoVersion string   `yaml:"go_version"`
	WordSize  int      `yaml:"word_size"`

	// Winning setup
	Engine            string `yaml:"engine"`
	Workers           int    `yaml:"workers"`
	ParallelThreshold int    `yaml:"parallel_threshold"`

	// Measurements backs the choice, fastest first.
	Measurements []Measurement `yaml:"measurements,omitempty"`

	// Calibration metadata
	CalibratedAt      time.Time `yaml:"calibrated_at"`
	CalibrationQubits int       `yaml:"calibration_qubits"`
	CalibrationTime   string    `yaml:"calibration_time"`

	ProfileVersion int `yaml:"profile_version"`
}

const (
	// CurrentProfileVersion is bumped on incompatible format changes.
	CurrentProfileVersion = 1

	// DefaultProfileFileName is the profile file name in the home directory.
	DefaultProfileFileName = ".shorsim_calibration.yaml"
)

// GetDefaultProfilePath returns ~/.shorsim_calibration.yaml, or the bare
// file name when there is no home directory.
func GetDefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}

func resolvePath(path string) string {
	if path == "" {
		return GetDefaultProfilePath()
	}
	return path
}

// NewProfile creates an empty profile for the current hardware.
func NewProfile() *CalibrationProfile {
	return &CalibrationProfile{
		CPUModel:          getCPUModel(),
		Features:          cpuFeatures(),
		NumCPU:            runtime.NumCPU(),
		GOARCH:            runtime.GOARCH,
		GOOS:              runtime.GOOS,
		GoVersion:         runtime.Version(),
		WordSize:          32 << (^uint(0) >> 63),
		CalibratedAt:      time.Now(),
		CalibrationQubits: CalibrationQubits,
		ProfileVersion:    CurrentProfileVersion,
	}
}

func getCPUModel() string {
	return fmt.Sprintf("%s-%d-cores", runtime.GOARCH, runtime.NumCPU())
}

// cpuFeatures lists the SIMD extensions that change complex arithmetic
// throughput. Two machines with the same core count but different
// extensions do not share a profile.
func cpuFeatures() []string {
	var features []string
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE2, "sse2")
		add(cpu.X86.HasSSE41, "sse4.1")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasFP, "fp")
		add(cpu.ARM64.HasSVE, "sve")
	}
	return features
}

// LoadProfile reads a profile; an empty path means the default one.
func LoadProfile(path string) (*CalibrationProfile, error) {
	data, err := os.ReadFile(resolvePath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var profile CalibrationProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile writes the profile; an empty path means the default one.
func (p *CalibrationProfile) SaveProfile(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(resolvePath(path), data, 0600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// IsValid reports whether the profile was made by this profile version on
// hardware matching the current machine and names an engine.
func (p *CalibrationProfile) IsValid() bool {
	if p == nil || p.ProfileVersion != CurrentProfileVersion || p.Engine == "" {
		return false
	}
	if p.NumCPU != runtime.NumCPU() || p.GOARCH != runtime.GOARCH {
		return false
	}
	if p.WordSize != 32<<(^uint(0)>>63) {
		return false
	}
	return strings.Join(p.Features, ",") == strings.Join(cpuFeatures(), ",")
}

// IsStale reports whether the profile is older than maxAge.
func (p *CalibrationProfile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

func (p *CalibrationProfile) String() string {
	if p == nil {
		return "<nil profile>"
	}
	return fmt.Sprintf("CalibrationProfile{CPU: %s, Engine: %s, Workers: %d, Parallel threshold: %d, Calibrated: %s}",
		p.CPUModel, p.Engine, p.Workers, p.ParallelThreshold, p.CalibratedAt.Format(time.RFC3339))
}

// LoadOrCreateProfile loads the profile at path. It returns a fresh profile
// and false when the file is missing, unreadable or made on other hardware.
func LoadOrCreateProfile(path string) (*CalibrationProfile, bool) {
	profile, err := LoadProfile(path)
	if err != nil || !profile.IsValid() {
		return NewProfile(), false
	}
	return profile, true
}

// ProfileExists reports whether a file exists at path.
func ProfileExists(path string) bool {
	_, err := os.Stat(resolvePath(path))
	return err == nil
}
