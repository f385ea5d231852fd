// Package device resolves the compute device named in the configuration.
package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// ErrDeviceUnavailable is returned for devices this build cannot drive.
var ErrDeviceUnavailable = errors.New("device unavailable")

// Default is used when no device is configured.
const Default = "cpu"

// Info describes a resolved device.
type Info struct {
	Name     string
	Brand    string
	Cores    int
	Threads  int
	AVX2     bool
	AVX512   bool
	CacheL2  int
	Features []string
}

// String is suitable as a log attribute value.
func (i Info) String() string {
	return fmt.Sprintf("%s (%s, %d cores)", i.Name, i.Brand, i.Cores)
}

// Resolve maps a device name to a usable device. Only the host CPU is
// supported; accelerators such as "cuda" or "cuda:1" are rejected.
func Resolve(name string) (Info, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		n = Default
	}
	switch {
	case n == "cpu":
		return host(), nil
	case n == "cuda" || strings.HasPrefix(n, "cuda:") || n == "mps":
		return Info{}, fmt.Errorf("%w: %q (only %q is supported)", ErrDeviceUnavailable, name, Default)
	default:
		return Info{}, fmt.Errorf("%w: unknown device %q", ErrDeviceUnavailable, name)
	}
}

func host() Info {
	cpu := cpuid.CPU
	return Info{
		Name:     "cpu",
		Brand:    cpu.BrandName,
		Cores:    cpu.PhysicalCores,
		Threads:  cpu.LogicalCores,
		AVX2:     cpu.Supports(cpuid.AVX2),
		AVX512:   cpu.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
		CacheL2:  cpu.Cache.L2,
		Features: cpu.FeatureSet(),
	}
}
