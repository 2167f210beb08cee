// Completion: 100% - Utility module complete
package engine

import (
	"fmt"
	"runtime"
	"strings"
)

// Architecture type
type Arch int

const (
	ArchUnknown Arch = iota
	ArchX86_64
	ArchARM64
	ArchRiscv64
)

func (a Arch) String() string {
	switch a {
	case ArchX86_64:
		return "x86_64"
	case ArchARM64:
		return "aarch64"
	case ArchRiscv64:
		return "riscv64"
	default:
		return "unknown"
	}
}

// ParseArch parses an architecture string (like GOARCH values)
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(s) {
	case "x86_64", "amd64", "x86-64":
		return ArchX86_64, nil
	case "aarch64", "arm64":
		return ArchARM64, nil
	case "riscv64", "riscv", "rv64":
		return ArchRiscv64, nil
	default:
		return ArchUnknown, fmt.Errorf("unknown architecture: %s", s)
	}
}

// OS type
type OS int

const (
	OSUnknown OS = iota
	OSLinux
	OSDarwin
	OSFreeBSD
	OSWindows
)

func (o OS) String() string {
	switch o {
	case OSLinux:
		return "linux"
	case OSDarwin:
		return "darwin"
	case OSFreeBSD:
		return "freebsd"
	case OSWindows:
		return "windows"
	default:
		return "unknown"
	}
}

// ParseOS parses an OS string (like GOOS values)
func ParseOS(s string) (OS, error) {
	switch strings.ToLower(s) {
	case "linux":
		return OSLinux, nil
	case "darwin", "macos":
		return OSDarwin, nil
	case "freebsd":
		return OSFreeBSD, nil
	case "windows", "win":
		return OSWindows, nil
	default:
		return OSUnknown, fmt.Errorf("unknown OS: %s", s)
	}
}

// Platform represents a host platform (architecture + OS)
type Platform struct {
	Arch Arch
	OS   OS
}

// Host returns the platform the process runs on. Unknown values are kept as
// ArchUnknown/OSUnknown rather than reported as errors.
func Host() Platform {
	arch, _ := ParseArch(runtime.GOARCH)
	goos, _ := ParseOS(runtime.GOOS)
	return Platform{Arch: arch, OS: goos}
}

// String returns a human-readable platform string
func (p Platform) String() string {
	return fmt.Sprintf("%s-%s", p.Arch, p.OS)
}

// CanJIT reports whether generated code can be executed on p. The code
// generator emits x86-64 and performs Linux system calls directly.
func (p Platform) CanJIT() bool {
	return p.Arch == ArchX86_64 && p.OS == OSLinux
}

// Backend selects how a program is executed
type Backend int

const (
	BackendAuto Backend = iota // JIT when the host supports it, otherwise the interpreter
	BackendJIT
	BackendInterp
)

func (b Backend) String() string {
	switch b {
	case BackendJIT:
		return "jit"
	case BackendInterp:
		return "interp"
	default:
		return "auto"
	}
}

// ParseBackend parses a backend name
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return BackendAuto, nil
	case "jit", "native":
		return BackendJIT, nil
	case "interp", "interpreter":
		return BackendInterp, nil
	default:
		return BackendAuto, fmt.Errorf("unknown backend: %s (supported: auto, jit, interp)", s)
	}
}

// Resolve turns BackendAuto into a concrete backend for p. An explicit JIT
// request on a platform that cannot run it is an error.
func (b Backend) Resolve(p Platform) (Backend, error) {
	switch b {
	case BackendAuto:
		if p.CanJIT() {
			return BackendJIT, nil
		}
		return BackendInterp, nil
	case BackendJIT:
		if !p.CanJIT() {
			return b, fmt.Errorf("the jit backend is not available on %s", p)
		}
	}
	return b, nil
}
