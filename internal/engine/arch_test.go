package engine

import (
	"runtime"
	"testing"
)

func TestParseArch(t *testing.T) {
	tests := []struct {
		in   string
		want Arch
	}{
		{"amd64", ArchX86_64},
		{"x86_64", ArchX86_64},
		{"ARM64", ArchARM64},
		{"rv64", ArchRiscv64},
	}
	for _, tt := range tests {
		got, err := ParseArch(tt.in)
		if err != nil {
			t.Errorf("ParseArch(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseArch(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseArch("mips"); err == nil {
		t.Error("ParseArch(mips) should fail")
	}
}

func TestCanJIT(t *testing.T) {
	if !(Platform{ArchX86_64, OSLinux}).CanJIT() {
		t.Error("linux x86_64 should run generated code")
	}
	for _, p := range []Platform{{ArchARM64, OSLinux}, {ArchX86_64, OSDarwin}, {ArchX86_64, OSWindows}} {
		if p.CanJIT() {
			t.Errorf("%s should not run generated code", p)
		}
	}
}

func TestHost(t *testing.T) {
	h := Host()
	want := runtime.GOOS == "linux" && runtime.GOARCH == "amd64"
	if h.CanJIT() != want {
		t.Errorf("Host() = %s, CanJIT = %v, want %v", h, h.CanJIT(), want)
	}
}

func TestBackendResolve(t *testing.T) {
	linux := Platform{ArchX86_64, OSLinux}
	mac := Platform{ArchARM64, OSDarwin}

	if b, _ := BackendAuto.Resolve(linux); b != BackendJIT {
		t.Errorf("auto on %s = %s, want jit", linux, b)
	}
	if b, _ := BackendAuto.Resolve(mac); b != BackendInterp {
		t.Errorf("auto on %s = %s, want interp", mac, b)
	}
	if _, err := BackendJIT.Resolve(mac); err == nil {
		t.Errorf("jit on %s should fail", mac)
	}
	if b, err := BackendInterp.Resolve(linux); err != nil || b != BackendInterp {
		t.Errorf("interp on %s = %s, %v", linux, b, err)
	}
}

func TestParseBackend(t *testing.T) {
	for in, want := range map[string]Backend{"": BackendAuto, "JIT": BackendJIT, "interpreter": BackendInterp} {
		got, err := ParseBackend(in)
		if err != nil || got != want {
			t.Errorf("ParseBackend(%q) = %s, %v, want %s", in, got, err, want)
		}
	}
	if _, err := ParseBackend("llvm"); err == nil {
		t.Error("ParseBackend(llvm) should fail")
	}
}
