package device

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Info describes the host device.
type Info struct {
	Arch     string   `json:"arch" yaml:"arch"`
	CPUs     int      `json:"cpus" yaml:"cpus"`
	Features []string `json:"features" yaml:"features"`
	// CacheLine is the padding size x/sys/cpu uses for this architecture.
	CacheLine int `json:"cache_line" yaml:"cache_line"`
}

// Describe reports the host architecture and the SIMD features it exposes.
func Describe() Info {
	info := Info{
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		CacheLine: cacheLineSize(),
	}
	add := func(ok bool, name string) {
		if ok {
			info.Features = append(info.Features, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE42, "sse4.2")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
		add(cpu.X86.HasAVX512BW, "avx512bw")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasFPHP, "fphp")
		add(cpu.ARM64.HasSVE, "sve")
		add(cpu.ARM64.HasSVE2, "sve2")
	}
	return info
}

func cacheLineSize() int {
	return int(unsafe.Sizeof(cpu.CacheLinePad{}))
}
