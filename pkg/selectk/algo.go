package selectk

import (
	"fmt"
	"strings"
)

// Algo names a selection backend. Auto is resolved by a Chooser before
// dispatch and never reaches a backend.
type Algo int

const (
	Auto Algo = iota
	Radix8bits
	Radix11bits
	Radix11bitsExtraPass
	WarpAuto
	WarpImmediate
	WarpFiltered
	WarpDistributed
	WarpDistributedShm
)

var algoNames = map[Algo]string{
	Auto:                 "auto",
	Radix8bits:           "radix_8bits",
	Radix11bits:          "radix_11bits",
	Radix11bitsExtraPass: "radix_11bits_extra_pass",
	WarpAuto:             "warpsort_auto",
	WarpImmediate:        "warpsort_immediate",
	WarpFiltered:         "warpsort_filtered",
	WarpDistributed:      "warpsort_distributed",
	WarpDistributedShm:   "warpsort_distributed_shm",
}

// Algos lists every concrete backend, in declaration order.
func Algos() []Algo {
	return []Algo{
		Radix8bits, Radix11bits, Radix11bitsExtraPass,
		WarpAuto, WarpImmediate, WarpFiltered, WarpDistributed, WarpDistributedShm,
	}
}

func (a Algo) String() string {
	if name, ok := algoNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Algo(%d)", int(a))
}

// IsRadix reports whether a belongs to the radix family, whose output rows
// are unsorted.
func (a Algo) IsRadix() bool {
	return a == Radix8bits || a == Radix11bits || a == Radix11bitsExtraPass
}

// ParseAlgo resolves a name, ignoring case and surrounding space. An empty
// name means Auto. Dashes are accepted in place of underscores.
func ParseAlgo(name string) (Algo, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "-", "_")
	if s == "" {
		return Auto, nil
	}
	for a, n := range algoNames {
		if n == s {
			return a, nil
		}
	}
	return Auto, fmt.Errorf("%w: unknown algorithm %q (expected auto, %s)", ErrInvalidArgument, name, strings.Join(concreteNames(), ", "))
}

func concreteNames() []string {
	names := make([]string, 0, len(algoNames))
	for _, a := range Algos() {
		names = append(names, a.String())
	}
	return names
}

func (a Algo) MarshalText() ([]byte, error) {
	if _, ok := algoNames[a]; !ok {
		return nil, fmt.Errorf("selectk: cannot marshal %v", a)
	}
	return []byte(a.String()), nil
}

func (a *Algo) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgo(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
