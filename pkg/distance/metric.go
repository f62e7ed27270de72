package distance

import (
	"errors"
	"fmt"
	"strings"
)

// Metric selects the distance function used by Pairwise.
type Metric int

const (
	L2Expanded Metric = iota
	L2SqrtExpanded
	L2Unexpanded
	L2SqrtUnexpanded
	InnerProduct
	Cosine
	L1
	Linf
	Canberra
	Hellinger
	Correlation
	LpUnexpanded
)

var (
	ErrUnknownMetric   = errors.New("unknown distance metric")
	ErrInvalidArgument = errors.New("invalid argument")
)

var metricNames = []string{
	L2Expanded:       "l2_expanded",
	L2SqrtExpanded:   "l2_sqrt_expanded",
	L2Unexpanded:     "l2_unexpanded",
	L2SqrtUnexpanded: "l2_sqrt_unexpanded",
	InnerProduct:     "inner_product",
	Cosine:           "cosine",
	L1:               "l1",
	Linf:             "linf",
	Canberra:         "canberra",
	Hellinger:        "hellinger",
	Correlation:      "correlation",
	LpUnexpanded:     "lp_unexpanded",
}

var metricAliases = map[string]Metric{
	"l2":          L2SqrtExpanded,
	"euclidean":   L2SqrtExpanded,
	"sqeuclidean": L2Expanded,
	"ip":          InnerProduct,
	"dot":         InnerProduct,
	"manhattan":   L1,
	"chebyshev":   Linf,
	"minkowski":   LpUnexpanded,
}

// Metrics lists every metric in declaration order.
func Metrics() []Metric {
	out := make([]Metric, len(metricNames))
	for i := range out {
		out[i] = Metric(i)
	}
	return out
}

func (m Metric) String() string {
	if m >= 0 && int(m) < len(metricNames) {
		return metricNames[m]
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

func (m Metric) valid() bool { return m >= 0 && int(m) < len(metricNames) }

// SelectMin reports whether smaller values mean nearer neighbours. Only the
// inner product ranks the other way.
func (m Metric) SelectMin() bool { return m != InnerProduct }

// ParseMetric accepts the canonical names plus a few common aliases.
func ParseMetric(name string) (Metric, error) {
	s := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for i, n := range metricNames {
		if n == s {
			return Metric(i), nil
		}
	}
	if m, ok := metricAliases[s]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

func (m Metric) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMetric, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
