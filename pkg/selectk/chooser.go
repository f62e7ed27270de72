package selectk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Chooser maps a problem shape to a concrete algorithm. Implementations
// must be pure and deterministic.
type Chooser interface {
	Choose(rows, cols, k int) Algo
}

// DecisionTable is the benchmark-derived choice rule, kept as data so that
// retuned thresholds can be loaded without code changes:
//
//	k > RadixK:      cols > RadixCols && rows > RadixRows -> ExtraPass
//	                 cols > RadixCols                     -> Radix11bits
//	                 otherwise                            -> ExtraPass
//	k > WarpK:       cols > WarpCols || rows > WarpRows   -> DistributedShm
//	                 otherwise                            -> Immediate
//	otherwise:       Immediate
type DecisionTable struct {
	RadixK    int `yaml:"radix_k" json:"radix_k"`
	RadixCols int `yaml:"radix_cols" json:"radix_cols"`
	RadixRows int `yaml:"radix_rows" json:"radix_rows"`
	WarpK     int `yaml:"warp_k" json:"warp_k"`
	WarpCols  int `yaml:"warp_cols" json:"warp_cols"`
	WarpRows  int `yaml:"warp_rows" json:"warp_rows"`
}

// DefaultDecisionTable returns the thresholds measured on the reference
// benchmark grid.
func DefaultDecisionTable() DecisionTable {
	return DecisionTable{
		RadixK:    256,
		RadixCols: 16862,
		RadixRows: 1020,
		WarpK:     2,
		WarpCols:  22061,
		WarpRows:  198,
	}
}

func (t DecisionTable) Choose(rows, cols, k int) Algo {
	switch {
	case k > t.RadixK:
		if cols > t.RadixCols {
			if rows > t.RadixRows {
				return Radix11bitsExtraPass
			}
			return Radix11bits
		}
		return Radix11bitsExtraPass
	case k > t.WarpK:
		if cols > t.WarpCols || rows > t.WarpRows {
			return WarpDistributedShm
		}
		return WarpImmediate
	default:
		return WarpImmediate
	}
}

// Validate rejects tables that would route k above the warp-sort queue
// limit to a warp-sort backend.
func (t DecisionTable) Validate() error {
	if t.RadixK < 1 || t.RadixK > maxWarpK {
		return fmt.Errorf("%w: radix_k %d outside [1, %d]", ErrInvalidArgument, t.RadixK, maxWarpK)
	}
	if t.WarpK < 0 || t.WarpK > t.RadixK {
		return fmt.Errorf("%w: warp_k %d outside [0, radix_k]", ErrInvalidArgument, t.WarpK)
	}
	if t.RadixCols < 0 || t.RadixRows < 0 || t.WarpCols < 0 || t.WarpRows < 0 {
		return fmt.Errorf("%w: negative threshold in %+v", ErrInvalidArgument, t)
	}
	return nil
}

// LoadDecisionTable reads a YAML decision table. Missing keys keep their
// default values.
func LoadDecisionTable(path string) (DecisionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DecisionTable{}, fmt.Errorf("read decision table: %w", err)
	}
	t := DefaultDecisionTable()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return DecisionTable{}, fmt.Errorf("parse decision table %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return DecisionTable{}, fmt.Errorf("decision table %s: %w", path, err)
	}
	return t, nil
}

// Save writes t as YAML.
func (t DecisionTable) Save(path string) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
