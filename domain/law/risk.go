package law

import (
	"fmt"
	"strings"
)

// RiskLevel is the coarse classification of how strongly a dataset deviates
// from an expected statistical law. Values are totally ordered.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// String returns the canonical upper-case token.
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("RiskLevel(%d)", int(r))
	}
}

// ParseRiskLevel accepts any casing of low, medium or high.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return RiskLow, nil
	case "MEDIUM":
		return RiskMedium, nil
	case "HIGH":
		return RiskHigh, nil
	}
	return RiskLow, fmt.Errorf("unknown risk level %q", s)
}

// Valid reports whether r is one of the three defined levels.
func (r RiskLevel) Valid() bool {
	return r >= RiskLow && r <= RiskHigh
}

// AtLeast reports whether r is as severe as other or worse.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r >= other
}

// MaxRisk returns the most severe of the given levels (LOW when empty).
func MaxRisk(levels ...RiskLevel) RiskLevel {
	worst := RiskLow
	for _, l := range levels {
		if l > worst {
			worst = l
		}
	}
	return worst
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid risk level %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *RiskLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseRiskLevel(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
