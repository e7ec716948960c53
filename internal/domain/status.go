package domain

import (
	"encoding/json"
	"fmt"
)

// StatusTier is the ordered severity scale shared by sensors, sectors and
// mines: TierNormal < TierWarning < TierCritical. The ordering is load-bearing,
// worst-case aggregation compares tiers directly.
type StatusTier int

const (
	TierNormal StatusTier = iota
	TierWarning
	TierCritical
)

// String returns the wire/DB representation of the tier.
func (t StatusTier) String() string {
	switch t {
	case TierNormal:
		return "normal"
	case TierWarning:
		return "warning"
	case TierCritical:
		return "critical"
	default:
		return fmt.Sprintf("StatusTier(%d)", int(t))
	}
}

// Valid reports whether t is one of the three known tiers.
func (t StatusTier) Valid() bool {
	return t >= TierNormal && t <= TierCritical
}

// ParseStatusTier converts the wire/DB representation back to a tier.
func ParseStatusTier(s string) (StatusTier, error) {
	switch s {
	case "normal":
		return TierNormal, nil
	case "warning":
		return TierWarning, nil
	case "critical":
		return TierCritical, nil
	default:
		return TierNormal, fmt.Errorf("invalid status tier: %q", s)
	}
}

// MarshalJSON encodes the tier as its string form.
func (t StatusTier) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid status tier: %d", int(t))
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes the string form of a tier.
func (t *StatusTier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	tier, err := ParseStatusTier(s)
	if err != nil {
		return err
	}
	*t = tier
	return nil
}
