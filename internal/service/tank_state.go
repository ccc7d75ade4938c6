package service

import "water_tank/internal/models"

// NextState computes the band t moves to given its current percentage and
// state. Bands are checked overflow first, then critical, then warning. A tank
// that already sits in a band stays in its *Unsafe variant until the
// percentage crosses the band's safe level. It returns false when the
// percentage is unknown, in which case the state must be left alone.
func NextState(t models.Tank) (models.TankState, bool) {
	if t.Percentage == nil {
		return models.StateUnknown, false
	}
	p := *t.Percentage
	in := func(states ...models.TankState) bool {
		for _, s := range states {
			if t.State == s {
				return true
			}
		}
		return false
	}

	if t.OverflowLevel != nil && p >= *t.OverflowLevel {
		return models.StateOverflow, true
	}
	if t.OverflowSafeLevel != nil && t.OverflowLevel != nil &&
		in(models.StateOverflow, models.StateOverflowUnsafe) &&
		p >= *t.OverflowSafeLevel && p < *t.OverflowLevel {
		return models.StateOverflowUnsafe, true
	}

	if t.CriticalLevel != nil && p <= *t.CriticalLevel {
		return models.StateCritical, true
	}
	if t.CriticalSafeLevel != nil && t.CriticalLevel != nil &&
		in(models.StateCritical, models.StateCriticalUnsafe) &&
		p <= *t.CriticalSafeLevel && p > *t.CriticalLevel {
		return models.StateCriticalUnsafe, true
	}

	if t.WarningLevel != nil && p <= *t.WarningLevel {
		return models.StateWarning, true
	}
	if t.WarningSafeLevel != nil && t.WarningLevel != nil &&
		in(models.StateWarning, models.StateWarningUnsafe) &&
		p <= *t.WarningSafeLevel && p > *t.WarningLevel {
		return models.StateWarningUnsafe, true
	}

	return models.StateNormal, true
}
