package sim

import "math/rand"

// WorldDynamics applies the deterministic ambient step at the end of each
// tick: a seeded weather walk on a fixed cadence. Agent actions cannot
// influence it within the same tick; it draws only from its own partitioned
// RNG subsystem.
type WorldDynamics struct {
	rng    *rand.Rand
	period int64
}

// NewWorldDynamics derives the dynamics RNG from the run's partitioned seed.
func NewWorldDynamics(rng *PartitionedRNG, cfg DynamicsConfig) *WorldDynamics {
	period := cfg.WeatherPeriod
	if period <= 0 {
		period = 12
	}
	return &WorldDynamics{
		rng:    rng.ForSubsystem(SubsystemWeather),
		period: period,
	}
}

// Step mutates ambient state for the tick and returns the emitted events.
func (d *WorldDynamics) Step(s *CanonicalState, tick int64) []Event {
	var events []Event
	if tick > 0 && tick%d.period == 0 {
		old := s.Weather
		next := weatherCycle[d.rng.Intn(len(weatherCycle))]
		if next != old {
			s.Weather = next
			events = append(events, &WeatherChangedEvent{Old: old, New: next})
		}
	}
	return events
}
