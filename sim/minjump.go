package sim

import "sync"

// minTimeJump tracks the smallest cross-host latency observed so far. The
// scheduler bounds each round's horizon by this value: no host may see the
// clock advance past the point where a message sent to it could already
// have arrived.
//
// Workers lower the candidate during a round; the scheduler commits the
// candidate at the round boundary so the bound a round runs under never
// changes mid-round.
type minTimeJump struct {
	mu sync.Mutex

	// committed is the bound in effect for horizon computation.
	committed SimulationTime

	// observed collects candidates reported during the current round.
	observed SimulationTime

	// fallback is used only until any latency has been observed.
	fallback SimulationTime
}

func newMinTimeJump(fallback SimulationTime) *minTimeJump {
	return &minTimeJump{
		committed: SimTimeMax,
		observed:  SimTimeMax,
		fallback:  fallback,
	}
}

// update lowers the observed candidate. Candidates that are not positive
// are ignored.
func (m *minTimeJump) update(candidate SimulationTime) {
	if candidate <= 0 {
		return
	}

	m.mu.Lock()
	if candidate < m.observed {
		m.observed = candidate
	}
	m.mu.Unlock()
}

// commit folds the observed candidate into the effective bound. Called by
// the scheduler only, between rounds.
func (m *minTimeJump) commit() {
	m.mu.Lock()
	if m.observed < m.committed {
		m.committed = m.observed
	}
	m.mu.Unlock()
}

// bound returns the time-jump bound in effect. The fallback applies only
// while no latency has been committed; an observed latency below the
// fallback lowers the bound, it is never clamped back up.
func (m *minTimeJump) bound() SimulationTime {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.committed == SimTimeMax {
		return m.fallback
	}

	return m.committed
}

// current returns the committed bound without applying the fallback, for
// inspection and tests.
func (m *minTimeJump) current() SimulationTime {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.committed
}
