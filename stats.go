package dynamize

// Stats summarizes a container.
type Stats struct {
	Strategy string
	State    State
	Version  uint64

	Len        int
	Live       int
	DeadWeight int
	Blocks     int
	Levels     int
	Digits     string

	Inserts     uint64
	Merged      uint64 // elements fed to insertion builds
	MaxMerged   uint64 // largest single insertion build
	MaxConsumed uint64 // most blocks replaced by a single insertion
	Rebuilds    uint64
}

// Stats returns a point-in-time summary of the container.
func (c *Container[T, S, Q, R]) Stats() Stats {
	snap := c.Snapshot()
	return Stats{
		Strategy:    c.e.strategy.Name(),
		State:       c.State(),
		Version:     snap.version,
		Len:         snap.Len(),
		Live:        snap.Live(),
		DeadWeight:  snap.DeadWeight(),
		Blocks:      snap.store.Len(),
		Levels:      snap.store.Levels(),
		Digits:      snap.digits.String(),
		Inserts:     c.inserts.Load(),
		Merged:      c.merged.Load(),
		MaxMerged:   c.maxMerged.Load(),
		MaxConsumed: c.maxBlocks.Load(),
		Rebuilds:    c.rebuilds.Load(),
	}
}
