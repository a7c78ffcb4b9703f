package controller

// GetInfo reads every stream's packet counter, one dispatch per counter.
// At level 1 and above each record also carries the threshold readback.
// Without a session the snapshot has no streams. A failed read ends the
// walk and is reported in Snapshot.Error; GetInfo never fails.
func (c *Controller) GetInfo(level int) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Time:    c.cfg.Now(),
		State:   c.state,
		Level:   level,
		Streams: []StreamInfo{},
	}
	if c.session == nil {
		c.observeSnapshot(snap)
		return snap
	}

	s := c.session
	snap.Device = s.record.Device
	snap.Session = s.id.String()
	snap.Streams = make([]StreamInfo, 0, s.topology.Slots())

	err := s.step(StepMonitor, func() error {
		return s.each(func(l, st int) error {
			ctr, err := s.pod.ReadPacketCounter(l, st)
			if err != nil {
				return err
			}
			info := StreamInfo{Link: l, Stream: st, PacketCounter: ctr}
			if level >= 1 {
				th, err := s.pod.ReadThreshold(l, st)
				if err != nil {
					return err
				}
				info.Threshold = &th
			}
			snap.Streams = append(snap.Streams, info)
			return nil
		})
	})
	if err != nil {
		snap.Error = err.Error()
		c.debugLog("get_info: partial snapshot", "error", err)
	}
	c.observeSnapshot(snap)
	return snap
}

func (c *Controller) observeSnapshot(s Snapshot) {
	if c.cfg.Observer != nil {
		c.cfg.Observer.ObserveSnapshot(s)
	}
}
