package controller

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/config"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/issue"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/pod"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport"
)

// step labels the pod's operations with name and tags any failure of fn as
// a HardwareIOError at that step. Operations the failed step left queued
// are discarded so no later dispatch carries them.
func (s *session) step(name string, fn func() error) error {
	s.pod.SetStep(name)
	if err := fn(); err != nil {
		s.pod.Discard()
		s.trace.Error(name, issue.KindHardwareIO.Code(), err.Error(), "")
		return issue.HardwareIO(s.record.Device, name, err)
	}
	return nil
}

// flush dispatches the pending batch as step name.
func (s *session) flush(name string) error {
	return s.step(name, s.pod.Flush)
}

// open resolves the catalogue and device and wraps them in a session.
// On error nothing stays open.
func (c *Controller) open(rec config.ConfParams) (*session, error) {
	uri := config.ResolveEnvironment(rec.ConnectionsFile, c.cfg.LookupEnv)
	c.debugLog("open: resolved catalogue", "uri", uri, "device", rec.Device)

	conns, err := c.cfg.Backend.Connect(uri, c.cfg.Protocols...)
	if err != nil {
		return nil, issue.ConnectionFileMissing(uri, err)
	}
	dev, err := conns.Device(rec.Device)
	if err != nil {
		if errors.Is(err, transport.ErrDeviceNotFound) {
			return nil, issue.DeviceNotFound(rec.Device, err)
		}
		return nil, issue.HardwareIO(rec.Device, StepOpen, err)
	}

	id := uuid.New()
	tr := &log.Tracer{Logger: c.cfg.Trace, SessionID: id.String(), Device: rec.Device, Now: c.cfg.Now}
	return &session{
		id:     id,
		pod:    pod.New(dev, tr),
		record: rec,
		opened: c.cfg.Now(),
		trace:  tr,
	}, nil
}

// configure runs the bring-up sequence on a freshly opened session.
// pattern is nil unless the record selects the internal source.
func (s *session) configure(pattern []uint32) error {
	rec := s.record

	if err := s.step(StepTopology, func() (err error) {
		s.topology, err = s.pod.QueryTopology()
		return err
	}); err != nil {
		return err
	}

	if err := s.step(StepReset, s.pod.Reset); err != nil {
		return err
	}

	if err := s.step(StepFilterEnable, func() error {
		return s.each(s.pod.EnableFilter)
	}); err != nil {
		return err
	}

	if rec.Source == config.SourceInternal {
		if err := s.step(StepSourceSelect, func() error {
			return s.pod.SelectSource(pod.SourcePatternGenerator)
		}); err != nil {
			return err
		}
		if err := s.step(StepPatternLoad, func() error {
			return s.eachLink(func(l int) error { return s.pod.WritePattern(l, pattern) })
		}); err != nil {
			return err
		}
	} else {
		if err := s.step(StepSourceSelect, func() error {
			return s.pod.SelectSource(pod.SourceGBT)
		}); err != nil {
			return err
		}
	}

	if err := s.step(StepSinkSelect, func() error {
		return s.pod.SelectSink(pod.SinkHits)
	}); err != nil {
		return err
	}

	if err := s.step(StepThresholdPrime, func() error {
		return s.each(func(l, st int) error { return s.pod.SetThreshold(l, st, pod.ThresholdSafeHigh) })
	}); err != nil {
		return err
	}

	if err := s.step(StepLinkEnable, func() error {
		return s.eachLink(s.pod.EnableProcessor)
	}); err != nil {
		return err
	}

	if masks, ok := rec.MasksFor(s.topology.Links, s.topology.Streams); ok {
		if err := s.step(StepMaskApply, func() error {
			return s.each(func(l, st int) error {
				return s.pod.SetMask(l, st, masks[l*s.topology.Streams+st])
			})
		}); err != nil {
			return err
		}
	}

	if err := s.step(StepThresholdApply, func() error {
		return s.each(func(l, st int) error { return s.pod.SetThreshold(l, st, rec.Threshold) })
	}); err != nil {
		return err
	}

	if err := s.flush(StepConfDispatch); err != nil {
		return err
	}

	if rec.Source == config.SourceInternal {
		return s.step(StepPatternFire, func() error {
			if err := s.eachLink(s.pod.FirePattern); err != nil {
				return err
			}
			return s.pod.Flush()
		})
	}
	return nil
}

// setGates queues every link's data-ready gate and flushes.
func (s *session) setGates(name string, on bool) error {
	return s.step(name, func() error {
		if err := s.eachLink(func(l int) error { return s.pod.SetDataReady(l, on) }); err != nil {
			return err
		}
		return s.pod.Flush()
	})
}

// setCapture queues every stream's pedestal capture mode and flushes.
func (s *session) setCapture(name string, on bool) error {
	return s.step(name, func() error {
		if err := s.each(func(l, st int) error { return s.pod.SetCapture(l, st, on) }); err != nil {
			return err
		}
		return s.pod.Flush()
	})
}

// calibrate runs pedestal capture with the links' data-ready gates cycled
// around it, then enables the output path.
func (s *session) calibrate(settle time.Duration, sleep func(time.Duration)) error {
	if err := s.setGates(StepGatesOff, false); err != nil {
		return err
	}
	if err := s.setCapture(StepCaptureOn, true); err != nil {
		return err
	}
	if err := s.setGates(StepGatesOn, true); err != nil {
		return err
	}

	sleep(settle)

	if err := s.setCapture(StepCaptureOff, false); err != nil {
		return err
	}
	return s.step(StepOutputEnable, func() error {
		if err := s.pod.EnableOutput(pod.CounterPolicyDisabled); err != nil {
			return err
		}
		return s.pod.Flush()
	})
}
