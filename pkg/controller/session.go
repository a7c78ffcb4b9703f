package controller

import (
	"time"

	"github.com/google/uuid"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/config"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/pod"
)

// session is the open device plus everything learned while configuring it.
type session struct {
	id       uuid.UUID
	pod      *pod.Pod
	topology pod.Topology
	record   config.ConfParams
	opened   time.Time
	trace    *log.Tracer
}

// SessionInfo describes the open session.
type SessionInfo struct {
	ID       string            `json:"id"`
	Device   string            `json:"device"`
	Opened   time.Time         `json:"opened"`
	Topology pod.Topology      `json:"topology"`
	Record   config.ConfParams `json:"record"`
}

func (s *session) info() SessionInfo {
	return SessionInfo{
		ID:       s.id.String(),
		Device:   s.record.Device,
		Opened:   s.opened,
		Topology: s.topology,
		Record:   s.record,
	}
}

// each calls fn for every (link, stream) in row-major order.
func (s *session) each(fn func(link, stream int) error) error {
	for l := 0; l < s.topology.Links; l++ {
		for st := 0; st < s.topology.Streams; st++ {
			if err := fn(l, st); err != nil {
				return err
			}
		}
	}
	return nil
}

// eachLink calls fn for every link.
func (s *session) eachLink(fn func(link int) error) error {
	for l := 0; l < s.topology.Links; l++ {
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}
