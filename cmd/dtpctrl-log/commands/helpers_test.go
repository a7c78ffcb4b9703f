package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
)

const testSession = "6f1c2a9e-0d4b-4c8e-a1f2-5b7d9e3c4a10"

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.dlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

// bringUp is a short conf/start trace for one session.
func bringUp() []log.Event {
	ts := time.Date(2026, 3, 4, 10, 15, 32, 0, time.UTC)
	at := func(ms int) time.Time { return ts.Add(time.Duration(ms) * time.Millisecond) }
	return []log.Event{
		{Timestamp: at(0), SessionID: testSession, Device: "flx-0-p2-hf", Category: log.CategoryRegister, Step: "reset",
			Register: &log.RegisterEvent{Access: log.AccessWrite, Path: "ctrl.reset", Value: 1}},
		{Timestamp: at(1), SessionID: testSession, Device: "flx-0-p2-hf", Category: log.CategoryRegister, Step: "topology",
			Register: &log.RegisterEvent{Access: log.AccessRead, Path: "info.n_links"}},
		{Timestamp: at(2), SessionID: testSession, Device: "flx-0-p2-hf", Category: log.CategoryDispatch, Step: "topology",
			Dispatch: &log.DispatchEvent{Ops: 2, Duration: 300 * time.Microsecond}},
		{Timestamp: at(3), SessionID: testSession, Device: "flx-0-p2-hf", Category: log.CategoryRegister, Step: "link-enable",
			Register: &log.RegisterEvent{Access: log.AccessWrite, Path: "link0.processor.en", Value: 1}},
		{Timestamp: at(4), SessionID: testSession, Device: "flx-0-p2-hf", Category: log.CategoryDispatch, Step: "conf.dispatch",
			Dispatch: &log.DispatchEvent{Ops: 12, Duration: 2 * time.Millisecond, Failed: true}},
		{Timestamp: at(5), SessionID: testSession, Device: "flx-0-p2-hf", Category: log.CategoryError, Step: "conf.dispatch",
			Error: &log.ErrorEventData{Code: "hardware_io", Message: "bus timeout"}},
		{Timestamp: at(6), Category: log.CategoryCommand,
			Command: &log.CommandEvent{Name: "conf", Duration: 5 * time.Millisecond, Outcome: "hardware_io"}},
		{Timestamp: at(7), SessionID: testSession, Device: "flx-0-p2-hf", Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{OldState: "UNCONFIGURED", NewState: "CONFIGURED", Reason: "conf"}},
		{Timestamp: at(8), SessionID: testSession, Device: "flx-0-p2-hf", Category: log.CategoryCommand,
			Command: &log.CommandEvent{Name: "conf", Duration: 4 * time.Millisecond, Outcome: "ok"}},
	}
}
