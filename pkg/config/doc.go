// Package config defines the configuration record applied by the conf
// command and the decoding of command payloads into it.
//
// Payloads are JSON objects (comments and trailing commas tolerated) or
// YAML documents using the field names of the run-control schema:
//
//	{
//	    "device": "flx-0-p2-hf",
//	    "uhal_log_level": "notice",
//	    "connections_file": "file://${DTPCONTROLS_SHARE}/config/etc/dtp_connections.xml",
//	    "source": "int",
//	    "pattern": "patterns/ramp.txt",
//	    "threshold": 100,
//	    "masks": []
//	}
//
// A record is immutable once decoded. Connection catalogue references may
// embed ${NAME} placeholders; they are resolved against the process
// environment at configure time by ExpandEnv, not at decode time.
package config
