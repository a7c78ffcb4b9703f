// Package metrics exports controller activity to Prometheus.
//
// An Exporter implements controller.Observer. Wire it into
// controller.Config.Observer and serve Handler (or call Start) to expose:
//
//	dtpctrl_build_info{version,interface}
//	dtpctrl_commands_total{command,outcome}
//	dtpctrl_command_duration_seconds{command}
//	dtpctrl_state{state}                      1 for the current state
//	dtpctrl_transitions_total{from,to}
//	dtpctrl_stream_packets{link,stream}       last get_info counter
//	dtpctrl_stream_threshold{link,stream}     last get_info threshold
//	dtpctrl_snapshots_total
//	dtpctrl_snapshot_errors_total
package metrics
