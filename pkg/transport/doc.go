// Package transport defines the register transport the pod controller
// drives, and the connection catalogue that names devices.
//
// The controller never performs bus I/O itself. It talks to a Backend
// through four small interfaces:
//
//	Backend      opens a catalogue for a set of protocols
//	Connections  resolves device identifiers to Devices
//	Device       resolves register paths to Nodes and dispatches
//	Node         queues reads and writes against one register
//
// # Queued Operations
//
// Writes and reads issued on a Node are queued. Nothing reaches the device
// until Device.Dispatch is called; a ValWord returned by Read only carries
// a value after the dispatch that included it. A failed dispatch discards
// the queue.
//
// # Connection Catalogue
//
// Devices are named in an XML connections file:
//
//	<connections>
//	  <connection id="flx-0-p2-hf"
//	              uri="ipbusflx-2.0:///dev/flx0?fw=dtp"
//	              address_table="file://dtp_pod.xml"/>
//	</connections>
//
// Entries whose URI scheme is not one of the requested protocols are not
// visible through Connections.
package transport
