// Package discovery implements mDNS/DNS-SD discovery for clock daemons.
//
// A daemon advertises one instance of the _clkd._tcp service per process.
// The instance name defaults to "clkd-<board>". TXT records carry the SoC
// (soc), board name (board), protocol vendor (vendor), clock protocol
// version (ver, hex) and the comma-separated list of bound channels (ch).
//
// Agents browse the service type and connect to the advertised port with
// the framed transport in package transport.
package discovery
