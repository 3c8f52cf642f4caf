// Package board loads YAML board descriptions and applies them to a clock
// tree.
//
// A board file names the oscillator configuration, the clocks whose parent,
// rate or enable state is fixed at boot, and the protocol bindings exposed
// on each channel:
//
//	name: sama5d2-xplained
//	soc: sama5d2
//	oscillators:
//	  main_xtal: 12000000
//	assigned:
//	  - clock: prog0
//	    parent: mainck
//	    rate: 4000000
//	bindings:
//	  - channel: 0
//	    table: sama5d2
package board
