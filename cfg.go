package aoe

import (
	"bytes"
	"net"
)

// cfgQueueLen and cfgFirmware are the fixed values this target reports
// in every CFG reply: a queue length matching maxQueueDepth, and an
// arbitrary firmware version.
const (
	cfgQueueLen uint16 = maxQueueDepth
	cfgFirmware uint16 = 0x4000
)

// serveCFG runs the CFG sub-command state machine against v's
// configuration string, per spec §4.8. It returns the reply Arg and
// an AoE-level error (zero if none), or reports drop == true when the
// request must be silently discarded: an ACL denial, or a non-matching
// EXACT/PREFIX test.
func serveCFG(v *Volume, source net.HardwareAddr, req *CFGArg) (reply *CFGArg, aoeErr Error, drop bool) {
	if !v.ACL.Check(source) {
		return nil, 0, true
	}

	out := &CFGArg{
		QueueLen: cfgQueueLen,
		Firmware: cfgFirmware,
		Version:  Version,
		Command:  req.Command,
	}

	current := v.cfgString()

	switch req.Command {
	case CFGCommandRead:
		out.Data = current
		out.DataLen = uint16(len(current))
		return out, 0, false

	case CFGCommandTest:
		if !bytes.Equal(req.Data, current) {
			return nil, 0, true
		}
		out.Data = current
		out.DataLen = uint16(len(current))
		return out, 0, false

	case CFGCommandTestPrefix:
		if len(req.Data) > len(current) || !bytes.Equal(req.Data, current[:len(req.Data)]) {
			return nil, 0, true
		}
		out.Data = current
		out.DataLen = uint16(len(current))
		return out, 0, false

	case CFGCommandSet:
		if len(current) != 0 || len(req.Data) > maxCFGData {
			return out, ErrorConfigStringPresent, false
		}
		v.setCFG(req.Data)
		return out, 0, false

	case CFGCommandForceSet:
		if len(req.Data) > maxCFGData {
			return out, ErrorBadArgumentParameter, false
		}
		v.setCFG(req.Data)
		return out, 0, false

	default:
		return out, ErrorUnrecognizedCommandCode, false
	}
}
