package aoe

// dispatch routes a single dequeued Request to the handler matching its
// Header.Command, builds the reply Header, and sends it back over
// req.Reply. It runs exclusively on the owning Volume's worker
// goroutine, per the core's serial-processing invariant.
//
// A nil Arg means the request's Command was never recognized by
// Header.UnmarshalBinary; dispatch answers it with BADCMD without
// looking at Arg at all. Otherwise the Command and the concrete Arg
// type always agree, since UnmarshalBinary only ever produces one or
// the other together.
func dispatch(v *Volume, req *Request) {
	h := req.Header

	reply := &Header{
		Version: Version,
		Shelf:   h.Shelf,
		Slot:    h.Slot,
		Command: h.Command,
		Tag:     h.Tag,
	}

	if h.Arg == nil {
		reply.FlagError = true
		reply.Error = ErrorUnrecognizedCommandCode
		v.observeRequest(OutcomeError)
		_, _ = req.Reply.Send(reply)
		return
	}

	switch h.Command {
	case CommandIssueATACommand:
		ataReq, ok := h.Arg.(*ATAArg)
		if !ok {
			return
		}

		ataReply, aoeErr, drop := serveATA(v, req.Source, ataReq)
		if drop {
			if v.log != nil {
				v.log.Debug("dropped ATA request", "shelf", v.Shelf, "slot", v.Slot, "source", req.Source)
			}
			v.observeRequest(OutcomeDropped)
			return
		}

		reply.Arg = ataReply
		if aoeErr != 0 {
			reply.FlagError = true
			reply.Error = aoeErr
			v.observeRequest(OutcomeError)
		} else {
			v.observeRequest(OutcomeTransmitted)
		}

	case CommandQueryConfigInformation:
		cfgReq, ok := h.Arg.(*CFGArg)
		if !ok {
			return
		}

		cfgReply, aoeErr, drop := serveCFG(v, req.Source, cfgReq)
		if drop {
			if v.log != nil {
				v.log.Debug("dropped CFG request", "shelf", v.Shelf, "slot", v.Slot, "source", req.Source)
			}
			v.observeRequest(OutcomeDropped)
			return
		}

		reply.Arg = cfgReply
		if aoeErr != 0 {
			reply.FlagError = true
			reply.Error = aoeErr
			v.observeRequest(OutcomeError)
		} else {
			v.observeRequest(OutcomeTransmitted)
		}

	default:
		reply.FlagError = true
		reply.Error = ErrorUnrecognizedCommandCode
		v.observeRequest(OutcomeError)
	}

	_, _ = req.Reply.Send(reply)
}
