package aoe

import (
	"context"
	"net"
	"time"

	"github.com/mdlayher/ethernet"
	"github.com/mdlayher/raw"
)

// DefaultAdvertiseInterval is used by AdvertiseLoop callers that don't
// configure their own interval.
const DefaultAdvertiseInterval = 60 * time.Second

// AdvertiseLoop periodically broadcasts an unsolicited CFG-read reply
// for every Volume in reg with Advertise set, restoring the original
// driver's behavior of announcing a target's presence without being
// probed first. It is never started by Serve; a caller opts in by
// running it alongside Serve on its own goroutine, matching
// VolumeConfig.Advertise being opt-in at the config layer.
//
// AdvertiseLoop returns when ctx is canceled.
func (s *Server) AdvertiseLoop(ctx context.Context, reg *Registry, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultAdvertiseInterval
	}

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			s.advertiseAll(reg)
		}
	}
}

func (s *Server) advertiseAll(reg *Registry) {
	for _, v := range reg.All() {
		if !v.Advertise {
			continue
		}
		_ = s.advertise(v)
	}
}

// advertise sends a single unsolicited CFG-read reply for v to the
// Ethernet broadcast address, per the original driver's advertise
// behavior.
func (s *Server) advertise(v *Volume) (int, error) {
	cfg := v.cfgString()

	h := &Header{
		Version:      Version,
		FlagResponse: true,
		Shelf:        v.Shelf,
		Slot:         v.Slot,
		Command:      CommandQueryConfigInformation,
		Arg: &CFGArg{
			Version: Version,
			Command: CFGCommandRead,
			DataLen: uint16(len(cfg)),
			Data:    cfg,
		},
	}

	hb, err := h.MarshalBinary()
	if err != nil {
		return 0, err
	}

	f := &ethernet.Frame{
		Destination: ethernet.Broadcast,
		Source:      s.Iface.HardwareAddr,
		EtherType:   EtherType,
		Payload:     hb,
	}

	fb, err := f.MarshalBinary()
	if err != nil {
		return 0, err
	}

	return s.p.WriteTo(fb, &raw.Addr{HardwareAddr: net.HardwareAddr(ethernet.Broadcast)})
}
