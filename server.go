package aoe

import (
	"io"
	"net"
	"syscall"

	"github.com/mdlayher/ethernet"
	"github.com/mdlayher/raw"
)

// maxFrameLen is the largest Ethernet frame this package will read,
// matching a standard MTU with headroom for the AoE header and two
// 512-byte sectors.
const maxFrameLen = 1514

// A Server runs the Receive Path (§4.6) for a single network
// interface: it reads raw Ethernet frames carrying EtherType
// EtherType, demultiplexes them against a Registry, and enqueues a
// Request onto the target Volume's work queue. It never blocks on
// backing-store I/O itself; all of that happens on the volumes'
// worker goroutines.
type Server struct {
	Iface    *net.Interface
	Registry *Registry

	// Ifindex is the interface index recorded against enqueued
	// Requests, used to match a Volume's Ifindex restriction. It
	// defaults to Iface.Index when zero.
	Ifindex int

	p net.PacketConn
}

// ListenAndServe opens a raw AoE socket on the named interface and
// serves it against reg until an unrecoverable read error occurs.
func ListenAndServe(iface string, reg *Registry) error {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return err
	}

	return (&Server{
		Iface:    ifi,
		Registry: reg,
	}).ListenAndServe()
}

// ListenAndServe opens s.Iface as a raw AoE socket and calls Serve.
func (s *Server) ListenAndServe() error {
	p, err := raw.ListenPacket(s.Iface, syscall.ETH_P_AOE)
	if err != nil {
		return err
	}

	return s.Serve(p)
}

// Serve runs the Receive Path against an already-open packet
// connection, reading frames until p returns io.EOF (a clean exit) or
// another error (returned to the caller).
func (s *Server) Serve(p net.PacketConn) error {
	s.p = p
	defer p.Close()

	ifindex := s.Ifindex
	if ifindex == 0 {
		ifindex = s.Iface.Index
	}

	buf := make([]byte, maxFrameLen)
	for {
		n, addr, err := s.p.ReadFrom(buf)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		raddr, ok := addr.(*raw.Addr)
		if !ok {
			continue
		}

		// Linearize and clone: buf is reused by the next ReadFrom, so
		// the frame must be copied before it outlives this iteration.
		frame := make([]byte, n)
		copy(frame, buf[:n])

		s.receive(frame, raddr, ifindex)
	}
}

// receive implements Receive Path steps 2-6 of §4.6 for a single
// linearized, cloned frame.
func (s *Server) receive(frame []byte, source *raw.Addr, ifindex int) {
	f := new(ethernet.Frame)
	if err := f.UnmarshalBinary(frame); err != nil {
		return
	}
	if f.EtherType != EtherType {
		return
	}

	h := new(Header)
	if err := h.UnmarshalBinary(f.Payload); err != nil {
		return
	}
	if h.FlagResponse {
		return
	}

	reply := &response{
		s:          s,
		localAddr:  s.Iface.HardwareAddr,
		remoteAddr: source,
	}

	if h.Shelf == BroadcastShelf && h.Slot == BroadcastSlot {
		for _, v := range s.Registry.Broadcast(ifindex) {
			v.Enqueue(&Request{
				Volume: v,
				Source: f.Source,
				Header: h,
				Reply:  reply,
			})
		}
		return
	}

	v := s.Registry.Lookup(h.Shelf, h.Slot, ifindex)
	if v == nil {
		return
	}

	v.Enqueue(&Request{
		Volume: v,
		Source: f.Source,
		Header: h,
		Reply:  reply,
	})
}

// response implements ResponseSender by marshaling a reply Header,
// wrapping it in an Ethernet frame addressed back to the request's
// source, and writing it to the Server's packet connection.
type response struct {
	s *Server

	localAddr  net.HardwareAddr
	remoteAddr *raw.Addr
}

// Send marshals h and transmits it on the interface the originating
// request arrived on. Outbound traffic is always marked as a
// response.
func (w *response) Send(h *Header) (int, error) {
	h.Version = Version
	h.FlagResponse = true
	if h.Error != 0 {
		h.FlagError = true
	}

	hb, err := h.MarshalBinary()
	if err != nil {
		return 0, err
	}

	f := &ethernet.Frame{
		Destination: w.remoteAddr.HardwareAddr,
		Source:      w.localAddr,
		EtherType:   EtherType,
		Payload:     hb,
	}

	fb, err := f.MarshalBinary()
	if err != nil {
		return 0, err
	}

	return w.s.p.WriteTo(fb, w.remoteAddr)
}
