package aoe

import (
	"errors"
	"log/slog"
	"net"
	"sync"
)

// maxQueueDepth is the soft cap on outstanding requests per volume. An
// enqueue observing a depth greater than maxQueueDepth is rejected.
const maxQueueDepth = 20

// maxNameLen is the maximum length of a Volume's human-readable name.
const maxNameLen = 30

// maxCfgLen is the maximum length of a Volume's config string,
// matching maxCFGData.
const maxCfgLen = maxCFGData

// ErrInUse is returned by Register when a Volume already occupies the
// requested (shelf, slot, ifindex) address.
var ErrInUse = errors.New("aoe: shelf/slot/interface already in use")

// A Volume is one exported block device: a backing Store, its AoE
// address, an access list, a configuration string, and a dedicated
// worker processing its request queue.
type Volume struct {
	Name    string
	Shelf   uint16
	Slot    uint8
	Ifindex int

	// Advertise enables the optional periodic CFG-read broadcast (see
	// advertise.go). It is never set by Register; callers that want it
	// set it directly after registering, since the wire admin protocol
	// has no field for it.
	Advertise bool

	ACL ACL

	store Store

	mu      sync.Mutex // guards cfgData/cfgLen; worker-owned, see setCFG
	cfgData [maxCfgLen]byte
	cfgLen  uint16

	depth int32
	queue chan *Request
	done  chan struct{}
	wg    sync.WaitGroup

	metrics MetricsSink
	log     *slog.Logger
}

// SizeSectors reports the volume's backing file size in 512-byte
// sectors.
func (v *Volume) SizeSectors() uint64 {
	return v.store.SizeSectors()
}

// QueueDepth reports the volume's current number of outstanding
// requests. It is read without locking and is advisory only — it is
// exact at any quiescent point, per the core's invariant, but may be
// observed mid-flight by a concurrent caller such as the status dump.
func (v *Volume) QueueDepth() int {
	return int(loadDepth(v))
}

// A Registry maps (shelf, slot, ifindex) to a live Volume. The zero
// value is ready to use.
//
// Lookup is a reader; Register, Unregister, and Shutdown are writers,
// all behind a single sync.RWMutex, matching the single owned
// container called for by the project's registry redesign notes.
type Registry struct {
	// Metrics and Log are optional observability sinks propagated to
	// every Volume this Registry creates. Either may be left nil, in
	// which case the corresponding observations are simply skipped.
	Metrics MetricsSink
	Log     *slog.Logger

	mu      sync.RWMutex
	volumes []*Volume
}

// conflicts reports whether a volume at (shelf, slot, ifindex) would
// collide with an existing entry: an ifindex of 0 on either side
// matches any ifindex for the same (shelf, slot).
func conflicts(shelf uint16, slot uint8, ifindex int, v *Volume) bool {
	if v.Shelf != shelf || v.Slot != slot {
		return false
	}
	return ifindex == 0 || v.Ifindex == 0 || ifindex == v.Ifindex
}

// Register opens path as a Store, creates a Volume at (shelf, slot,
// ifindex), starts its worker, and publishes it into the Registry.
//
// ifindex of 0 accepts traffic on any interface. readOnly controls
// whether the backing store may be written.
func (r *Registry) Register(name string, shelf uint16, slot uint8, ifindex int, path string, readOnly bool) (*Volume, error) {
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range r.volumes {
		if conflicts(shelf, slot, ifindex, v) {
			return nil, ErrInUse
		}
	}

	store, err := OpenStore(path, readOnly)
	if err != nil {
		return nil, err
	}

	v := &Volume{
		Name:    name,
		Shelf:   shelf,
		Slot:    slot,
		Ifindex: ifindex,
		store:   store,
		queue:   make(chan *Request, maxQueueDepth),
		done:    make(chan struct{}),
		metrics: r.Metrics,
		log:     r.Log,
	}
	cfgSeed := path
	if len(cfgSeed) > maxCfgLen {
		cfgSeed = cfgSeed[:maxCfgLen]
	}
	for i := range v.cfgData {
		v.cfgData[i] = 0xff
	}
	copy(v.cfgData[:], cfgSeed)
	v.cfgLen = uint16(len(cfgSeed))

	v.wg.Add(1)
	go v.run()

	r.volumes = append(r.volumes, v)

	if r.Log != nil {
		r.Log.Info("volume registered", "name", name, "shelf", shelf, "slot", slot, "ifindex", ifindex, "read_only", readOnly)
	}
	return v, nil
}

// Unregister removes the volume at (shelf, slot, ifindex), drains and
// stops its worker, and closes its backing store.
//
// The volume is removed from the registry before its queue is
// drained, so no new request can reach it once Unregister begins.
func (r *Registry) Unregister(shelf uint16, slot uint8, ifindex int) error {
	r.mu.Lock()
	var removed *Volume
	for i, v := range r.volumes {
		if v.Shelf == shelf && v.Slot == slot && v.Ifindex == ifindex {
			removed = v
			r.volumes = append(r.volumes[:i], r.volumes[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if removed == nil {
		return errors.New("aoe: no matching volume")
	}

	removed.stop()
	if r.Log != nil {
		r.Log.Info("volume unregistered", "name", removed.Name, "shelf", shelf, "slot", slot, "ifindex", ifindex)
	}
	return removed.store.Close()
}

// Lookup returns the volume matching (shelf, slot), restricted to
// ifindex when ifindex is non-zero on both the volume and the
// request, or nil if none match.
//
// On the Receive Path, ifindex is always the arrival interface. Admin
// callers may pass 0 to match any interface.
func (r *Registry) Lookup(shelf uint16, slot uint8, ifindex int) *Volume {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.volumes {
		if v.Shelf != shelf || v.Slot != slot {
			continue
		}
		if v.Ifindex == 0 || ifindex == 0 || v.Ifindex == ifindex {
			return v
		}
	}
	return nil
}

// Broadcast returns every volume eligible to receive a broadcast
// probe arriving on ifindex: those with Ifindex 0 or matching ifindex.
func (r *Registry) Broadcast(ifindex int) []*Volume {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Volume
	for _, v := range r.volumes {
		if v.Ifindex == 0 || v.Ifindex == ifindex {
			out = append(out, v)
		}
	}
	return out
}

// All returns a snapshot of every live volume, for use by the status
// surface and metrics collector.
func (r *Registry) All() []*Volume {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Volume, len(r.volumes))
	copy(out, r.volumes)
	return out
}

// Shutdown drains and removes every volume from the registry.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	all := r.volumes
	r.volumes = nil
	r.mu.Unlock()

	for _, v := range all {
		v.stop()
		v.store.Close()
	}
}

// AddMask adds mac to the ACL of the volume at (shelf, slot).
func (r *Registry) AddMask(shelf uint16, slot uint8, mac net.HardwareAddr) error {
	v := r.Lookup(shelf, slot, 0)
	if v == nil {
		return errors.New("aoe: no matching volume")
	}
	v.ACL.Add(mac)
	return nil
}

// RemoveMask removes mac from the ACL of the volume at (shelf, slot).
func (r *Registry) RemoveMask(shelf uint16, slot uint8, mac net.HardwareAddr) error {
	v := r.Lookup(shelf, slot, 0)
	if v == nil {
		return errors.New("aoe: no matching volume")
	}
	v.ACL.Remove(mac)
	return nil
}
