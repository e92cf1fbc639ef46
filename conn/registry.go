package conn

import "github.com/mongowire/mongowire/wire"

// ReplyCallback is invoked once per reply correlated to a request. reply is
// nil when the request could not be completed (disconnect, protocol error).
type ReplyCallback func(reply *wire.Reply)

// pendingCallback is a Pending Callback entry (spec §3): the request ID
// expected in the server's responseTo, the function to invoke, and whatever
// state the caller closed over instead of an opaque void* (idiomatic Go has
// no need for the userdata pointer the C core threads through everything).
type pendingCallback struct {
	requestID int32
	fn        ReplyCallback
}

// callbackRegistry maps request-ID to its Pending Callback (spec §3
// "Callback Registry" / design notes: "the clean model is the third [of
// three historical mechanisms]: a mapping from request-ID to pending
// callback... Pub/sub has no meaning in MongoDB; drop the sub-dict
// entirely"). Keyed directly by the int32 request ID reinterpreted as
// uint32, never by a pointer-derived hash (design notes open question).
type callbackRegistry struct {
	byID  map[uint32]*pendingCallback
	order []uint32 // insertion order, for deterministic drain on disconnect
}

func newCallbackRegistry() *callbackRegistry {
	return &callbackRegistry{byID: make(map[uint32]*pendingCallback)}
}

func (r *callbackRegistry) register(requestID int32, fn ReplyCallback) {
	id := uint32(requestID)
	if _, exists := r.byID[id]; !exists {
		r.order = append(r.order, id)
	}
	r.byID[id] = &pendingCallback{requestID: requestID, fn: fn}
}

func (r *callbackRegistry) lookup(responseTo int32) (*pendingCallback, bool) {
	cb, ok := r.byID[uint32(responseTo)]
	return cb, ok
}

// registryCompactThreshold bounds how far order is allowed to drift ahead
// of byID before remove triggers a compaction pass, the same amortized
// housekeeping shape as wire.Reader's own compactThreshold.
const registryCompactThreshold = 64

func (r *callbackRegistry) remove(requestID int32) {
	delete(r.byID, uint32(requestID))
	if len(r.order)-len(r.byID) < registryCompactThreshold {
		return
	}
	live := r.order[:0]
	for _, id := range r.order {
		if _, ok := r.byID[id]; ok {
			live = append(live, id)
		}
	}
	r.order = live
}

func (r *callbackRegistry) len() int { return len(r.byID) }

// drain invokes every still-registered callback with a nil reply in the
// order they were originally registered, then empties the registry. Used
// for the hard-disconnect path (spec §4.5 "Disconnection" / Testable
// Property 7 / Seed E).
func (r *callbackRegistry) drain() {
	order := r.order
	r.order = nil
	for _, id := range order {
		cb, ok := r.byID[id]
		if !ok {
			continue
		}
		delete(r.byID, id)
		cb.fn(nil)
	}
}
