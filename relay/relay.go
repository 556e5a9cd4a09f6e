package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shivang17saini/AuraMeet/model"
)

const (
	defaultFwdTimeout = time.Second
)

type (
	// RoomStore tracks room membership for connected clients.
	RoomStore interface {
		Join(roomID, connID string) (prevRoom string, joined bool)
		Leave(connID string) (roomID string, ok bool)
		Room(connID string) (string, bool)
		Members(roomID string) []string
	}

	// Relay brokers all signaling traffic: it assigns each connection an
	// identity, forwards negotiation messages between identities, and fans
	// room-scoped events out to room members. It keeps no state beyond live
	// connections and their membership.
	Relay struct {
		logger zerolog.Logger
		mx     *sync.RWMutex
		conns  map[string]model.Wire
		store  RoomStore
	}

	Config struct {
		Logger *zerolog.Logger
		Store  RoomStore
	}
)

func NewRelay(cfg Config) *Relay {
	return &Relay{
		logger: cfg.Logger.With().Str("component", "relay").Logger(),
		mx:     &sync.RWMutex{},
		conns:  make(map[string]model.Wire),
		store:  cfg.Store,
	}
}

// Connect registers a new connection under a fresh identity, tells the client
// its identity, and starts consuming the connection's inbound events until ctx
// is canceled. The connection belongs to no room until it sends join-room.
func (rl *Relay) Connect(ctx context.Context, wire model.Wire) string {
	id := uuid.NewString()

	rl.mx.Lock()
	rl.conns[id] = wire
	rl.mx.Unlock()

	rl.logger.Debug().Str("id", id).Msg("connection registered")

	send(ctx, model.Marshal(model.EventConnected, id), wire.TX, &rl.logger)
	go rl.consume(ctx, id, wire.RX)
	return id
}

// Disconnect drops the connection's registration and room membership and
// notifies the remaining members of its room, if it had one.
func (rl *Relay) Disconnect(id string) {
	rl.mx.Lock()
	delete(rl.conns, id)
	rl.mx.Unlock()

	roomID, ok := rl.store.Leave(id)
	if !ok {
		rl.logger.Debug().Str("id", id).Msg("connection left without joining a room")
		return
	}
	rl.broadcast(context.Background(), roomID, id, model.Marshal(model.EventUserLeft, id))
	rl.logger.Debug().Str("id", id).Str("roomID", roomID).Msg("connection disconnected")
}

func (rl *Relay) consume(ctx context.Context, id string, rx <-chan model.Event) {
ConsumeLoop:
	for {
		select {
		case <-ctx.Done():
			break ConsumeLoop
		case ev := <-rx:
			rl.dispatch(ctx, id, ev)
		}
	}
}

// dispatch routes one inbound event. Unknown event names and undecodable
// payloads are dropped with a log line, never propagated: one misbehaving
// client must not affect the others.
func (rl *Relay) dispatch(ctx context.Context, id string, ev model.Event) {
	switch ev.Event {
	case model.EventJoinRoom:
		rl.handleJoin(ctx, id, ev.Data)
	case model.EventOffer, model.EventAnswer, model.EventICECandidate:
		rl.handleNegotiation(ctx, id, ev)
	case model.EventMuteStatus:
		rl.handleMuteStatus(ctx, id, ev.Data)
	case model.EventDraw:
		rl.handleDraw(ctx, id, ev.Data)
	case model.EventClear:
		rl.handleClear(ctx, id, ev.Data)
	default:
		rl.logger.Warn().Str("id", id).Str("event", ev.Event).Msg("unknown event dropped")
	}
}

func (rl *Relay) handleJoin(ctx context.Context, id string, data json.RawMessage) {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err != nil {
		rl.logger.Error().Err(err).Str("id", id).Msg("malformed join-room payload dropped")
		return
	}

	prevRoom, joined := rl.store.Join(roomID, id)
	if !joined {
		// already a member, nothing to announce
		return
	}
	if prevRoom != "" {
		rl.broadcast(ctx, prevRoom, id, model.Marshal(model.EventUserLeft, id))
	}
	rl.broadcast(ctx, roomID, id, model.Marshal(model.EventUserJoined, id))
	rl.logger.Debug().Str("id", id).Str("roomID", roomID).Msg("joined room")
}

// handleNegotiation forwards offer/answer/ice-candidate to the target
// identity. Targets are addressed across room boundaries, and a target that is
// no longer connected is an expected race, not an error. The caller field is
// always overwritten with the relay-assigned sender identity so a payload
// cannot impersonate another connection.
func (rl *Relay) handleNegotiation(ctx context.Context, id string, ev model.Event) {
	var neg model.Negotiation
	if err := json.Unmarshal(ev.Data, &neg); err != nil {
		rl.logger.Error().Err(err).Str("id", id).Str("event", ev.Event).
			Msg("malformed negotiation payload dropped")
		return
	}
	if neg.Target == "" {
		rl.logger.Error().Str("id", id).Str("event", ev.Event).
			Msg("negotiation without target dropped")
		return
	}
	neg.Caller = id

	rl.mx.RLock()
	wire, ok := rl.conns[neg.Target]
	rl.mx.RUnlock()
	if !ok {
		rl.logger.Debug().Str("id", id).Str("target", neg.Target).Str("event", ev.Event).
			Msg("cannot forward, target not connected")
		return
	}
	send(ctx, model.Marshal(ev.Event, &neg), wire.TX, &rl.logger)
}

func (rl *Relay) handleMuteStatus(ctx context.Context, id string, data json.RawMessage) {
	var ms model.MuteStatus
	if err := json.Unmarshal(data, &ms); err != nil {
		rl.logger.Error().Err(err).Str("id", id).Msg("malformed mute-status payload dropped")
		return
	}
	roomID, ok := rl.store.Room(id)
	if !ok {
		rl.logger.Debug().Str("id", id).Msg("mute-status from roomless connection dropped")
		return
	}
	rl.broadcast(ctx, roomID, id, model.Marshal(model.EventPeerMute, &model.PeerMuteStatus{
		SocketID: id,
		Muted:    ms.Muted,
	}))
}

// handleDraw fans the stroke out to the room named in the payload, not the
// sender's tracked room. That mirrors the wire protocol, where drawing events
// carry their own room id.
func (rl *Relay) handleDraw(ctx context.Context, id string, data json.RawMessage) {
	var draw model.Draw
	if err := json.Unmarshal(data, &draw); err != nil {
		rl.logger.Error().Err(err).Str("id", id).Msg("malformed whiteboard-draw payload dropped")
		return
	}
	rl.broadcast(ctx, draw.RoomID, id, model.Marshal(model.EventDraw, &draw.Stroke))
}

func (rl *Relay) handleClear(ctx context.Context, id string, data json.RawMessage) {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err != nil {
		rl.logger.Error().Err(err).Str("id", id).Msg("malformed whiteboard-clear payload dropped")
		return
	}
	rl.broadcast(ctx, roomID, id, model.Event{Event: model.EventClear})
}

// broadcast delivers ev to every current member of roomID except the sender.
// The member set is snapshotted atomically; members that disconnect between
// snapshot and delivery are skipped.
func (rl *Relay) broadcast(ctx context.Context, roomID, senderID string, ev model.Event) {
	var sent bool
	for _, memberID := range rl.store.Members(roomID) {
		if memberID == senderID {
			continue
		}
		rl.mx.RLock()
		wire, ok := rl.conns[memberID]
		rl.mx.RUnlock()
		if !ok {
			continue
		}
		delivered, canceled := send(ctx, ev, wire.TX, &rl.logger)
		if canceled {
			return
		}
		if delivered {
			sent = true
		}
	}
	if !sent {
		rl.logger.Debug().
			Str("roomID", roomID).
			Str("event", ev.Event).
			Str("src", senderID).
			Msg("broadcast did not reach anyone")
	}
}

func send(ctx context.Context, ev model.Event, tx chan<- model.Event, logger *zerolog.Logger) (bool, bool) {
	var sent, canceled bool
	tCh := time.NewTimer(defaultFwdTimeout)
	select {
	case <-ctx.Done():
		canceled = true
	case <-tCh.C:
		logger.Error().Str("event", ev.Event).Msg("dead endpoint")
	case tx <- ev:
		sent = true
	}
	tCh.Stop()
	return sent, canceled
}
