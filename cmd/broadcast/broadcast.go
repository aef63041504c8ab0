package main

import (
	"slices"

	"github.com/dostini/dist-sys-runtime/pkg/atomicmap"
	"github.com/dostini/dist-sys-runtime/pkg/node"
	maelstrom "github.com/jepsen-io/maelstrom/demo/go"
	"github.com/rs/zerolog"
)

// payload covers every message a broadcast node receives, including the
// broadcast_ok acks for values it relayed itself.
type payload struct {
	Type     string              `json:"type"`
	Message  *int                `json:"message,omitempty"`
	Topology map[string][]string `json:"topology,omitempty"`
}

type readResponse struct {
	Type     string `json:"type"`
	Messages []int  `json:"messages"`
}

func newReadResponse(data []int) readResponse {
	return readResponse{
		Type:     "read_ok",
		Messages: data,
	}
}

// relay is a broadcast this node forwarded and has not seen acknowledged.
type relay struct {
	neighbour string
	value     int
}

type broadcastNode struct {
	id         string
	neighbours []string
	seen       *atomicmap.AtomicMap[int, struct{}]
	pending    *atomicmap.AtomicMap[uint64, relay]
	log        zerolog.Logger
}

// newBroadcastNode starts with every other cluster member as a neighbour until
// a topology message says otherwise.
func newBroadcastNode(logger zerolog.Logger, cluster node.Init) (node.Node[payload], error) {
	neighbours := slices.DeleteFunc(slices.Clone(cluster.NodeIDs), func(id string) bool {
		return id == cluster.NodeID
	})

	return &broadcastNode{
		id:         cluster.NodeID,
		neighbours: neighbours,
		seen:       atomicmap.NewAtomicMap[int, struct{}](),
		pending:    atomicmap.NewAtomicMap[uint64, relay](),
		log:        logger.With().Str("node", cluster.NodeID).Logger(),
	}, nil
}

func (n *broadcastNode) Step(msg node.Message[payload], out *node.Output) error {
	switch msg.Body.Payload.Type {
	case "broadcast":
		return n.broadcast(msg, out)
	case "broadcast_ok":
		n.acknowledge(msg)
		return nil
	case "read":
		return node.Reply(out, msg, newReadResponse(n.seen.Keys()))
	case "topology":
		if neighbours, found := msg.Body.Payload.Topology[n.id]; found {
			n.neighbours = neighbours
			n.log.Info().Strs("neighbours", neighbours).Msg("topology updated")
		}
		return node.Reply(out, msg, map[string]string{"type": "topology_ok"})
	default:
		return node.ReplyError(out, msg, node.NotSupported(msg.Body.Payload.Type))
	}
}

func (n *broadcastNode) broadcast(msg node.Message[payload], out *node.Output) error {
	if msg.Body.Payload.Message == nil {
		return node.ReplyError(out, msg, maelstrom.NewRPCError(maelstrom.MalformedRequest, "broadcast without message"))
	}
	value := *msg.Body.Payload.Message

	if n.seen.SetIfAbsent(value, struct{}{}) {
		for _, neighbour := range n.neighbours {
			if neighbour == msg.Src {
				continue
			}
			id, err := node.Send(out, neighbour, payload{Type: "broadcast", Message: &value})
			if err != nil {
				return err
			}
			n.pending.Set(id, relay{neighbour: neighbour, value: value})
		}
	}

	return node.Reply(out, msg, map[string]string{"type": "broadcast_ok"})
}

func (n *broadcastNode) acknowledge(msg node.Message[payload]) {
	if msg.Body.InReplyTo == nil {
		return
	}
	id := *msg.Body.InReplyTo

	r, found := n.pending.Get(id)
	if !found || r.neighbour != msg.Src {
		n.log.Debug().Uint64("in_reply_to", id).Str("src", msg.Src).Msg("ack for unknown relay")
		return
	}
	n.pending.Delete(id)
	n.log.Debug().
		Int("value", r.value).
		Str("neighbour", r.neighbour).
		Int("pending", n.pending.Len()).
		Msg("relay acknowledged")
}
