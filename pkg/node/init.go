package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	TypeInit   = "init"
	TypeInitOk = "init_ok"
)

// Init assigns the node its identity and the cluster membership, in the
// order the harness chose.
type Init struct {
	NodeID  string   `json:"node_id"`
	NodeIDs []string `json:"node_ids"`
}

// InitPayload is the handshake payload, either init or init_ok. Decoding keeps
// any other tag in Type so the handshake can reject it.
type InitPayload struct {
	Type string
	Init Init
}

func InitOk() InitPayload {
	return InitPayload{Type: TypeInitOk}
}

func (p InitPayload) MarshalJSON() ([]byte, error) {
	switch p.Type {
	case TypeInit:
		return json.Marshal(struct {
			Type string `json:"type"`
			Init
		}{Type: p.Type, Init: p.Init})
	case TypeInitOk:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{Type: p.Type})
	default:
		return nil, fmt.Errorf("unknown init payload type %q", p.Type)
	}
}

func (p *InitPayload) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type    string    `json:"type"`
		NodeID  *string   `json:"node_id"`
		NodeIDs *[]string `json:"node_ids"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*p = InitPayload{Type: wire.Type}
	if wire.Type != TypeInit {
		return nil
	}
	if wire.NodeID == nil {
		return fmt.Errorf("%w: node_id", ErrMissingField)
	}
	if wire.NodeIDs == nil {
		return fmt.Errorf("%w: node_ids", ErrMissingField)
	}
	p.Init = Init{NodeID: *wire.NodeID, NodeIDs: *wire.NodeIDs}
	return nil
}

// Handshake reads the first line from in, which must be an init message, and
// answers it with init_ok before returning. The reply always carries msg_id 0.
func Handshake(in *Decoder, out *Output) (Init, Message[InitPayload], error) {
	msg, err := Decode[InitPayload](in)
	if errors.Is(err, io.EOF) {
		return Init{}, Message[InitPayload]{}, ErrMissingInit
	}
	if err != nil {
		return Init{}, Message[InitPayload]{}, err
	}
	if msg.Body.Payload.Type != TypeInit {
		return Init{}, msg, fmt.Errorf("%w: got type %q", ErrUnexpectedFirstMessage, msg.Body.Payload.Type)
	}

	assigned := msg.Body.Payload.Init
	out.bind(assigned.NodeID)

	reply := Message[InitPayload]{
		Src: msg.Dst,
		Dst: msg.Src,
		Body: Body[InitPayload]{
			ID:        uint64Ptr(0),
			InReplyTo: msg.Body.ID,
			Payload:   InitOk(),
		},
	}
	if err := out.Emit(reply); err != nil {
		return Init{}, msg, err
	}

	return assigned, msg, nil
}
