package node

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	fieldMsgID     = "msg_id"
	fieldInReplyTo = "in_reply_to"
)

// Message is one line of the protocol. Dst travels as "dest" on the wire.
type Message[P any] struct {
	Src  string
	Dst  string
	Body Body[P]
}

// Body carries the protocol header next to a node-defined payload. The
// payload's fields are flattened into the same JSON object as the header, so
// P must not produce "msg_id" or "in_reply_to" keys.
type Body[P any] struct {
	ID        *uint64
	InReplyTo *uint64
	Payload   P
}

type wireMessage struct {
	Src  string          `json:"src"`
	Dest string          `json:"dest"`
	Body json.RawMessage `json:"body"`
}

func (m Message[P]) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(m.Body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{Src: m.Src, Dest: m.Dst, Body: body})
}

// UnmarshalJSON matches envelope keys exactly, unlike encoding/json's
// case-insensitive struct decoding.
func (m *Message[P]) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	src, err := requiredString(fields, "src")
	if err != nil {
		return err
	}
	dest, err := requiredString(fields, "dest")
	if err != nil {
		return err
	}
	raw, found := fields["body"]
	if !found || isNull(raw) {
		return fmt.Errorf("%w: body", ErrMissingField)
	}

	var body Body[P]
	if err := json.Unmarshal(raw, &body); err != nil {
		return fmt.Errorf("body: %w", err)
	}

	m.Src = src
	m.Dst = dest
	m.Body = body
	return nil
}

func (b Body[P]) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(b.Payload)
	if err != nil {
		return nil, err
	}
	inner, err := payloadFields(payload)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	sep := false
	writeID := func(key string, id *uint64) {
		if id == nil {
			return
		}
		if sep {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(key))
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatUint(*id, 10))
		sep = true
	}
	writeID(fieldMsgID, b.ID)
	writeID(fieldInReplyTo, b.InReplyTo)
	if len(inner) > 0 {
		if sep {
			buf.WriteByte(',')
		}
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON hands P only the fields the header did not claim.
func (b *Body[P]) UnmarshalJSON(data []byte) error {
	if !isObject(data) {
		return ErrPayloadNotObject
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	id, err := optionalID(fields, fieldMsgID)
	if err != nil {
		return err
	}
	inReplyTo, err := optionalID(fields, fieldInReplyTo)
	if err != nil {
		return err
	}
	delete(fields, fieldMsgID)
	delete(fields, fieldInReplyTo)

	rest, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	var payload P
	if err := json.Unmarshal(rest, &payload); err != nil {
		return fmt.Errorf("payload: %w", err)
	}

	b.ID = id
	b.InReplyTo = inReplyTo
	b.Payload = payload
	return nil
}

func requiredString(fields map[string]json.RawMessage, key string) (string, error) {
	raw, found := fields[key]
	if !found || isNull(raw) {
		return "", fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// optionalID treats an absent or null id as unset.
func optionalID(fields map[string]json.RawMessage, key string) (*uint64, error) {
	raw, found := fields[key]
	if !found || isNull(raw) {
		return nil, nil
	}
	var v uint64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &v, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// payloadFields returns the encoded payload object without its braces.
func payloadFields(payload []byte) ([]byte, error) {
	if !isObject(payload) {
		return nil, ErrPayloadNotObject
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}
	for _, key := range []string{fieldMsgID, fieldInReplyTo} {
		if _, found := fields[key]; found {
			return nil, fmt.Errorf("%w: %s", ErrReservedField, key)
		}
	}

	payload = bytes.TrimSpace(payload)
	return bytes.TrimSpace(payload[1 : len(payload)-1]), nil
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) >= 2 && data[0] == '{' && data[len(data)-1] == '}'
}

// PayloadType reads the "type" tag of a raw body. Payload sum types use it to
// pick a variant in their UnmarshalJSON.
func PayloadType(body []byte) (string, error) {
	var tagged struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(body, &tagged); err != nil {
		return "", err
	}
	if tagged.Type == nil {
		return "", fmt.Errorf("%w: type", ErrMissingField)
	}
	return *tagged.Type, nil
}

// messageType best-effort extracts body.type from a raw line for error context.
func messageType(line []byte) string {
	var msg struct {
		Body struct {
			Type string `json:"type"`
		} `json:"body"`
	}
	if err := json.Unmarshal(line, &msg); err != nil {
		return ""
	}
	return msg.Body.Type
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}
