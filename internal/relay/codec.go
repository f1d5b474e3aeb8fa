package relay

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// WebSocket subprotocols understood by the relay.
const (
	SubprotocolJSON    = "chat-blindado.json"
	SubprotocolMsgpack = "chat-blindado.msgpack"
)

var ErrUnknownCodec = errors.New("unknown codec")

// Codec converts envelopes to and from websocket frames.
type Codec interface {
	// Name is the subprotocol this codec is negotiated with.
	Name() string
	// FrameType is websocket.TextMessage or websocket.BinaryMessage.
	FrameType() int
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return SubprotocolJSON }
func (jsonCodec) FrameType() int                     { return websocket.TextMessage }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type msgpackCodec struct{}

func (msgpackCodec) Name() string                       { return SubprotocolMsgpack }
func (msgpackCodec) FrameType() int                     { return websocket.BinaryMessage }
func (msgpackCodec) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (msgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

var (
	JSON    Codec = jsonCodec{}
	Msgpack Codec = msgpackCodec{}
)

// Subprotocols lists every supported subprotocol in server preference order.
var Subprotocols = []string{SubprotocolJSON, SubprotocolMsgpack}

// CodecFor returns the codec for a negotiated subprotocol. An empty name
// means the client did not ask for one and gets JSON.
func CodecFor(subprotocol string) (Codec, error) {
	switch subprotocol {
	case "", SubprotocolJSON:
		return JSON, nil
	case SubprotocolMsgpack:
		return Msgpack, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, subprotocol)
	}
}
