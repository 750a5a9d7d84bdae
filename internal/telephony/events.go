// Package telephony defines the JSON envelopes spoken on a Twilio Media
// Streams connection and the decode-or-skip parsing the bridge relies on.
package telephony

import "github.com/bytedance/sonic"

// Event names seen on a media-stream connection. The gateway also emits
// bookkeeping events (connected, mark) that carry no audio.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventStop      = "stop"
	EventMark      = "mark"
)

// Event is one frame on the media-stream connection, inbound or outbound.
type Event struct {
	Event     string        `json:"event"`
	StreamSid string        `json:"streamSid,omitempty"`
	Start     *StartPayload `json:"start,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
}

// StartPayload identifies the media stream at call start. StreamSid is the
// token every outbound media frame must be addressed with.
type StartPayload struct {
	StreamSid  string `json:"streamSid"`
	AccountSid string `json:"accountSid,omitempty"`
	CallSid    string `json:"callSid,omitempty"`
}

// MediaPayload carries one audio chunk. The payload encoding is opaque to
// the bridge.
type MediaPayload struct {
	Payload string `json:"payload"`
}

// Decode parses an inbound frame. A frame that is not valid JSON or carries
// no event tag yields no event; that is not an error.
func Decode(data []byte) (*Event, bool) {
	var ev Event
	if err := sonic.Unmarshal(data, &ev); err != nil {
		return nil, false
	}
	if ev.Event == "" {
		return nil, false
	}
	return &ev, true
}

// MediaFrame encodes an outbound media frame addressed to streamSid.
func MediaFrame(streamSid, payload string) ([]byte, error) {
	return sonic.Marshal(&Event{
		Event:     EventMedia,
		StreamSid: streamSid,
		Media:     &MediaPayload{Payload: payload},
	})
}
