package openai

import "github.com/bytedance/sonic"

// Client event types sent to the realtime endpoint.
const (
	TypeSessionUpdate  = "session.update"
	TypeAudioAppend    = "input_audio_buffer.append"
	TypeResponseCreate = "response.create"
)

// Server event types received from the realtime endpoint. The bridge relays
// only the audio delta; every other type is ignored.
const (
	TypeResponseAudioDelta = "response.audio.delta"
)

// SessionUpdate declares the session parameters: audio format on both legs,
// voice, turn detection, and the agent instructions.
type SessionUpdate struct {
	Type    string  `json:"type"`
	Session Session `json:"session"`
}

type Session struct {
	TurnDetection     *TurnDetection `json:"turn_detection,omitempty"`
	InputAudioFormat  string         `json:"input_audio_format,omitempty"`
	OutputAudioFormat string         `json:"output_audio_format,omitempty"`
	Voice             string         `json:"voice,omitempty"`
	Instructions      string         `json:"instructions,omitempty"`
	Modalities        []string       `json:"modalities,omitempty"`
	Temperature       float64        `json:"temperature,omitempty"`
}

type TurnDetection struct {
	Type string `json:"type"`
}

// ResponseCreate asks the backend to produce a reply.
type ResponseCreate struct {
	Type     string   `json:"type"`
	Response Response `json:"response"`
}

type Response struct {
	Modalities   []string `json:"modalities,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
}

// AudioAppend carries one caller audio chunk toward the backend.
type AudioAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

// ServerEvent is the envelope of one inbound backend frame. Delta is set on
// response.audio.delta events and carries the synthesized audio chunk.
type ServerEvent struct {
	Type  string `json:"type"`
	Delta string `json:"delta,omitempty"`
}

// EncodeAudioAppend encodes the append message for one caller audio chunk.
func EncodeAudioAppend(payload string) ([]byte, error) {
	return sonic.Marshal(&AudioAppend{Type: TypeAudioAppend, Audio: payload})
}

// DecodeServerEvent parses an inbound backend frame. Frames that are not
// valid JSON or carry no type tag are skipped, not errors.
func DecodeServerEvent(data []byte) (*ServerEvent, bool) {
	var ev ServerEvent
	if err := sonic.Unmarshal(data, &ev); err != nil {
		return nil, false
	}
	if ev.Type == "" {
		return nil, false
	}
	return &ev, true
}
