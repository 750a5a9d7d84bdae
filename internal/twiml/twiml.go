// Package twiml generates the call-control documents that instruct the
// telephony gateway to open a media-stream connection to the bridge.
package twiml

import (
	"encoding/xml"
	"net/url"
)

// Response is the subset of TwiML the bridge emits.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Say     []Say    `xml:"Say,omitempty"`
	Connect *Connect `xml:"Connect,omitempty"`
}

type Say struct {
	Text string `xml:",chardata"`
}

type Connect struct {
	Stream Stream `xml:"Stream"`
}

type Stream struct {
	URL string `xml:"url,attr"`
}

const fallbackDocument = xml.Header +
	`<Response><Say>We are sorry, an application error has occurred. Please try your call again later.</Say></Response>`

// StreamURL builds the media-stream WebSocket URL on host, carrying the
// caller prompt percent-encoded and the loopback marker when requested.
func StreamURL(host, prompt string, loopback bool) string {
	q := url.Values{}
	if prompt != "" {
		q.Set("prompt", prompt)
	}
	if loopback {
		q.Set("loop", "1")
	}
	u := url.URL{Scheme: "wss", Host: host, Path: "/media", RawQuery: q.Encode()}
	return u.String()
}

// ConnectStream renders the document that connects the call to the bridge's
// media-stream endpoint. A generation failure yields the fallback apology
// document instead of an error.
func ConnectStream(host, prompt string, loopback bool) string {
	doc := Response{
		Say:     []Say{{Text: "Connecting you now."}},
		Connect: &Connect{Stream: Stream{URL: StreamURL(host, prompt, loopback)}},
	}
	data, err := xml.Marshal(&doc)
	if err != nil {
		return fallbackDocument
	}
	return xml.Header + string(data)
}

// Fallback returns the spoken-apology document.
func Fallback() string {
	return fallbackDocument
}
