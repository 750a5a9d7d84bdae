// mediaclient is a manual test client that speaks the media-stream protocol
// against a running bridge. It is meant for exercising loopback mode:
// connect, send start and a few media frames, print what comes back, stop.
package main

import (
	"encoding/base64"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/telvoice/bridge/internal/telephony"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "bridge address")
	loop := flag.Bool("loop", true, "request loopback mode")
	prompt := flag.String("prompt", "", "initial caller message")
	frames := flag.Int("frames", 5, "number of media frames to send")
	flag.Parse()

	q := url.Values{}
	if *loop {
		q.Set("loop", "1")
	}
	if *prompt != "" {
		q.Set("prompt", *prompt)
	}
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/media", RawQuery: q.Encode()}
	log.Printf("connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read everything the bridge sends back.
	go func() {
		defer close(done)
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				log.Println("read:", err)
				return
			}
			ev, ok := telephony.Decode(data)
			if !ok {
				log.Printf("skipping frame: %s", data)
				continue
			}
			if ev.Event == telephony.EventMedia && ev.Media != nil {
				log.Printf("media back: streamSid=%s payload=%s", ev.StreamSid, ev.Media.Payload)
			}
		}
	}()

	start := telephony.Event{
		Event: telephony.EventStart,
		Start: &telephony.StartPayload{StreamSid: "MZlocaltest"},
	}
	if err := writeEvent(c, &start); err != nil {
		log.Fatal("start:", err)
	}

	for i := 0; i < *frames; i++ {
		payload := base64.StdEncoding.EncodeToString([]byte{0xFF, byte(i)})
		ev := telephony.Event{
			Event: telephony.EventMedia,
			Media: &telephony.MediaPayload{Payload: payload},
		}
		if err := writeEvent(c, &ev); err != nil {
			log.Fatal("media:", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	select {
	case <-time.After(500 * time.Millisecond):
	case <-interrupt:
		log.Println("interrupt")
	}

	stop := telephony.Event{Event: telephony.EventStop}
	if err := writeEvent(c, &stop); err != nil {
		log.Println("stop:", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

func writeEvent(c *websocket.Conn, ev *telephony.Event) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, data)
}
