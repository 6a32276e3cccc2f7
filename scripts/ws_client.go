// Package main runs a demo client: it registers a webhook pointing at a
// local sink, tails the notification feed over WebSocket and triggers a
// test event.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Local sink that receives the deliveries
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatal(err)
	}
	sink := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		log.Printf("sink <- event=%v delivery=%s signature=%q", body["event"], r.Header.Get("X-Delivery-ID"), r.Header.Get("X-Webhook-Signature"))
		w.WriteHeader(http.StatusNoContent)
	})}
	go func() { _ = sink.Serve(ln) }()
	sinkURL := "http://" + ln.Addr().String()
	log.Printf("sink listening on %s", sinkURL)

	// Register a webhook for demo.ping
	regBody := []byte(`{"url":"` + sinkURL + `","events":["demo.ping"],"secret":"demo-secret"}`)
	resp, err := http.Post(base+"/v1/webhooks", "application/json", bytes.NewReader(regBody))
	if err != nil {
		log.Fatal(err)
	}
	var wh struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wh); err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()
	log.Printf("webhook registered: %s", wh.ID)

	// Tail the notification feed
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/events/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s", string(msg))
		}
	}()

	// Trigger a test event
	time.Sleep(500 * time.Millisecond)
	trigBody := []byte(`{"event":"demo.ping","data":{"hello":"world"}}`)
	resp, err = http.Post(base+"/v1/events/test", "application/json", bytes.NewReader(trigBody))
	if err != nil {
		log.Fatal(err)
	}
	var trig map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&trig)
	_ = resp.Body.Close()
	log.Printf("triggered event: %s", trig["eventId"])

	// Wait briefly to receive the delivery and its notifications
	select {
	case <-time.After(3 * time.Second):
	case <-done:
	}
}
