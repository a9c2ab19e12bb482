package main

import (
	"log"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Manual test client for the notification stream.
func main() {
	url := "ws://localhost:8888/api/v1/ws/5060715466"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			log.Println("read error:", err)
			return
		}

		var msg Message
		if err := json.Unmarshal(p, &msg); err != nil {
			log.Println("unmarshal error:", err)
			continue
		}

		log.Printf("notification: %s %v\n", msg.Type, msg.Payload)
	}
}
