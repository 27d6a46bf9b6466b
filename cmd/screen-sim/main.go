package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	ws "nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"skwabl/turns/internal/logging"
	"skwabl/turns/internal/screenws"
	"skwabl/turns/internal/turn"
)

type step struct {
	typ     string
	payload map[string]any
}

// script walks a timer through a turn, an interrupt request and a denial.
var script = []step{
	{"select_duration", map[string]any{"seconds": 60}},
	{"toggle", map[string]any{"who": "A"}},
	{"request", map[string]any{"who": "B"}},
	{"respond", map[string]any{"allow": true}},
	{"request", map[string]any{"who": "A"}},
	{"respond", map[string]any{"allow": false}},
	{"interrupted", map[string]any{"who": "A"}},
	{"toggle", map[string]any{"who": "B"}},
	{"reset", nil},
}

func main() {
	base := flag.String("server", "http://localhost:8080", "turn server base URL")
	roomID := flag.String("room", "", "existing room id (created when empty)")
	token := flag.String("token", "", "screen token for an existing room")
	gap := flag.Duration("gap", 1500*time.Millisecond, "pause between scripted actions")
	timeout := flag.Duration("timeout", 60*time.Second, "overall timeout")
	levels := flag.Bool("levels", false, "print level readings")
	flag.Parse()

	logging.Setup("info", "console")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if *roomID == "" {
		id, tok, err := createRoom(ctx, *base)
		if err != nil {
			log.Fatal().Err(err).Msg("create room")
		}
		*roomID, *token = id, tok
	}

	wsURL, err := screenURL(*base, *roomID, *token)
	if err != nil {
		log.Fatal().Err(err).Msg("build screen url")
	}
	c, _, err := ws.Dial(ctx, wsURL, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("dial screen")
	}
	defer c.Close(ws.StatusNormalClosure, "bye")

	fmt.Printf("=== Screen simulator ===\n")
	fmt.Printf("Room: %s\n\n", *roomID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m screenws.Message
			if err := wsjson.Read(ctx, c, &m); err != nil {
				if ctx.Err() == nil {
					fmt.Printf("\n[ws] read: %v\n", err)
				}
				return
			}
			printMessage(m, *levels)
		}
	}()

	for i, s := range script {
		fmt.Printf("[%d] -> %s %v\n", i+1, s.typ, s.payload)
		raw, _ := json.Marshal(s.payload)
		if err := wsjson.Write(ctx, c, screenws.Message{Type: s.typ, TsMs: time.Now().UnixMilli(), Payload: raw}); err != nil {
			log.Fatal().Err(err).Str("action", s.typ).Msg("send")
		}
		select {
		case <-time.After(*gap):
		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
	fmt.Println("\n[*] Script finished")
}

func createRoom(ctx context.Context, base string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/rooms", bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("create room: status %d", resp.StatusCode)
	}
	var out struct {
		RoomID      string `json:"room_id"`
		ScreenToken string `json:"screen_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", err
	}
	return out.RoomID, out.ScreenToken, nil
}

func screenURL(base, roomID, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/ws/screen")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("room_id", roomID)
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func printMessage(m screenws.Message, levels bool) {
	ts := time.Now().Format("15:04:05.000")
	switch m.Type {
	case screenws.TypeState:
		var v turn.View
		if err := json.Unmarshal(m.Payload, &v); err != nil {
			fmt.Printf("[%s] <- state (undecodable: %v)\n", ts, err)
			return
		}
		pending := "-"
		if v.Pending != turn.None {
			pending = string(v.Pending)
		}
		active := "-"
		if v.Active != turn.None {
			active = string(v.Active)
		}
		fmt.Printf("[%s] <- state #%d A %s (%d tok)  B %s (%d tok)  active=%s pending=%s\n",
			ts, m.Seq, v.ClockA, v.TokensA, v.ClockB, v.TokensB, active, pending)
	case screenws.TypeLevel:
		if levels {
			fmt.Printf("[%s] <- level %s\n", ts, m.Payload)
		}
	default:
		fmt.Printf("[%s] <- %s %s\n", ts, m.Type, m.Payload)
	}
}
