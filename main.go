package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"LocalCanvas/internal/export"
	"LocalCanvas/internal/gesture"
	lcnet "LocalCanvas/internal/net"
	"LocalCanvas/internal/presence"
	"LocalCanvas/internal/state"
	"LocalCanvas/internal/ui"
)

const (
	CustomURLScheme = "localcanvas://"
	Port            = 8888
)

// session bundles one client's replicated document, presence bus, and
// gesture wiring. Host and client build the same session; only the
// transport behind it differs.
type session struct {
	clientID  string
	doc       *state.Document
	bus       *presence.Bus
	env       *gesture.Env
	selection *presence.Channel[presence.Selection]
}

func newSession(clientID string) *session {
	doc := state.NewDocument(clientID)
	bus := presence.NewBus(clientID)
	drag := presence.NewChannel[presence.DragState](bus, presence.TopicDrag)
	resize := presence.NewChannel[presence.ResizeState](bus, presence.TopicResize)
	selection := presence.NewChannel[presence.Selection](bus, presence.TopicSelect)

	cache := state.NewLayoutCache()
	resolver := &state.Resolver{Doc: doc, Drag: drag, Resize: resize, Cache: cache}

	env := &gesture.Env{
		Session:    gesture.NewSession(),
		Arbiter:    gesture.NewArbiter(),
		Doc:        doc,
		Resolver:   resolver,
		Reconciler: &state.Reconciler{Doc: doc},
		Drag:       drag,
		Resize:     resize,
		Branch:     "main",
	}

	return &session{
		clientID:  clientID,
		doc:       doc,
		bus:       bus,
		env:       env,
		selection: selection,
	}
}

// handleTransport applies one incoming message to local state. Called
// from transport goroutines; document and bus are safe for that.
func (s *session) handleTransport(msg lcnet.Message) {
	switch msg.Type {
	case lcnet.MsgPresence:
		s.bus.HandleRemote(presence.Envelope{
			Topic:    msg.Topic,
			ClientID: msg.ClientID,
			Payload:  msg.Payload,
			Clear:    msg.Clear,
		})
	case lcnet.MsgOp:
		var op state.Op
		if err := json.Unmarshal(msg.Payload, &op); err != nil {
			log.Printf("[MAIN] bad op payload: %v", err)
			return
		}
		s.doc.ApplyRemote(op)
	case lcnet.MsgClientGone:
		s.bus.DropClient(msg.ClientID)
	case lcnet.MsgSnapshot:
		if err := s.doc.LoadSnapshot(msg.Payload); err != nil {
			log.Printf("[MAIN] snapshot rejected: %v", err)
		}
	}
}

func (s *session) exportPDF(w io.Writer) error {
	return export.ExportPDF(w, s.doc)
}

func main() {
	args := os.Args
	if len(args) > 1 && strings.HasPrefix(args[1], CustomURLScheme) {
		runClient(args[1])
	} else {
		runHost()
	}
}

func runHost() {
	log.Println("Starting as HOST")
	clientID := "host-" + uuid.NewString()[:8]
	s := newSession(clientID)

	hub := lcnet.NewHub()
	hub.Snapshot = s.doc.SnapshotJSON
	hub.OnMessage = s.handleTransport

	s.doc.OnLocalOp = func(op state.Op) {
		payload, err := json.Marshal(op)
		if err != nil {
			log.Printf("[MAIN] marshal op: %v", err)
			return
		}
		hub.Broadcast(lcnet.Message{Type: lcnet.MsgOp, ClientID: clientID, Payload: payload})
	}
	s.bus.Send = func(env presence.Envelope) {
		hub.Broadcast(lcnet.Message{
			Type:     lcnet.MsgPresence,
			Topic:    env.Topic,
			ClientID: env.ClientID,
			Payload:  env.Payload,
			Clear:    env.Clear,
		})
	}

	go func() {
		if err := hub.ListenAndServe(Port); err != nil {
			log.Fatalf("host server failed: %v", err)
		}
	}()

	if mdnsServer, err := lcnet.Advertise(Port); err != nil {
		log.Printf("[MAIN] mDNS advertise failed, share link only: %v", err)
	} else {
		defer mdnsServer.Shutdown()
	}

	share := ""
	if ip, err := lcnet.OutgoingIP(); err == nil {
		share = fmt.Sprintf("%s:%d", ip, Port)
	}

	ui.RunApp(ui.AppConfig{
		Title:     "LocalCanvas (host)",
		ShareAddr: share,
		Env:       s.env,
		Selection: s.selection,
		Export:    s.exportPDF,
	})
}

func runClient(link string) {
	log.Println("Starting as CLIENT")
	addr := strings.TrimSuffix(strings.TrimPrefix(link, CustomURLScheme), "/")
	clientID := uuid.NewString()[:8]
	s := newSession(clientID)

	client, err := lcnet.Dial(addr, clientID)
	if err != nil {
		log.Fatalf("could not join board at %s: %v", addr, err)
	}
	defer client.Close()

	client.OnMessage = s.handleTransport
	client.OnDisconnect = func(err error) {
		log.Printf("[MAIN] lost connection to host: %v", err)
	}

	s.doc.OnLocalOp = func(op state.Op) {
		payload, err := json.Marshal(op)
		if err != nil {
			log.Printf("[MAIN] marshal op: %v", err)
			return
		}
		if err := client.Send(lcnet.Message{Type: lcnet.MsgOp, ClientID: clientID, Payload: payload}); err != nil {
			log.Printf("[MAIN] send op: %v", err)
		}
	}
	s.bus.Send = func(env presence.Envelope) {
		err := client.Send(lcnet.Message{
			Type:     lcnet.MsgPresence,
			Topic:    env.Topic,
			ClientID: env.ClientID,
			Payload:  env.Payload,
			Clear:    env.Clear,
		})
		if err != nil {
			log.Printf("[MAIN] send presence: %v", err)
		}
	}

	go client.Run()

	ui.RunApp(ui.AppConfig{
		Title:     "LocalCanvas",
		Env:       s.env,
		Selection: s.selection,
		Export:    s.exportPDF,
	})
}
