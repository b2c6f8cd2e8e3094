package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gmellini/recall/internal/analysis"
	"github.com/gmellini/recall/internal/protocol"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 120 * time.Second
	// A connection accumulates at most this many turns; older ones are
	// dropped so a long-lived tab cannot grow the history without bound.
	wsMaxHistory = 200
)

// handleAnalysisWS streams coherence analysis back to a client that feeds
// conversation turns as it observes them. A fresh snapshot is emitted after
// every user turn; assistant and system turns only extend the history.
func (s *Server) handleAnalysisWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	var history []analysis.Turn
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.writeWS(conn, protocol.TypeErrorEvent, protocol.ErrorEvent{
				Type:   protocol.TypeErrorEvent,
				Code:   "invalid_client_message",
				Detail: err.Error(),
			})
			continue
		}

		switch msg := parsed.(type) {
		case protocol.ClientReset:
			s.metrics.WSMessages.WithLabelValues("inbound", string(protocol.TypeClientReset)).Inc()
			history = history[:0]
		case protocol.ClientTurn:
			s.metrics.WSMessages.WithLabelValues("inbound", string(protocol.TypeClientTurn)).Inc()
			history = append(history, analysis.Turn{Role: msg.Role, Content: msg.Content})
			if len(history) > wsMaxHistory {
				history = history[len(history)-wsMaxHistory:]
			}
			if msg.Role != analysis.RoleUser {
				continue
			}
			result := s.analyzer.Analyze(history)
			suggestions := s.suggester.Suggest(result, analysis.GeneralTopic)
			if suggestions == nil {
				suggestions = []string{}
			}
			s.writeWS(conn, protocol.TypeAnalysisSnapshot, protocol.AnalysisSnapshot{
				Type:        protocol.TypeAnalysisSnapshot,
				TurnCount:   len(history),
				Result:      result,
				Suggestions: suggestions,
			})
		}
	}
}

func (s *Server) writeWS(conn *websocket.Conn, t protocol.MessageType, msg any) {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		return
	}
	s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
}
