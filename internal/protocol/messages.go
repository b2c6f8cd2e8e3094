package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gmellini/recall/internal/analysis"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientTurn       MessageType = "client_turn"
	TypeClientReset      MessageType = "client_reset"
	TypeAnalysisSnapshot MessageType = "analysis_snapshot"
	TypeErrorEvent       MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ClientTurn is one conversation turn streamed by the client as it is
// observed in the page.
type ClientTurn struct {
	Type    MessageType `json:"type"`
	Role    string      `json:"role"`
	Content string      `json:"content"`
	TSMs    int64       `json:"ts_ms"`
}

// ClientReset clears the connection's accumulated conversation.
type ClientReset struct {
	Type MessageType `json:"type"`
}

// AnalysisSnapshot is pushed after each user turn with the current
// coherence reading for the conversation so far.
type AnalysisSnapshot struct {
	Type        MessageType              `json:"type"`
	TurnCount   int                      `json:"turn_count"`
	Result      analysis.CoherenceResult `json:"result"`
	Suggestions []string                 `json:"suggestions"`
}

type ErrorEvent struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail"`
}

func validRole(role string) bool {
	switch role {
	case analysis.RoleUser, analysis.RoleAssistant, analysis.RoleSystem:
		return true
	}
	return false
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientTurn:
		var msg ClientTurn
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if !validRole(msg.Role) || msg.Content == "" {
			return nil, errors.New("invalid client_turn")
		}
		return msg, nil
	case TypeClientReset:
		var msg ClientReset
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
