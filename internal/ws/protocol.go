package ws

import "encoding/json"

// Inbound message actions.
const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
	actionRefresh     = "refresh"
	actionSort        = "sort"
	actionPing        = "ping"
)

// clientMessage is every inbound frame; unused fields stay empty.
type clientMessage struct {
	Action string `json:"action"`
	Symbol string `json:"symbol,omitempty"`
	Expiry string `json:"expiry,omitempty"`
	Field  string `json:"field,omitempty"`
}

// Outbound message types.
const (
	typeView  = "view"
	typeAck   = "ack"
	typeError = "error"
	typePong  = "pong"
	typeSort  = "sort"
)

type serverMessage struct {
	Type    string          `json:"type"`
	Group   string          `json:"group,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func buildViewMessage(group string, view json.RawMessage) []byte {
	b, _ := json.Marshal(serverMessage{Type: typeView, Group: group, Data: view})
	return b
}

func buildAckMessage(group string) []byte {
	b, _ := json.Marshal(serverMessage{Type: typeAck, Group: group})
	return b
}

func buildErrorMessage(message string) []byte {
	b, _ := json.Marshal(serverMessage{Type: typeError, Message: message})
	return b
}

func buildPongMessage() []byte {
	b, _ := json.Marshal(serverMessage{Type: typePong})
	return b
}

func buildSortMessage(group string, state json.RawMessage) []byte {
	b, _ := json.Marshal(serverMessage{Type: typeSort, Group: group, Data: state})
	return b
}

func parseClientMessage(data []byte) (*clientMessage, error) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
