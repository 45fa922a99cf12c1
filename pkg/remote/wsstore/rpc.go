package wsstore

import (
	"encoding/json"

	"github.com/docstore/docstore.go/pkg/remote"
)

// Wire methods.
const (
	methodGet            = "get"
	methodQuery          = "query"
	methodCommit         = "commit"
	methodSubscribe      = "subscribe"
	methodSubscribeQuery = "subscribeQuery"
	methodKill           = "kill"
	methodNotify         = "notify"
)

// codeNotFound marks the backend's "no document at this path" error.
const codeNotFound = 404

type rpcRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params []any  `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e *rpcError) Error() string { return e.Message }

type rpcResponse struct {
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// notification is the payload of a push message.
type notification struct {
	Subscription string       `json:"subscription"`
	Event        remote.Event `json:"event"`
}
