package codec

import "encoding/json"

const timestampTag = "__docstore_server_ts__"

// ServerTimestamp is the sentinel placed in a field map where the remote
// store must substitute its own clock at commit time.
type ServerTimestamp struct{}

func (ServerTimestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]bool{timestampTag: true})
}

func (*ServerTimestamp) UnmarshalJSON(data []byte) error {
	// The tag carries no payload; any well-formed value decodes to the
	// singleton sentinel.
	var probe map[string]bool
	return json.Unmarshal(data, &probe)
}

// IsServerTimestamp reports whether a field-map value is the sentinel,
// either in its in-process form or after a JSON round trip.
func IsServerTimestamp(v any) bool {
	switch t := v.(type) {
	case ServerTimestamp, *ServerTimestamp:
		return true
	case map[string]any:
		tagged, ok := t[timestampTag].(bool)
		return ok && tagged && len(t) == 1
	default:
		return false
	}
}
