package remote

type Action string

const (
	CreateAction Action = "CREATE"
	UpdateAction Action = "UPDATE"
	DeleteAction Action = "DELETE"
)

// Event is one push notification from a subscription. Fields is nil and
// Exists is false for DeleteAction.
type Event struct {
	Action Action   `json:"action"`
	Path   string   `json:"path"`
	Fields FieldMap `json:"fields,omitempty"`
	Exists bool     `json:"exists"`
}
