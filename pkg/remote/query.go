package remote

// FilterOp is a comparison applied to one stored field.
type FilterOp string

const (
	OpEqual        FilterOp = "=="
	OpNotEqual     FilterOp = "!="
	OpLess         FilterOp = "<"
	OpLessEqual    FilterOp = "<="
	OpGreater      FilterOp = ">"
	OpGreaterEqual FilterOp = ">="
)

type Filter struct {
	Field string   `json:"field"`
	Op    FilterOp `json:"op"`
	Value any      `json:"value"`
}

type Order struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// QueryDescriptor is a fully resolved query against one collection. It is a
// plain value; building one has no effect until it is executed against a
// Store.
type QueryDescriptor struct {
	Collection string   `json:"collection"`
	Filters    []Filter `json:"filters,omitempty"`
	Orders     []Order  `json:"orders,omitempty"`
	LimitCount int      `json:"limit,omitempty"`
	Cursor     any      `json:"cursor,omitempty"`
}
