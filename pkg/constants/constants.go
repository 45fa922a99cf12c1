package constants

var (
	WebsocketScheme       = "ws"
	WebsocketSecureScheme = "wss"
)

// PathSeparator joins the segments of a canonical document path:
// collection-root/model-version/model-name/document-id.
const PathSeparator = "/"
