package exchange

import "encoding/json"

// marshalEvent serializes an event for the signal bus. Events are plain JSON
// so websocket clients and stream consumers share one encoding.
func marshalEvent(v any) ([]byte, error) {
	return json.Marshal(v)
}
