// internal/ws/codes.go
package ws

import "github.com/coder/websocket"

// Custom close codes for refused game-channel connections. They give clients
// a more specific reason than the standard policy-violation code.
const (
	CloseLobbyNotFound   websocket.StatusCode = 3000 // lobby code does not exist
	CloseTeamNotFound    websocket.StatusCode = 3001 // team name not in this lobby
	CloseMatchRunning    websocket.StatusCode = 3002 // match already started, no late joins
	CloseUnknownMember   websocket.StatusCode = 3003 // user id not on the named team
	CloseBadConnectParam websocket.StatusCode = 3004 // malformed user id in the URL
)
