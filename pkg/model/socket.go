package model

// Record is one network-name line of the connection listing, attributed to
// the owner named by the nearest preceding login line.
type Record struct {
	User    string `json:"user,omitempty"`
	PID     int    `json:"pid,omitempty"`
	Command string `json:"command,omitempty"`
	Name    string `json:"name"`
	State   string `json:"state,omitempty"`
}

// Connection is a TCP connection as shown by the connection browser.
type Connection struct {
	User    string
	PID     int
	Command string
	Local   string
	Remote  string
	State   string // ESTABLISHED, LISTEN, CLOSE_WAIT, etc.
}

// Explanation describes a TCP state in plain words for the detail pane.
func (c Connection) Explanation() string {
	switch c.State {
	case "ESTABLISHED":
		return "Connection is open and can carry data in both directions."
	case "LISTEN":
		return "Socket is waiting for incoming connections."
	case "CLOSE_WAIT":
		return "The peer closed its side; the owning process has not closed the socket yet."
	case "TIME_WAIT":
		return "Connection is closed and waiting for delayed packets to expire."
	case "SYN_SENT", "SYN_RECV":
		return "Connection handshake is in progress."
	case "":
		return "State not reported."
	}
	return "Connection is shutting down."
}
