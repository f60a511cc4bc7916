package model

// Result is what `whoisit lookup` reports for one remote endpoint.
type Result struct {
	Remote    string   `json:"remote"`
	Target    string   `json:"target"`
	LocalPort uint16   `json:"local_port,omitempty"`
	Owner     string   `json:"owner,omitempty"`
	Found     bool     `json:"found"`
	Records   []Record `json:"records,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}
