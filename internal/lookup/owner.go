package lookup

import (
	"strconv"
	"strings"

	"github.com/pranshuparmar/whoisit/pkg/model"
)

// FindOwner scans lsof field output for the first n line whose endpoint text
// contains ":<localPort>->" and returns the login from the nearest L line
// before it. The match is on text, not on a parsed port. ok is false when no
// such line exists, or when it exists but no L line came before it.
func FindOwner(localPort uint16, output []byte) (user string, ok bool) {
	target := ":" + strconv.Itoa(int(localPort)) + "->"

	var current string
	var haveUser bool
	for line := range strings.Lines(string(output)) {
		if line == "" {
			continue
		}
		switch line[0] {
		case 'L':
			current = strings.TrimSpace(line[1:])
			haveUser = true
		case 'n':
			if strings.Contains(line, target) {
				return current, haveUser
			}
		}
	}
	return "", false
}

// ParseRecords turns lsof field output into one Record per n line. Process
// fields (p, c, L) carry over to every following file until the next p line;
// TCP state (TST=) attaches to the most recent record.
func ParseRecords(output []byte) []model.Record {
	var (
		records []model.Record
		pid     int
		cmd     string
		user    string
	)
	for line := range strings.Lines(string(output)) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		field, val := line[0], line[1:]
		switch field {
		case 'p':
			// starting a new process
			pid, _ = strconv.Atoi(val)
			cmd = ""
			user = ""
		case 'c':
			cmd = val
		case 'L':
			user = strings.TrimSpace(val)
		case 'n':
			records = append(records, model.Record{
				User:    user,
				PID:     pid,
				Command: cmd,
				Name:    val,
			})
		case 'T':
			if st, ok := strings.CutPrefix(val, "ST="); ok && len(records) > 0 {
				records[len(records)-1].State = st
			}
		}
	}
	return records
}
