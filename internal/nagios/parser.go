package nagios

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseError indicates a structurally invalid status file: empty input, a
// truncated/unterminated block, a malformed line, or a record missing a
// mandatory field. Unknown keys are never an error; the daemon adds fields
// between versions and the parser ignores anything it does not recognize.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("status file parse error at line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("status file parse error: %s", e.Msg)
}

// block is one raw "type { key=value ... }" section
type block struct {
	kind   string
	line   int
	fields map[string]string
}

// Parse parses the raw contents of a Nagios status.dat file. It is pure:
// no I/O, no retries. The caller owns reading the file and mapping read
// failures to its own error taxonomy.
func Parse(data []byte) (*StatusFile, error) {
	blocks, err := scanBlocks(data)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, &ParseError{Msg: "empty status file"}
	}

	status := &StatusFile{}
	for _, b := range blocks {
		switch b.kind {
		case "hoststatus":
			h, err := hostFromBlock(b)
			if err != nil {
				return nil, err
			}
			status.Hosts = append(status.Hosts, h)
		case "servicestatus":
			s, err := serviceFromBlock(b)
			if err != nil {
				return nil, err
			}
			status.Services = append(status.Services, s)
		case "hostcomment", "servicecomment":
			c, err := commentFromBlock(b)
			if err != nil {
				return nil, err
			}
			status.Comments = append(status.Comments, c)
		case "programstatus":
			status.Program = programFromBlock(b)
		default:
			// info, contactstatus, hostdowntime, ... all ignored
		}
	}

	return status, nil
}

// scanBlocks splits the file into raw blocks. A truncated write by the
// monitoring daemon shows up here as an unterminated block.
func scanBlocks(data []byte) ([]block, error) {
	var blocks []block
	var current *block

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if current == nil {
			if !strings.HasSuffix(line, "{") {
				return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("expected block start, got %q", line)}
			}
			current = &block{
				kind:   strings.TrimSpace(strings.TrimSuffix(line, "{")),
				line:   lineNo,
				fields: make(map[string]string),
			}
			continue
		}

		if line == "}" {
			blocks = append(blocks, *current)
			current = nil
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("malformed line %q in %s block", line, current.kind)}
		}
		current.fields[strings.TrimSpace(key)] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("reading status data: %v", err)}
	}

	if current != nil {
		return nil, &ParseError{Line: current.line, Msg: fmt.Sprintf("unterminated %s block", current.kind)}
	}

	return blocks, nil
}

func hostFromBlock(b block) (HostStatus, error) {
	name := b.fields["host_name"]
	if name == "" {
		return HostStatus{}, &ParseError{Line: b.line, Msg: "hoststatus block missing host_name"}
	}
	state, ok := intField(b, "current_state")
	if !ok {
		return HostStatus{}, &ParseError{Line: b.line, Msg: fmt.Sprintf("hoststatus block for %q missing current_state", name)}
	}

	h := HostStatus{
		HostName:     name,
		CurrentState: state,
		PluginOutput: b.fields["plugin_output"],
		LastCheck:    epochField(b, "last_check"),
		Hostgroups:   listField(b, "hostgroups"),
	}
	h.MaxAttempts, _ = intField(b, "max_attempts")
	h.CheckInterval = floatField(b, "check_interval")
	h.CheckExecutionTime = floatField(b, "check_execution_time")
	return h, nil
}

func serviceFromBlock(b block) (ServiceStatus, error) {
	name := b.fields["host_name"]
	desc := b.fields["service_description"]
	if name == "" || desc == "" {
		return ServiceStatus{}, &ParseError{Line: b.line, Msg: "servicestatus block missing host_name or service_description"}
	}
	state, ok := intField(b, "current_state")
	if !ok {
		return ServiceStatus{}, &ParseError{Line: b.line, Msg: fmt.Sprintf("servicestatus block for %s/%s missing current_state", name, desc)}
	}

	s := ServiceStatus{
		HostName:           name,
		ServiceDescription: desc,
		CurrentState:       state,
		PluginOutput:       b.fields["plugin_output"],
		LastCheck:          epochField(b, "last_check"),
		Servicegroups:      listField(b, "servicegroups"),
	}
	s.MaxAttempts, _ = intField(b, "max_attempts")
	s.CheckInterval = floatField(b, "check_interval")
	s.CheckExecutionTime = floatField(b, "check_execution_time")
	return s, nil
}

func commentFromBlock(b block) (Comment, error) {
	name := b.fields["host_name"]
	if name == "" {
		return Comment{}, &ParseError{Line: b.line, Msg: fmt.Sprintf("%s block missing host_name", b.kind)}
	}
	return Comment{
		HostName:           name,
		ServiceDescription: b.fields["service_description"],
		EntryTime:          epochField(b, "entry_time"),
		Author:             b.fields["author"],
		CommentData:        b.fields["comment_data"],
	}, nil
}

func programFromBlock(b block) *ProgramStatus {
	p := &ProgramStatus{
		LastCommandCheck: epochField(b, "last_command_check"),
	}
	p.DaemonMode, _ = intField(b, "daemon_mode")
	p.EnableNotifications, _ = intField(b, "enable_notifications")
	return p
}

func intField(b block, key string) (int, bool) {
	v, ok := b.fields[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

func floatField(b block, key string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(b.fields[key]), 64)
	if err != nil {
		return 0
	}
	return f
}

func epochField(b block, key string) time.Time {
	n, err := strconv.ParseInt(strings.TrimSpace(b.fields[key]), 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}
	}
	return time.Unix(n, 0)
}

func listField(b block, key string) []string {
	v := strings.TrimSpace(b.fields[key])
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
