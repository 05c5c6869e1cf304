package nagios

import (
	"strings"
	"time"
)

// Host state codes as written by the Nagios daemon.
const (
	HostUp          = 0
	HostDown        = 1
	HostUnreachable = 2
)

// Service state codes as written by the Nagios daemon.
const (
	ServiceOK       = 0
	ServiceWarning  = 1
	ServiceCritical = 2
	ServiceUnknown  = 3
)

// HostStateName converts a host state code to its display name
func HostStateName(state int) string {
	switch state {
	case HostUp:
		return "UP"
	case HostDown:
		return "DOWN"
	case HostUnreachable:
		return "UNREACHABLE"
	default:
		return "UNKNOWN"
	}
}

// ServiceStateName converts a service state code to its display name
func ServiceStateName(state int) string {
	switch state {
	case ServiceOK:
		return "OK"
	case ServiceWarning:
		return "WARNING"
	case ServiceCritical:
		return "CRITICAL"
	case ServiceUnknown:
		return "UNKNOWN"
	default:
		return "UNKNOWN"
	}
}

// IsHostProblem reports whether a host state code is a problem state
func IsHostProblem(state int) bool {
	return state == HostDown || state == HostUnreachable
}

// IsServiceProblem reports whether a service state code is a problem state
func IsServiceProblem(state int) bool {
	return state == ServiceWarning || state == ServiceCritical || state == ServiceUnknown
}

// HostStatus is one parsed hoststatus block
type HostStatus struct {
	HostName           string
	CurrentState       int
	PluginOutput       string
	LastCheck          time.Time
	MaxAttempts        int
	CheckInterval      float64
	CheckExecutionTime float64
	Hostgroups         []string
}

// ServiceStatus is one parsed servicestatus block
type ServiceStatus struct {
	HostName           string
	ServiceDescription string
	CurrentState       int
	PluginOutput       string
	LastCheck          time.Time
	MaxAttempts        int
	CheckInterval      float64
	CheckExecutionTime float64
	Servicegroups      []string
}

// Comment is one parsed hostcomment or servicecomment block
type Comment struct {
	HostName           string
	ServiceDescription string // empty for host comments
	EntryTime          time.Time
	Author             string
	CommentData        string
}

// ProgramStatus is the parsed programstatus block
type ProgramStatus struct {
	DaemonMode          int
	EnableNotifications int
	LastCommandCheck    time.Time
}

// ServiceKey identifies a service for explicit-service filtering
type ServiceKey struct {
	HostName           string
	ServiceDescription string
}

// StatusFile is a full parsed snapshot of the daemon's state file
type StatusFile struct {
	Hosts    []HostStatus
	Services []ServiceStatus
	Comments []Comment
	Program  *ProgramStatus
}

// Filter selects a subset of hosts and services from a snapshot.
// A zero Filter selects everything. Hostgroup and servicegroup matching
// and the explicit host/service lists are OR-ed together, mirroring how
// the daemon-side object filters behave.
type Filter struct {
	Hostgroups    []string
	Servicegroups []string
	Hosts         []string
	Services      []ServiceKey
}

// IsZero reports whether the filter selects everything
func (f Filter) IsZero() bool {
	return len(f.Hostgroups) == 0 && len(f.Servicegroups) == 0 &&
		len(f.Hosts) == 0 && len(f.Services) == 0
}

// FilterHosts returns the hosts matching the filter
func (s *StatusFile) FilterHosts(f Filter) []HostStatus {
	if len(f.Hostgroups) == 0 && len(f.Hosts) == 0 {
		return s.Hosts
	}

	var out []HostStatus
	for _, h := range s.Hosts {
		if containsString(f.Hosts, h.HostName) || intersects(f.Hostgroups, h.Hostgroups) {
			out = append(out, h)
		}
	}
	return out
}

// FilterServices returns the services matching the filter
func (s *StatusFile) FilterServices(f Filter) []ServiceStatus {
	if len(f.Servicegroups) == 0 && len(f.Services) == 0 {
		return s.Services
	}

	var out []ServiceStatus
	for _, svc := range s.Services {
		explicit := false
		for _, key := range f.Services {
			if key.HostName == svc.HostName && key.ServiceDescription == svc.ServiceDescription {
				explicit = true
				break
			}
		}
		if explicit || intersects(f.Servicegroups, svc.Servicegroups) {
			out = append(out, svc)
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func intersects(want, have []string) bool {
	for _, w := range want {
		if containsString(have, w) {
			return true
		}
	}
	return false
}
