package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/secclk/clkcore/pkg/log"
	"github.com/secclk/clkcore/pkg/wire"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Statuses          map[wire.Status]int
	Connections       map[string]*ConnectionStats
	Nodes             map[string]*NodeStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	Requests   int
	RemoteAddr string
}

// NodeStats counts clock operations on one node.
type NodeStats struct {
	Ops      map[log.ClockOp]int
	Failures int
	LastRate uint64
}

// Collect reads the file at path and aggregates its events.
func Collect(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Statuses:          make(map[wire.Status]int),
		Connections:       make(map[string]*ConnectionStats),
		Nodes:             make(map[string]*NodeStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.ConnectionID != "" {
		conn, ok := s.Connections[event.ConnectionID]
		if !ok {
			conn = &ConnectionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			s.Connections[event.ConnectionID] = conn
		}
		conn.Events++
		if event.Timestamp.After(conn.LastSeen) {
			conn.LastSeen = event.Timestamp
		}
		if event.RemoteAddr != "" && conn.RemoteAddr == "" {
			conn.RemoteAddr = event.RemoteAddr
		}
		if event.Message != nil && event.Message.Type == log.MessageTypeRequest {
			conn.Requests++
		}
	}

	if event.Message != nil && event.Message.Status != nil {
		s.Statuses[*event.Message.Status]++
	}

	if c := event.Clock; c != nil {
		ns, ok := s.Nodes[c.Node]
		if !ok {
			ns = &NodeStats{Ops: make(map[log.ClockOp]int)}
			s.Nodes[c.Node] = ns
		}
		ns.Ops[c.Op]++
		ns.LastRate = c.Rate
		if c.Err != "" {
			ns.Failures++
		}
	}

	if event.Error != nil {
		s.Errors++
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := Collect(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Clock Event Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerClock} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Statuses) > 0 {
		fmt.Fprintln(w, "Response Status:")
		statuses := make([]wire.Status, 0, len(stats.Statuses))
		for st := range stats.Statuses {
			statuses = append(statuses, st)
		}
		sort.Slice(statuses, func(i, j int) bool { return statuses[i] > statuses[j] })
		for _, st := range statuses {
			fmt.Fprintf(w, "  %-20s %d\n", st.String()+":", stats.Statuses[st])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		ids := make([]string, 0, len(stats.Connections))
		for id := range stats.Connections {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			return stats.Connections[ids[i]].FirstSeen.Before(stats.Connections[ids[j]].FirstSeen)
		})
		for _, id := range ids {
			c := stats.Connections[id]
			fmt.Fprintf(w, "  [%s] %d events, %d requests, duration %s", shortenConnID(id), c.Events, c.Requests,
				c.LastSeen.Sub(c.FirstSeen).Round(time.Millisecond))
			if c.RemoteAddr != "" {
				fmt.Fprintf(w, ", from %s", c.RemoteAddr)
			}
			fmt.Fprintln(w)
		}
	}

	if len(stats.Nodes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Clock Nodes: %d\n", len(stats.Nodes))
		names := make([]string, 0, len(stats.Nodes))
		for name := range stats.Nodes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ns := stats.Nodes[name]
			fmt.Fprintf(w, "  %-16s", name)
			for _, op := range []log.ClockOp{log.ClockOpEnable, log.ClockOpDisable, log.ClockOpSetRate, log.ClockOpSetParent} {
				if n := ns.Ops[op]; n > 0 {
					fmt.Fprintf(w, " %s=%d", op.String(), n)
				}
			}
			if ns.Failures > 0 {
				fmt.Fprintf(w, " failures=%d", ns.Failures)
			}
			fmt.Fprintln(w)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
