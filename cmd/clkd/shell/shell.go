// Package shell provides the interactive clock shell of clkd.
package shell

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"
	"github.com/secclk/clkcore/internal/units"
	"github.com/secclk/clkcore/pkg/clk"
	"github.com/secclk/clkcore/pkg/scmi"
)

// Shell is a readline loop over a clock tree.
type Shell struct {
	tree    *clk.Tree
	adaptor *scmi.Adaptor
	rl      *readline.Instance
}

// New creates a shell for tree. adaptor may be nil.
func New(tree *clk.Tree, adaptor *scmi.Adaptor) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "clk> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{tree: tree, adaptor: adaptor, rl: rl}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run reads commands until quit, EOF or ctx is done. cancel is called on
// exit.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()
	out := s.rl.Stdout()

	s.exec("help", out)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}
		if !s.exec(line, out) {
			cancel()
			return
		}
	}
}

// exec runs one command line and reports whether the loop should continue.
func (s *Shell) exec(line string, out io.Writer) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		printHelp(out)
	case "list", "ls":
		s.cmdList(out, args)
	case "show", "s":
		err = s.cmdShow(out, args)
	case "rates":
		err = s.cmdRates(out, args)
	case "set-rate", "sr":
		err = s.cmdSetRate(out, args)
	case "parent", "p":
		err = s.cmdParent(out, args)
	case "enable", "on":
		err = s.cmdEnable(out, args, true)
	case "disable", "off":
		err = s.cmdEnable(out, args, false)
	case "bindings", "b":
		err = s.cmdBindings(out, args)
	case "quit", "exit", "q":
		fmt.Fprintln(out, "Exiting...")
		return false
	default:
		fmt.Fprintf(out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
	return true
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, `
Clock Commands:
  list [substr]          - List clocks with rate, parent and enable count
  show <clock>           - Show one clock
  rates <clock>          - List supported rates
  set-rate <clock> <hz>  - Change a rate (accepts k, M and G suffixes)
  parent <clock> <p>     - Select a parent by index or name
  enable <clock>         - Take an enable reference
  disable <clock>        - Drop an enable reference
  bindings [channel]     - Show protocol bindings
  quit                   - Exit`)
}

func (s *Shell) lookup(args []string, want int) (*clk.Node, error) {
	if len(args) < want {
		return nil, fmt.Errorf("expected %d argument(s)", want)
	}
	n, ok := s.tree.Lookup(args[0])
	if !ok {
		return nil, fmt.Errorf("unknown clock %q", args[0])
	}
	return n, nil
}

func (s *Shell) cmdList(out io.Writer, args []string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tRATE\tPARENT\tCOUNT")
	for _, n := range s.tree.Nodes() {
		if len(args) > 0 && !strings.Contains(n.Name(), args[0]) {
			continue
		}
		parent := "-"
		if p := s.tree.Parent(n); p != nil {
			parent = p.Name()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", n.ID(), n.Name(), units.FormatRate(s.tree.Rate(n)), parent, s.tree.EnableCount(n))
	}
	w.Flush()
}

func (s *Shell) cmdShow(out io.Writer, args []string) error {
	n, err := s.lookup(args, 1)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (id %d)\n", n.Name(), n.ID())
	fmt.Fprintf(out, "  rate:     %s\n", units.FormatRate(s.tree.Rate(n)))
	fmt.Fprintf(out, "  enabled:  %v (count %d, hardware %v)\n", s.tree.IsEnabled(n), s.tree.EnableCount(n), s.tree.HardwareEnabled(n))
	fmt.Fprintf(out, "  flags:    %s\n", n.Flags())
	for i := 0; i < n.NumParents(); i++ {
		mark := " "
		if s.tree.Parent(n) == n.ParentByIndex(i) {
			mark = "*"
		}
		fmt.Fprintf(out, "  parent %d%s %s\n", i, mark, n.ParentByIndex(i).Name())
	}
	return nil
}

func (s *Shell) cmdRates(out io.Writer, args []string) error {
	n, err := s.lookup(args, 1)
	if err != nil {
		return err
	}
	rates := s.tree.ListRates(n)
	if len(rates) == 0 {
		fmt.Fprintln(out, "no discrete rates")
		return nil
	}
	for i, r := range rates {
		fmt.Fprintf(out, "  [%d] %s\n", i, units.FormatRate(r))
	}
	return nil
}

func (s *Shell) cmdSetRate(out io.Writer, args []string) error {
	n, err := s.lookup(args, 2)
	if err != nil {
		return err
	}
	rate, err := units.ParseRate(args[1])
	if err != nil {
		return err
	}
	if err := s.tree.SetRate(n, rate); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s = %s\n", n.Name(), units.FormatRate(s.tree.Rate(n)))
	return nil
}

func (s *Shell) cmdParent(out io.Writer, args []string) error {
	n, err := s.lookup(args, 2)
	if err != nil {
		return err
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		p, ok := s.tree.Lookup(args[1])
		if !ok {
			return fmt.Errorf("unknown parent %q", args[1])
		}
		idx = n.ParentIndex(p)
	}
	if err := s.tree.SetParent(n, idx); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s <- %s (%s)\n", n.Name(), s.tree.Parent(n).Name(), units.FormatRate(s.tree.Rate(n)))
	return nil
}

func (s *Shell) cmdEnable(out io.Writer, args []string, on bool) error {
	n, err := s.lookup(args, 1)
	if err != nil {
		return err
	}
	if on {
		if err := s.tree.Enable(n); err != nil {
			return err
		}
	} else {
		s.tree.Disable(n)
	}
	fmt.Fprintf(out, "%s count %d\n", n.Name(), s.tree.EnableCount(n))
	return nil
}

func (s *Shell) cmdBindings(out io.Writer, args []string) error {
	if s.adaptor == nil {
		return fmt.Errorf("no protocol adaptor")
	}
	var channel uint64
	if len(args) > 0 {
		var err error
		if channel, err = strconv.ParseUint(args[0], 10, 32); err != nil {
			return fmt.Errorf("invalid channel %q", args[0])
		}
	}
	bindings := s.adaptor.Bindings(uint32(channel))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCLOCK\tRATE")
	for _, b := range bindings {
		fmt.Fprintf(w, "%d\t%s\t%s\n", b.ID, b.Node.Name(), units.FormatRate(s.tree.Rate(b.Node)))
	}
	w.Flush()
	return nil
}
