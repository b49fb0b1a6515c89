package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"

	"github.com/doridoridoriand/pingtray/internal/targets"
)

// Editor is the target list the interactive mode edits.
type Editor interface {
	AddTarget(address, label string) (targets.Target, error)
	RemoveTarget(address string) (bool, error)
	ListTargets() ([]targets.Target, error)
}

const prompt = "pingtray> "

const helpText = `commands:
  list                       show monitored targets
  add <address> [label...]   monitor a hostname, IP or http(s) URL
  remove <address>           stop monitoring a target
  help                       show this help
  quit                       leave configuration mode`

// RunInteractive reads commands from in until quit or EOF.
func RunInteractive(in io.Reader, out io.Writer, editor Editor) error {
	fmt.Fprintln(out, color.Cyan.Sprint("pingtray configuration mode"))
	fmt.Fprintln(out, "type 'help' for commands")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if quit := execute(out, editor, strings.ToLower(fields[0]), fields[1:]); quit {
			return nil
		}
	}
}

func execute(out io.Writer, editor Editor, cmd string, args []string) bool {
	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(out, helpText)
	case "list", "ls":
		list, err := editor.ListTargets()
		if err != nil {
			fmt.Fprintln(out, color.Red.Sprintf("cannot read targets: %v", err))
			return false
		}
		PrintTargets(out, list)
	case "add":
		if len(args) == 0 {
			fmt.Fprintln(out, color.Yellow.Sprint("usage: add <address> [label...]"))
			return false
		}
		tgt, err := editor.AddTarget(args[0], strings.Join(args[1:], " "))
		if err != nil {
			fmt.Fprintln(out, color.Red.Sprint(describeError(args[0], err)))
			return false
		}
		fmt.Fprintln(out, color.Green.Sprintf("added %s", tgt.DisplayName()))
	case "remove", "rm", "del":
		if len(args) != 1 {
			fmt.Fprintln(out, color.Yellow.Sprint("usage: remove <address>"))
			return false
		}
		removed, err := editor.RemoveTarget(args[0])
		switch {
		case err != nil:
			fmt.Fprintln(out, color.Red.Sprint(describeError(args[0], err)))
		case !removed:
			fmt.Fprintln(out, color.Yellow.Sprintf("%s is not monitored", args[0]))
		default:
			fmt.Fprintln(out, color.Green.Sprintf("removed %s", args[0]))
		}
	default:
		fmt.Fprintln(out, color.Yellow.Sprintf("unknown command %q, type 'help'", cmd))
	}
	return false
}

func describeError(address string, err error) string {
	switch {
	case errors.Is(err, targets.ErrDuplicateTarget):
		return fmt.Sprintf("%s is already monitored", address)
	case errors.Is(err, targets.ErrInvalidTarget):
		return fmt.Sprintf("%s is not a valid hostname, IP or URL", address)
	case errors.Is(err, targets.ErrStoreCorrupt):
		return fmt.Sprintf("targets file is corrupt: %v", err)
	case errors.Is(err, targets.ErrStoreUnwritable):
		return fmt.Sprintf("could not save targets: %v", err)
	default:
		return err.Error()
	}
}
