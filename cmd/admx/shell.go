package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/admatrix/internal/matrix"
	"github.com/alfredjeanlab/admatrix/internal/model"
	"github.com/alfredjeanlab/admatrix/internal/registry"
	"github.com/alfredjeanlab/admatrix/internal/sheet"
	"github.com/alfredjeanlab/admatrix/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const shellPrompt = "admx> "

var errQuit = errors.New("quit")

// shell is an interactive editor over a local registry.
type shell struct {
	reg    *registry.Registry
	in     io.Reader
	out    io.Writer
	prompt bool
}

func newShell(in io.Reader, out io.Writer, prompt bool) *shell {
	return &shell{reg: registry.New(), in: in, out: out, prompt: prompt}
}

// run reads commands until EOF or quit. Command errors are printed and do
// not end the session.
func (sh *shell) run() error {
	scanner := bufio.NewScanner(sh.in)
	for {
		if sh.prompt {
			fmt.Fprint(sh.out, ui.RenderAccent(shellPrompt))
		}
		if !scanner.Scan() {
			if sh.prompt {
				fmt.Fprintln(sh.out)
			}
			return scanner.Err()
		}
		err := sh.execLine(scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(sh.out, ui.RenderError("error: "+err.Error()))
		}
	}
}

func (sh *shell) execLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	args, err := splitArgs(line)
	if err != nil {
		return err
	}

	name, rest := args[0], args[1:]
	switch name {
	case "add":
		return sh.add(rest)
	case "list", "ls":
		return sh.list()
	case "rm", "remove":
		return sh.remove(rest)
	case "dir":
		return sh.setDirections(rest)
	case "activities":
		for _, a := range sh.reg.Activities() {
			fmt.Fprintln(sh.out, a)
		}
		return nil
	case "show":
		data, err := matrix.Render(sh.reg)
		if err != nil {
			return err
		}
		_, err = sh.out.Write(data)
		return err
	case "export":
		return sh.export(rest)
	case "load":
		return sh.load(rest)
	case "clear":
		sh.reg.Reset()
		fmt.Fprintln(sh.out, "cleared")
		return nil
	case "help", "?":
		sh.help()
		return nil
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (sh *shell) add(args []string) error {
	var row sheet.Row
	fs := newFlagSet("add")
	fs.StringVarP(&row.Temporal, "temporal", "t", "", "temporal type")
	fs.StringVarP(&row.TemporalDirection, "temporal-direction", "T", "", "temporal direction")
	fs.StringVarP(&row.Existential, "existential", "e", "", "existential type")
	fs.StringVarP(&row.ExistentialDirection, "existential-direction", "E", "", "existential direction")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: add <from> <to> [-t type] [-T dir] [-e type] [-E dir]")
	}
	row.From, row.To = fs.Arg(0), fs.Arg(1)

	d, err := row.Dependency()
	if err != nil {
		return err
	}
	if err := sh.reg.Add(d); err != nil {
		return err
	}
	added, _ := sh.reg.Get(sh.reg.Len() - 1)
	fmt.Fprintln(sh.out, ui.DependencyLine(sh.reg.Len(), added))
	return nil
}

func (sh *shell) list() error {
	deps := sh.reg.List()
	if len(deps) == 0 {
		fmt.Fprintln(sh.out, ui.RenderMuted("no dependencies"))
		return nil
	}
	for i, d := range deps {
		fmt.Fprintln(sh.out, ui.DependencyLine(i+1, d))
	}
	return nil
}

// position converts a displayed 1-based number to a registry index.
func position(arg string, count int) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", arg)
	}
	if count == 0 {
		return 0, fmt.Errorf("no dependencies")
	}
	if n < 1 || n > count {
		return 0, fmt.Errorf("number %d out of range 1..%d", n, count)
	}
	return n - 1, nil
}

func (sh *shell) remove(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: rm <number>")
	}
	i, err := position(args[0], sh.reg.Len())
	if err != nil {
		return err
	}
	d, err := sh.reg.Get(i)
	if err != nil {
		return err
	}
	if err := sh.reg.RemoveAt(i); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "removed %s\n", d.Summary())
	return nil
}

func (sh *shell) setDirections(args []string) error {
	var temporal, existential string
	fs := newFlagSet("dir")
	fs.StringVarP(&temporal, "temporal-direction", "T", "", "temporal direction")
	fs.StringVarP(&existential, "existential-direction", "E", "", "existential direction")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || (temporal == "" && existential == "") {
		return fmt.Errorf("usage: dir <number> [-T dir] [-E dir]")
	}
	i, err := position(fs.Arg(0), sh.reg.Len())
	if err != nil {
		return err
	}
	if err := sh.reg.SetDirections(i, model.Direction(temporal), model.Direction(existential)); err != nil {
		return err
	}
	d, _ := sh.reg.Get(i)
	fmt.Fprintln(sh.out, ui.DependencyLine(i+1, d))
	return nil
}

func (sh *shell) export(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: export [path]")
	}
	path := matrix.Filename
	if len(args) == 1 {
		path = args[0]
	}
	data, err := matrix.Render(sh.reg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "wrote %s (%d dependencies, %d bytes)\n", path, sh.reg.Len(), len(data))
	return nil
}

// load replaces the registry with the contents of a sheet (.toml) or an
// exported document. Nothing changes when the file is rejected.
func (sh *shell) load(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: load <path>")
	}
	path := args[0]

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		s, err := sheet.DecodeFile(path)
		if err != nil {
			return err
		}
		next := registry.New()
		if err := s.Apply(next); err != nil {
			return err
		}
		sh.reg = next
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc, err := matrix.Parse(data)
		if err != nil {
			return err
		}
		if err := matrix.Load(sh.reg, doc); err != nil {
			return err
		}
	}
	fmt.Fprintf(sh.out, "loaded %d dependencies from %s\n", sh.reg.Len(), path)
	return nil
}

func (sh *shell) help() {
	cmds := [][2]string{
		{"add <from> <to> [-t type] [-T dir] [-e type] [-E dir]", "record a dependency"},
		{"list", "show numbered dependencies"},
		{"rm <number>", "remove a dependency"},
		{"dir <number> [-T dir] [-E dir]", "change directions"},
		{"activities", "list every activity"},
		{"show", "preview " + matrix.Filename},
		{"export [path]", "write " + matrix.Filename},
		{"load <path>", "replace contents from a .toml sheet or exported document"},
		{"clear", "remove everything"},
		{"quit", "leave the shell"},
	}
	for _, c := range cmds {
		fmt.Fprintf(sh.out, "  %-55s %s\n", ui.RenderCommand(c[0]), ui.RenderMuted(c[1]))
	}
	fmt.Fprintf(sh.out, "\n  temporal types:    %s\n", joinTypes(model.TemporalTypes))
	fmt.Fprintf(sh.out, "  existential types: %s\n", joinTypes(model.ExistentialTypes))
	fmt.Fprintln(sh.out, "  directions:        forward, backward, both")
	fmt.Fprintln(sh.out, "  Quote names that contain spaces.")
}

func joinTypes[T ~string](types []T) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

var shellCmd = &cobra.Command{
	Use:     "shell",
	Short:   "Edit dependencies interactively and export " + matrix.Filename,
	GroupID: "local",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sh := newShell(cmd.InOrStdin(), cmd.OutOrStdout(), ui.IsTerminal(os.Stdin))
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			if err := sh.load([]string{file}); err != nil {
				return err
			}
		}
		if sh.prompt {
			fmt.Fprintln(sh.out, ui.RenderMuted("type help for commands"))
		}
		return sh.run()
	},
}

func init() {
	shellCmd.Flags().StringP("file", "f", "", "start from a sheet (.toml) or exported document")
}
