package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/brettbedarf/simfs/terminal"
)

const clearScreen = "\x1b[2J\x1b[H"

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell (default)",
	Long: `Start an interactive shell on the tree. Type "help" for the command list
and "exit" or "quit" (or Ctrl-D) to leave.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runShell,
}

var execCmd = &cobra.Command{
	Use:   "exec <command> [args...]",
	Short: "Run a single shell command and print its output",
	Example: `  simfs exec ls /home
  simfs --admin exec chmod 700 /bin/hello.sh`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runExec,
}

func init() {
	rootCmd.AddCommand(shellCmd, execCmd)
}

func isExit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return true
	}
	return false
}

func runShell(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	console := terminal.New(a.fs, a.fs.NewSession())
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return runScript(console, os.Stdin, cmd.OutOrStdout())
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw terminal: %w", err)
	}
	defer term.Restore(fd, oldState) //nolint:errcheck

	tty := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, console.Prompt())
	if w, h, err := term.GetSize(fd); err == nil {
		_ = tty.SetSize(w, h)
	}
	console.OnClear = func() { _, _ = io.WriteString(tty, clearScreen) }

	fmt.Fprintln(tty, `simfs shell. Type "help" for commands, "exit" to leave.`)
	for {
		tty.SetPrompt(console.Prompt())
		line, err := tty.ReadLine()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if isExit(line) {
			return nil
		}
		if out := console.Exec(line); out != "" {
			fmt.Fprintln(tty, out)
		}
	}
}

// runScript executes one command per input line, for piped input
func runScript(console *terminal.Terminal, in io.Reader, out io.Writer) error {
	console.OnClear = func() { _, _ = io.WriteString(out, clearScreen) }
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if isExit(line) {
			return nil
		}
		if res := console.Exec(line); res != "" {
			fmt.Fprintln(out, res)
		}
	}
	return scanner.Err()
}

func runExec(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	console := terminal.New(a.fs, a.fs.NewSession())
	if out := console.Exec(strings.Join(args, " ")); out != "" {
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
	return nil
}
