// Package terminal maps single command lines onto file system operations
package terminal

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/brettbedarf/simfs/filesystem"
	"github.com/brettbedarf/simfs/internal/util"
)

// command is one entry of the dispatch table
type command struct {
	usage   string
	summary string
	minArgs int
	maxArgs int
	run     func(t *Terminal, args []string) (string, error)
}

// Terminal dispatches command lines for one session. Lines are split on
// whitespace; the first field names the command (case-insensitive) and the
// rest are positional arguments. There are no flags and no quoting.
type Terminal struct {
	fs       *filesystem.FileSystem
	session  *filesystem.Session
	commands map[string]command

	// OnClear is called by the clear command, typically to wipe the screen
	OnClear func()
}

// New returns a terminal operating on fs as session
func New(fs *filesystem.FileSystem, session *filesystem.Session) *Terminal {
	return &Terminal{
		fs:       fs,
		session:  session,
		commands: builtinCommands(),
	}
}

func (t *Terminal) Session() *filesystem.Session {
	return t.session
}

// Prompt renders "actor@simfs:/cwd$ "
func (t *Terminal) Prompt() string {
	return fmt.Sprintf("%s@%s:%s$ ", t.session.Actor.Name, t.fs.Config().Name, t.session.Cwd)
}

// Exec runs one command line and returns what it prints. Failures are
// rendered as "<cmd>: <reason>"; nothing is ever returned as an error.
func (t *Terminal) Exec(line string) string {
	logger := util.GetLogger("Terminal.Exec")

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	cmd, ok := t.commands[name]
	if !ok {
		return fmt.Sprintf("%s: command not found", fields[0])
	}
	if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
		return "usage: " + cmd.usage
	}

	out, err := cmd.run(t, args)
	if err != nil {
		logger.Debug().Err(err).Str("cmd", name).Strs("args", args).Msg("Command failed")
		return fmt.Sprintf("%s: %v", name, err)
	}
	logger.Trace().Str("cmd", name).Strs("args", args).Msg("Command ran")
	return out
}

// abs resolves p against the working directory
func (t *Terminal) abs(p string) string {
	if strings.HasPrefix(p, "/") {
		return filesystem.CleanPath(p)
	}
	return path.Join(t.session.Cwd, p)
}

// Commands returns the sorted command names
func (t *Terminal) Commands() []string {
	names := make([]string, 0, len(t.commands))
	for name := range t.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
