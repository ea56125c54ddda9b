package terminal

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/filesystem"
	"github.com/dustin/go-humanize"
)

const listTimeFormat = "Jan _2 15:04"

func builtinCommands() map[string]command {
	return map[string]command{
		"ls":        {usage: "ls [path]", summary: "list a folder", maxArgs: 1, run: (*Terminal).ls},
		"cd":        {usage: "cd [path]", summary: "change the working folder", maxArgs: 1, run: (*Terminal).cd},
		"pwd":       {usage: "pwd", summary: "print the working folder", run: (*Terminal).pwd},
		"cat":       {usage: "cat <file>", summary: "print a file", minArgs: 1, maxArgs: 1, run: (*Terminal).cat},
		"mkdir":     {usage: "mkdir <path>", summary: "create a folder", minArgs: 1, maxArgs: 1, run: (*Terminal).mkdir},
		"touch":     {usage: "touch <path>", summary: "create a file or update its time", minArgs: 1, maxArgs: 1, run: (*Terminal).touch},
		"rm":        {usage: "rm <path>", summary: "delete a file or folder", minArgs: 1, maxArgs: 1, run: (*Terminal).rm},
		"chmod":     {usage: "chmod <mode> <path>", summary: "change permissions (750 or rwxr-x---)", minArgs: 2, maxArgs: 2, run: (*Terminal).chmod},
		"whoami":    {usage: "whoami", summary: "print the acting user", run: (*Terminal).whoami},
		"help":      {usage: "help", summary: "list commands", run: (*Terminal).help},
		"clear":     {usage: "clear", summary: "clear the screen", run: (*Terminal).clear},
		"cp":        {usage: "cp <path> <folder>", summary: "copy into a folder", minArgs: 2, maxArgs: 2, run: (*Terminal).cp},
		"mv":        {usage: "mv <path> <folder|name>", summary: "move into a folder or rename", minArgs: 2, maxArgs: 2, run: (*Terminal).mv},
		"stat":      {usage: "stat <path>", summary: "show node details", minArgs: 1, maxArgs: 1, run: (*Terminal).stat},
		"df":        {usage: "df", summary: "show tree usage", run: (*Terminal).df},
		"snapshot":  {usage: "snapshot", summary: "snapshot the whole tree", run: (*Terminal).snapshot},
		"snapshots": {usage: "snapshots", summary: "list snapshots, most recent first", run: (*Terminal).snapshots},
		"restore":   {usage: "restore", summary: "restore the most recent snapshot", run: (*Terminal).restore},
		"corrupt":   {usage: "corrupt [count]", summary: "corrupt random files", maxArgs: 1, run: (*Terminal).corrupt},
		"repair":    {usage: "repair", summary: "repair or remove corrupted files", run: (*Terminal).repair},
	}
}

// formatEntry renders one long-format listing line
func formatEntry(n *filesystem.Node) string {
	kind, name := "-", n.Name
	if n.IsFolder() {
		kind, name = "d", n.Name+"/"
	}
	if n.Corrupted {
		name += " [corrupted]"
	}
	return fmt.Sprintf("%s%s %-8s %9s %s %s",
		kind, n.Perms, n.Owner, humanize.Bytes(uint64(n.Size)), n.Modified.Format(listTimeFormat), name)
}

func (t *Terminal) ls(args []string) (string, error) {
	p := t.session.Cwd
	if len(args) > 0 {
		p = t.abs(args[0])
	}
	node, err := t.fs.Stat(p)
	if err != nil {
		return "", err
	}
	if !node.IsFolder() {
		return formatEntry(node), nil
	}
	children, err := t.fs.List(t.session, p)
	if err != nil {
		return "", err
	}
	lines := make([]string, len(children))
	for i, ch := range children {
		lines[i] = formatEntry(ch)
	}
	return strings.Join(lines, "\n"), nil
}

func (t *Terminal) cd(args []string) (string, error) {
	p := "/"
	if len(args) > 0 {
		p = t.abs(args[0])
	}
	return "", t.fs.ChangeDir(t.session, p)
}

func (t *Terminal) pwd([]string) (string, error) {
	return t.session.Cwd, nil
}

func (t *Terminal) cat(args []string) (string, error) {
	data, err := t.fs.ReadFile(t.session, t.abs(args[0]))
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

func (t *Terminal) mkdir(args []string) (string, error) {
	dir, name := path.Split(t.abs(args[0]))
	_, err := t.fs.Create(t.session, dir, name, simfs.FolderNodeType, nil)
	return "", err
}

func (t *Terminal) touch(args []string) (string, error) {
	_, err := t.fs.Touch(t.session, t.abs(args[0]))
	return "", err
}

func (t *Terminal) rm(args []string) (string, error) {
	return "", t.fs.Delete(t.session, t.abs(args[0]))
}

func (t *Terminal) chmod(args []string) (string, error) {
	return "", t.fs.Chmod(t.session, t.abs(args[1]), args[0])
}

func (t *Terminal) whoami([]string) (string, error) {
	return t.session.Actor.Name, nil
}

func (t *Terminal) help([]string) (string, error) {
	var b strings.Builder
	for i, name := range t.Commands() {
		if i > 0 {
			b.WriteByte('\n')
		}
		cmd := t.commands[name]
		fmt.Fprintf(&b, "%-24s %s", cmd.usage, cmd.summary)
	}
	return b.String(), nil
}

func (t *Terminal) clear([]string) (string, error) {
	if t.OnClear != nil {
		t.OnClear()
	}
	return "", nil
}

func (t *Terminal) cp(args []string) (string, error) {
	if err := t.fs.Copy(t.session, t.abs(args[0])); err != nil {
		return "", err
	}
	node, err := t.fs.Paste(t.session, t.abs(args[1]))
	if err != nil {
		return "", err
	}
	return path.Join(t.abs(args[1]), node.Name), nil
}

// mv moves into an existing folder, otherwise renames within the same folder
func (t *Terminal) mv(args []string) (string, error) {
	src, dst := t.abs(args[0]), t.abs(args[1])
	if node, err := t.fs.Stat(dst); err == nil && node.IsFolder() {
		if err := t.fs.Move(t.session, src); err != nil {
			return "", err
		}
		moved, err := t.fs.Paste(t.session, dst)
		if err != nil {
			return "", err
		}
		return path.Join(dst, moved.Name), nil
	}
	if path.Dir(src) != path.Dir(dst) {
		return "", fmt.Errorf("%s: %w", dst, filesystem.ErrNotFound)
	}
	return "", t.fs.Rename(t.session, src, path.Base(dst))
}

func (t *Terminal) stat(args []string) (string, error) {
	p := t.abs(args[0])
	n, err := t.fs.Stat(p)
	if err != nil {
		return "", err
	}
	lines := []string{
		"path:      " + p,
		"type:      " + string(n.Type),
		fmt.Sprintf("size:      %s (%d bytes)", humanize.Bytes(uint64(n.Size)), n.Size),
		fmt.Sprintf("perms:     %s (%04o)", n.Perms, n.Perms.Mode()),
		"owner:     " + n.Owner,
		"id:        " + n.ID,
		"created:   " + n.Created.Format(time.RFC3339),
		"modified:  " + n.Modified.Format(time.RFC3339),
		"corrupted: " + strconv.FormatBool(n.Corrupted),
	}
	if n.IsFolder() {
		lines = append(lines, fmt.Sprintf("children:  %d", len(n.Children)))
	}
	return strings.Join(lines, "\n"), nil
}

func (t *Terminal) df([]string) (string, error) {
	u := t.fs.Usage()
	return fmt.Sprintf("nodes: %d (%d folders, %d files)\nused: %s\ncorrupted: %d\nsnapshots: %d",
		u.Nodes, u.Folders, u.Files, humanize.Bytes(uint64(u.Bytes)), u.Corrupted, len(t.fs.Snapshots())), nil
}

func (t *Terminal) snapshot([]string) (string, error) {
	snap, err := t.fs.Snapshot()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("snapshot %s taken (%d retained)", snap.ID, len(t.fs.Snapshots())), nil
}

func (t *Terminal) snapshots([]string) (string, error) {
	snaps := t.fs.Snapshots()
	if len(snaps) == 0 {
		return "no snapshots", nil
	}
	lines := make([]string, len(snaps))
	for i, s := range snaps {
		lines[i] = fmt.Sprintf("%d %s %s", i, s.ID, humanize.Time(s.Created))
	}
	return strings.Join(lines, "\n"), nil
}

func (t *Terminal) restore([]string) (string, error) {
	snap, err := t.fs.Restore()
	if err != nil {
		return "", err
	}
	// the working folder may not exist in the restored tree
	if node, err := t.fs.Stat(t.session.Cwd); err != nil || !node.IsFolder() {
		t.session.Cwd = "/"
	}
	return "restored snapshot " + snap.ID, nil
}

func (t *Terminal) corrupt(args []string) (string, error) {
	count := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return "", fmt.Errorf("invalid count %q", args[0])
		}
		count = n
	}
	report := t.fs.Corrupt(count)
	if len(report.Paths) == 0 {
		return "no files to corrupt", nil
	}
	lines := make([]string, len(report.Paths))
	for i, p := range report.Paths {
		lines[i] = "corrupted " + p
	}
	return strings.Join(lines, "\n"), nil
}

func (t *Terminal) repair([]string) (string, error) {
	report := t.fs.Repair()
	if len(report.Items) == 0 {
		return "nothing to repair", nil
	}
	lines := make([]string, 0, len(report.Items)+1)
	for _, item := range report.Items {
		if item.Repaired {
			lines = append(lines, "repaired "+item.Path)
		} else {
			lines = append(lines, "removed "+item.Path)
		}
	}
	lines = append(lines, fmt.Sprintf("%d repaired, %d removed", report.Repaired, report.Removed))
	return strings.Join(lines, "\n"), nil
}
