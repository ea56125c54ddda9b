package filesystem

import "time"

// Owners of the default tree
const (
	seedUser  = "user"
	seedAdmin = "root"
)

const systemLog = `[boot] kernel loaded
[boot] mounting simulated volumes
[init] starting services
[init] ready
`

const configJSON = `{
  "hostname": "simfs",
  "theme": "dark",
  "autosave": true
}
`

const helloSh = `#!/bin/sh
echo "Hello from simfs"
`

func newRoot(owner string, now time.Time) *Node {
	root := NewFolder("", owner, now)
	root.ID = RootID
	return root
}

// DefaultTree builds the tree a fresh file system starts with:
//
//	/
//	├── home/{documents,downloads}
//	├── system/{system.log,config.json}
//	└── bin/hello.sh
func DefaultTree(now time.Time) *Node {
	root := newRoot(seedUser, now)

	home := NewFolder("home", seedUser, now)
	home.AddChild(NewFolder("documents", seedUser, now))
	home.AddChild(NewFolder("downloads", seedUser, now))

	system := NewFolder("system", seedAdmin, now)
	system.Perms = Perms{Owner: 7, Group: 4, Others: 4}
	system.AddChild(NewFile("system.log", seedAdmin, []byte(systemLog), now))
	cfgFile := NewFile("config.json", seedAdmin, []byte(configJSON), now)
	cfgFile.Perms = Perms{Owner: 6, Group: 4, Others: 0}
	system.AddChild(cfgFile)

	bin := NewFolder("bin", seedAdmin, now)
	bin.Perms = Perms{Owner: 7, Group: 5, Others: 5}
	hello := NewFile("hello.sh", seedAdmin, []byte(helloSh), now)
	hello.Perms = Perms{Owner: 7, Group: 5, Others: 5}
	bin.AddChild(hello)

	root.AddChild(home)
	root.AddChild(system)
	root.AddChild(bin)
	RecomputeSize(root)
	return root
}
