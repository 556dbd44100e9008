// Package resources embeds the Python helper scripts the bootstrapper
// spawns or writes into installed venvs. Their contents are opaque to the
// Go core: the core never parses or interprets them, only stages and
// executes them.
package resources

import _ "embed"

//go:embed scripts/interpreter.py
var InterpreterProbe []byte

//go:embed scripts/venv_pex.py
var VenvPexLauncherBody []byte

//go:embed scripts/venv_pex_repl.py
var VenvPexReplBody []byte

//go:embed scripts/virtualenv.py
var LegacyVirtualenv []byte
