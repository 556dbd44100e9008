package interpreter

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/czex/pexboot/internal/cachedir"
	"github.com/czex/pexboot/internal/log"
	"github.com/czex/pexboot/internal/pexerr"
)

// Prober spawns a candidate interpreter and parses its emitted descriptor.
// ProbeScript is the embedded bootstrap script content; it is treated as an
// opaque resource per the design's "embedded Python helper scripts" note.
type Prober struct {
	ProbeScript []byte
	CacheRoot   string
	Logger      log.Logger
}

// Identify resolves path to its absolute form, consults the on-disk memo
// cache keyed by base64(sha256(absolute_path)), and on a miss spawns the
// probe subprocess, persisting the result atomically.
func (p *Prober) Identify(path string) (*Descriptor, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.NewNoop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, pexerr.Wrap(pexerr.KindInterpreterIdentification, path, "failed to resolve absolute path", err)
	}

	key := memoKey(abs)
	target := filepath.Join(p.CacheRoot, "interpreters", "0", key)

	if d, ok := readMemo(target); ok {
		return d, nil
	}

	c, err := cachedir.CreateAtomic(target, func(scratch string) error {
		d, err := p.probe(abs)
		if err != nil {
			return err
		}
		return writeInfoJSON(scratch, d)
	}, logger)
	if err != nil {
		return nil, err
	}
	defer c.Unlock()

	d, ok := readMemo(target)
	if !ok {
		return nil, pexerr.New(pexerr.KindInterpreterIdentification, abs, "memo published but info.json missing")
	}
	return d, nil
}

func memoKey(absPath string) string {
	sum := sha256.Sum256([]byte(absPath))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func readMemo(dir string) (*Descriptor, bool) {
	b, err := os.ReadFile(filepath.Join(dir, "info.json"))
	if err != nil {
		return nil, false
	}
	var d Descriptor
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, false
	}
	return &d, true
}

func writeInfoJSON(scratch string, d *Descriptor) error {
	b, err := json.Marshal(d)
	if err != nil {
		return pexerr.Wrap(pexerr.KindInterpreterIdentification, scratch, "failed to encode descriptor", err)
	}
	return os.WriteFile(filepath.Join(scratch, "info.json"), b, 0o644)
}

// probe spawns the candidate interpreter with the embedded probe script in
// a fresh scratch directory, supplying Linux-specific loader info when
// available.
func (p *Prober) probe(absPath string) (*Descriptor, error) {
	scratch, err := os.MkdirTemp("", "pexboot-probe-*")
	if err != nil {
		return nil, pexerr.Wrap(pexerr.KindInterpreterIdentification, absPath, "failed to create scratch directory", err)
	}
	defer os.RemoveAll(scratch)

	outPath := filepath.Join(scratch, "info.json")
	args := []string{"-sE", "-c", string(p.ProbeScript), outPath}

	if linuxInfo, err := probeLinuxInfo(absPath); err != nil {
		return nil, err
	} else if linuxInfo != nil {
		b, err := json.Marshal(linuxInfo)
		if err != nil {
			return nil, pexerr.Wrap(pexerr.KindInterpreterIdentification, absPath, "failed to encode linux info", err)
		}
		args = append(args, "--linux-info", string(b))
	}

	cmd := exec.Command(absPath, args...)
	cmd.Dir = scratch
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, pexerr.Wrap(pexerr.KindInterpreterIdentification, absPath, "probe subprocess failed: "+string(out), err)
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		return nil, pexerr.Wrap(pexerr.KindInterpreterIdentification, absPath, "probe did not emit info.json", err)
	}

	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, pexerr.Wrap(pexerr.KindInterpreterIdentification, absPath, "probe emitted invalid JSON", err)
	}
	d.AbsolutePath = absPath
	if d.CanonicalPath == "" {
		canonical, err := filepath.EvalSymlinks(absPath)
		if err != nil {
			canonical = absPath
		}
		d.CanonicalPath = canonical
	}
	return &d, nil
}
