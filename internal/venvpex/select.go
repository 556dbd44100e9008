// Package venvpex is the central installer state machine: select wheels,
// extract, spread layout, clean up, rewrite shebangs, and emit the
// launcher/REPL/PEX-INFO trio into a freshly built venv.
package venvpex

import (
	"encoding/json"
	"fmt"

	"github.com/czex/pexboot/internal/pexerr"
	"github.com/czex/pexboot/internal/pexinfo"
	"github.com/czex/pexboot/internal/pexzip"
	"github.com/czex/pexboot/internal/tags"
)

// SelectedWheel is a distribution kept for installation, with its parsed
// tags and optional stash-relocation directory discovered from its
// .layout.json sidecar.
type SelectedWheel struct {
	Filename string
	Info     *tags.WheelInfo
	StashDir string // "" if no .prefix/ subtree
}

type layoutJSON struct {
	StashDir string `json:"stash_dir"`
}

// SelectWheels parses every distribution's filename, discards those with
// no rank against ranked, and reads each kept wheel's optional
// .layout.json sidecar for a stash_dir. A manifest with no distributions
// returns a nil (not empty) slice, the "none" value of §4.7 step 1.
func SelectWheels(archive *pexzip.Archive, info *pexinfo.Info, ranked *tags.RankedTags) ([]SelectedWheel, error) {
	if !info.HasDistributions() {
		return nil, nil
	}

	var selected []SelectedWheel
	for filename := range info.Distributions {
		wheelInfo, err := tags.ParseWheelName(filename)
		if err != nil {
			return nil, pexerr.Wrap(pexerr.KindInvalidWheelName, filename, "failed to parse distribution filename", err)
		}
		if _, ok := ranked.WheelRank(wheelInfo); !ok {
			continue
		}

		sw := SelectedWheel{Filename: filename, Info: wheelInfo}

		layoutName := fmt.Sprintf(".deps/%s/.layout.json", filename)
		raw, found, err := archive.ExtractToSlice(layoutName)
		if err != nil {
			return nil, err
		}
		if found {
			var layout layoutJSON
			if err := json.Unmarshal(raw, &layout); err == nil {
				sw.StashDir = layout.StashDir
			}
		}

		selected = append(selected, sw)
	}
	return selected, nil
}
