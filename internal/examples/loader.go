// Package examples loads the few-shot exemplars of a language pair and
// renders them into the block embedded in translate and refine prompts.
//
// Loading is best effort: a missing or malformed exemplar file degrades to an
// empty block with Status Unavailable and is logged, never returned as an
// error.
package examples

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/valpere/tear/internal/stage"
)

//go:embed data-shots
var builtin embed.FS

// Status tells why a Block has the text it has.
type Status int

const (
	// Disabled means the strategy does not use exemplars.
	Disabled Status = iota
	// Loaded means the exemplars were read and rendered.
	Loaded
	// Unavailable means the strategy asked for exemplars but none could be read.
	Unavailable
)

func (s Status) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Loaded:
		return "loaded"
	case Unavailable:
		return "unavailable"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Block is the rendered exemplar text of a language pair. Text is "" unless
// Status is Loaded.
type Block struct {
	Text   string
	Status Status
	Count  int
	Reason error
}

// Shot is one (source, target) exemplar.
type Shot struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Loader reads data-shots/mt/shots.<pair>.json files from a file system.
type Loader struct {
	fsys   fs.FS
	logger *slog.Logger
}

// NewLoader reads exemplars from fsys. A nil logger discards log output.
func NewLoader(fsys fs.FS, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{fsys: fsys, logger: logger}
}

// Embedded returns a loader over the exemplars compiled into the binary.
func Embedded(logger *slog.Logger) *Loader {
	return NewLoader(builtin, logger)
}

// Dir returns a loader over dir, laid out as dir/data-shots/mt/shots.<pair>.json.
func Dir(dir string, logger *slog.Logger) *Loader {
	return NewLoader(os.DirFS(dir), logger)
}

func shotsPath(pair string) string {
	return "data-shots/mt/shots." + pair + ".json"
}

// Available reports whether an exemplar file exists for pair.
func (l *Loader) Available(pair string) bool {
	_, err := fs.Stat(l.fsys, shotsPath(pair))
	return err == nil
}

// Load renders the exemplar block for pair. Any strategy other than few-shot
// yields a Disabled block.
func (l *Loader) Load(strategy stage.Strategy, pair string) Block {
	if strategy != stage.FewShot {
		return Block{Status: Disabled}
	}

	shots, err := l.read(pair)
	if err != nil {
		l.logger.Warn("few-shot examples unavailable", "pair", pair, "strategy", strategy.String(), "err", err)
		return Block{Status: Unavailable, Reason: err}
	}

	return Block{Text: Render(shots), Status: Loaded, Count: len(shots)}
}

func (l *Loader) read(pair string) ([]Shot, error) {
	if pair == "" {
		return nil, errors.New("empty language pair")
	}
	data, err := fs.ReadFile(l.fsys, shotsPath(pair))
	if err != nil {
		return nil, err
	}

	var shots []Shot
	if err := json.Unmarshal(data, &shots); err != nil {
		return nil, fmt.Errorf("malformed %s: %w", shotsPath(pair), err)
	}
	if len(shots) == 0 {
		return nil, fmt.Errorf("%s has no examples", shotsPath(pair))
	}
	return shots, nil
}

// Render formats shots one per line as "Source: <s> Target: <t>", in order.
func Render(shots []Shot) string {
	lines := make([]string, len(shots))
	for i, s := range shots {
		lines[i] = "Source: " + s.Source + " Target: " + s.Target
	}
	return strings.Join(lines, "\n")
}
