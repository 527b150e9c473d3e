// Package registry maps language-pair codes such as "zh-en" to the language
// names used in prompts and to whether few-shot exemplars exist for the pair.
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valpere/tear/internal"
)

//go:embed pairs.yaml
var builtin []byte

// Registry is read-only after construction.
type Registry struct {
	pairs map[string]internal.LanguagePair
}

// Parse decodes a YAML (or JSON) mapping of code → {source, target, few_shot}.
func Parse(data []byte) (*Registry, error) {
	var raw map[string]internal.LanguagePair
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse language pairs: %w", err)
	}

	r := &Registry{pairs: make(map[string]internal.LanguagePair, len(raw))}
	for code, p := range raw {
		code = normalizeCode(code)
		if err := validCode(code); err != nil {
			return nil, err
		}
		if p.SourceName == "" || p.TargetName == "" {
			return nil, fmt.Errorf("language pair %q: source and target names are required", code)
		}
		p.Code = code
		r.pairs[code] = p
	}
	return r, nil
}

// Load reads a registry file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read language pairs: %w", err)
	}
	return Parse(data)
}

// Default returns the registry compiled into the binary.
func Default() *Registry {
	r, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("embedded language pairs: %v", err))
	}
	return r
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func validCode(code string) error {
	src, tgt, ok := strings.Cut(code, "-")
	if !ok || src == "" || tgt == "" || strings.Contains(tgt, "-") {
		return fmt.Errorf("invalid language pair code %q, want <source>-<target>", code)
	}
	return nil
}

// Lookup returns the registered pair for code.
func (r *Registry) Lookup(code string) (internal.LanguagePair, bool) {
	p, ok := r.pairs[normalizeCode(code)]
	return p, ok
}

// Codes lists the registered codes in sorted order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.pairs))
	for code := range r.pairs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Resolve returns the pair for code. Names given by the caller override the
// registered ones. An unregistered code yields a pair without few-shot
// support, which requires both names.
func (r *Registry) Resolve(code, sourceName, targetName string) (internal.LanguagePair, error) {
	code = normalizeCode(code)
	if err := validCode(code); err != nil {
		return internal.LanguagePair{}, err
	}

	p, ok := r.pairs[code]
	if !ok {
		if sourceName == "" || targetName == "" {
			return internal.LanguagePair{}, fmt.Errorf("language pair %q is not registered: pass source and target language names", code)
		}
		p = internal.LanguagePair{Code: code}
	}
	if sourceName != "" {
		p.SourceName = sourceName
	}
	if targetName != "" {
		p.TargetName = targetName
	}
	return p, nil
}
