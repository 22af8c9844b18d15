// Package rule compiles declarative organization rules and evaluates them
// against file snapshots. All pattern and predicate validation happens at
// compile time; Match never fails on a compiled rule.
package rule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/gobwas/glob"
	"github.com/k1LoW/duration"

	"github.com/sfo-dev/sfo/internal/core/types"
)

// Type identifies how a rule decides whether it applies to a file.
type Type string

const (
	TypeExtension Type = "extension"
	TypeRegex     Type = "regex"
	TypeMtime     Type = "mtime"
	TypeMIME      Type = "mime"
	TypeSize      Type = "size"
)

var (
	// ErrUnsupportedType indicates an unknown rule type in the config.
	ErrUnsupportedType = errors.New("unsupported rule type")

	// ErrInvalidPattern indicates a pattern that failed to compile.
	ErrInvalidPattern = errors.New("invalid rule pattern")

	// ErrInvalidPredicate indicates a malformed when expression.
	ErrInvalidPredicate = errors.New("invalid when expression")
)

// Spec is the raw rule shape as it appears in the configuration file.
type Spec struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Pattern string `yaml:"pattern"`
	When    string `yaml:"when"`
	Glob    string `yaml:"glob"`
	Target  string `yaml:"target_template"`
}

// MatchResult is the verdict of evaluating one rule against one file.
type MatchResult struct {
	Matched bool
	// Captures holds named and positional regex groups for template
	// expansion. Nil for non-regex rules.
	Captures map[string]string
}

// Rule is a compiled, immutable matcher plus its destination template.
type Rule struct {
	Name   string
	Type   Type
	Target string

	exts     map[string]struct{}
	re       *regexp.Regexp
	nameGlob glob.Glob
	mimePfx  string
	pred     predicate
}

// predicate is a compiled age or size condition.
type predicate struct {
	olderThan   time.Duration
	newerThan   time.Duration
	largerThan  int64
	smallerThan int64
	always      bool
}

// Compile validates a single spec and builds its matcher. Any error it
// returns is a configuration error; rules that compile cannot fail later.
func Compile(idx int, s Spec) (*Rule, error) {
	name := s.Name
	if name == "" {
		name = fmt.Sprintf("rule_%d", idx+1)
	}

	r := &Rule{
		Name:   name,
		Type:   Type(strings.ToLower(strings.TrimSpace(s.Type))),
		Target: s.Target,
	}

	if s.Target == "" {
		return nil, fmt.Errorf("rule %q: target_template is required", name)
	}

	if s.Glob != "" {
		g, err := glob.Compile(s.Glob)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w: glob %q: %v", name, ErrInvalidPattern, s.Glob, err)
		}
		r.nameGlob = g
	}

	switch r.Type {
	case TypeExtension:
		if s.Pattern == "" {
			return nil, fmt.Errorf("rule %q: type=extension requires pattern", name)
		}
		r.exts = make(map[string]struct{})
		for _, e := range strings.Split(s.Pattern, ",") {
			e = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(e, ".")))
			if e != "" {
				r.exts[e] = struct{}{}
			}
		}
		if len(r.exts) == 0 {
			return nil, fmt.Errorf("rule %q: type=extension requires at least one extension", name)
		}

	case TypeRegex:
		if s.Pattern == "" {
			return nil, fmt.Errorf("rule %q: type=regex requires pattern", name)
		}
		re, err := regexp.Compile("(?i)" + s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w: %v", name, ErrInvalidPattern, err)
		}
		r.re = re

	case TypeMtime:
		p, err := compileAgePredicate(s.When)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		r.pred = p

	case TypeMIME:
		if s.Pattern == "" {
			return nil, fmt.Errorf("rule %q: type=mime requires pattern", name)
		}
		r.mimePfx = strings.ToLower(strings.TrimSpace(s.Pattern))

	case TypeSize:
		p, err := compileSizePredicate(s.When)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		r.pred = p

	default:
		return nil, fmt.Errorf("%w: %q (rule %q)", ErrUnsupportedType, s.Type, name)
	}

	return r, nil
}

// CompileAll compiles an ordered rule list, preserving declaration order.
func CompileAll(specs []Spec) ([]*Rule, error) {
	rules := make([]*Rule, 0, len(specs))
	for i, s := range specs {
		r, err := Compile(i, s)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// NeedsMIME reports whether any rule requires content-type sniffing.
func NeedsMIME(rules []*Rule) bool {
	for _, r := range rules {
		if r.Type == TypeMIME {
			return true
		}
	}
	return false
}

// Match evaluates the rule against a file snapshot. now is the planner's
// fixed reference time so that age predicates are stable across one run.
func (r *Rule) Match(rec types.FileRecord, now time.Time) MatchResult {
	if r.nameGlob != nil && !r.nameGlob.Match(baseName(rec)) {
		return MatchResult{}
	}

	switch r.Type {
	case TypeExtension:
		_, ok := r.exts[rec.Ext]
		return MatchResult{Matched: ok}

	case TypeRegex:
		m := r.re.FindStringSubmatch(rec.RelPath)
		if m == nil {
			return MatchResult{}
		}
		captures := make(map[string]string)
		for i, name := range r.re.SubexpNames() {
			if i == 0 {
				continue
			}
			if name != "" {
				captures[name] = m[i]
			}
			captures[strconv.Itoa(i)] = m[i]
		}
		return MatchResult{Matched: true, Captures: captures}

	case TypeMtime:
		if r.pred.always {
			return MatchResult{Matched: true}
		}
		age := now.Sub(rec.ModTime)
		if r.pred.olderThan > 0 {
			return MatchResult{Matched: age > r.pred.olderThan}
		}
		return MatchResult{Matched: age < r.pred.newerThan}

	case TypeMIME:
		mt := strings.ToLower(rec.MIME)
		return MatchResult{Matched: mt != "" && strings.HasPrefix(mt, r.mimePfx)}

	case TypeSize:
		if r.pred.largerThan > 0 {
			return MatchResult{Matched: rec.Size > r.pred.largerThan}
		}
		return MatchResult{Matched: rec.Size < r.pred.smallerThan}
	}

	return MatchResult{}
}

func baseName(rec types.FileRecord) string {
	if rec.Ext == "" {
		return rec.Name
	}
	return rec.Name + "." + rec.Ext
}

func compileAgePredicate(when string) (predicate, error) {
	op, arg, err := splitPredicate(when)
	if err != nil {
		return predicate{}, err
	}
	if op == "always" {
		return predicate{always: true}, nil
	}

	d, err := duration.Parse(arg)
	if err != nil {
		return predicate{}, fmt.Errorf("%w: %q: %v", ErrInvalidPredicate, when, err)
	}

	switch op {
	case "older_than":
		return predicate{olderThan: d}, nil
	case "newer_than":
		return predicate{newerThan: d}, nil
	}
	return predicate{}, fmt.Errorf("%w: unknown operator %q (want older_than, newer_than or always)", ErrInvalidPredicate, op)
}

func compileSizePredicate(when string) (predicate, error) {
	op, arg, err := splitPredicate(when)
	if err != nil {
		return predicate{}, err
	}

	n, err := units.FromHumanSize(arg)
	if err != nil {
		return predicate{}, fmt.Errorf("%w: %q: %v", ErrInvalidPredicate, when, err)
	}

	switch op {
	case "larger_than":
		return predicate{largerThan: n}, nil
	case "smaller_than":
		return predicate{smallerThan: n}, nil
	}
	return predicate{}, fmt.Errorf("%w: unknown operator %q (want larger_than or smaller_than)", ErrInvalidPredicate, op)
}

func splitPredicate(when string) (op, arg string, err error) {
	when = strings.TrimSpace(when)
	if when == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidPredicate)
	}
	parts := strings.SplitN(when, " ", 2)
	op = strings.ToLower(parts[0])
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}
	if op != "always" && arg == "" {
		return "", "", fmt.Errorf("%w: %q: missing argument", ErrInvalidPredicate, when)
	}
	return op, arg, nil
}
