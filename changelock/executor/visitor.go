package executor

import (
	"regexp"
	"strings"

	"github.com/git-hulk/go-changelock/changelock/dialect"
)

// Visitor rewrites the SQL generated for a statement before it runs.
type Visitor interface {
	Visit(sql string, d dialect.Dialect) string
}

// Visit applies visitors to q in order.
func Visit(q string, d dialect.Dialect, visitors ...Visitor) string {
	for _, v := range visitors {
		q = v.Visit(q, d)
	}
	return q
}

// Append adds Value to the end of the statement.
type Append struct {
	Value string
	// Dialects limits the visitor to the named dialects, empty means all.
	Dialects []string
}

func (v Append) Visit(q string, d dialect.Dialect) string {
	if !appliesTo(v.Dialects, d) {
		return q
	}
	return q + v.Value
}

// Prepend adds Value in front of the statement.
type Prepend struct {
	Value    string
	Dialects []string
}

func (v Prepend) Visit(q string, d dialect.Dialect) string {
	if !appliesTo(v.Dialects, d) {
		return q
	}
	return v.Value + q
}

// Replace substitutes every occurrence of Old with New.
type Replace struct {
	Old, New string
	Dialects []string
}

func (v Replace) Visit(q string, d dialect.Dialect) string {
	if !appliesTo(v.Dialects, d) {
		return q
	}
	return strings.ReplaceAll(q, v.Old, v.New)
}

// RegexReplace substitutes every match of Pattern with Replacement.
type RegexReplace struct {
	Pattern     *regexp.Regexp
	Replacement string
	Dialects    []string
}

func (v RegexReplace) Visit(q string, d dialect.Dialect) string {
	if v.Pattern == nil || !appliesTo(v.Dialects, d) {
		return q
	}
	return v.Pattern.ReplaceAllString(q, v.Replacement)
}

func appliesTo(dialects []string, d dialect.Dialect) bool {
	if len(dialects) == 0 {
		return true
	}
	for _, name := range dialects {
		if strings.EqualFold(name, d.Name()) {
			return true
		}
	}
	return false
}
