// Package rules implements the high-precision first stage of the pipeline:
// an ordered table of pattern → family matchers evaluated against normalized
// text. The first matching rule wins; evaluation order is the declaration
// order of the table, so results are deterministic and reproducible.
package rules

import (
	"regexp"

	"github.com/fyrsmithlabs/debugassist/pkg/family"
)

// Rule maps one normalized-text pattern to an error family.
type Rule struct {
	// Name identifies the rule in logs and match results.
	Name string

	// Family is the label produced when the pattern fires.
	Family family.Family

	// Pattern is evaluated with regexp.Pattern.MatchString against
	// normalized text (already lowercased).
	Pattern *regexp.Regexp
}

// Match is the result of a rule firing. Rule matches carry certainty 1.0.
type Match struct {
	Family family.Family
	Rule   string
}

// Engine evaluates rules in declared order.
type Engine struct {
	rules []Rule
}

// NewEngine builds an engine over the given ordered rule table. The slice is
// copied so later mutation by the caller cannot change evaluation order.
func NewEngine(rules []Rule) *Engine {
	owned := make([]Rule, len(rules))
	copy(owned, rules)
	return &Engine{rules: owned}
}

// Evaluate returns the first rule matching the normalized text. The second
// return value is false when no rule fires, which is the expected common
// case that triggers the statistical fallback, not an error.
func (e *Engine) Evaluate(normText string) (Match, bool) {
	if normText == "" {
		return Match{}, false
	}
	for _, r := range e.rules {
		if r.Pattern.MatchString(normText) {
			return Match{Family: r.Family, Rule: r.Name}, true
		}
	}
	return Match{}, false
}

// Len returns the number of rules in the table.
func (e *Engine) Len() int {
	return len(e.rules)
}

// DefaultRules is the built-in rule table. Patterns are written against
// normalized text: lowercase, with quoted strings collapsed to <str> and
// integers to <num>.
func DefaultRules() []Rule {
	mk := func(name string, fam family.Family, expr string) Rule {
		return Rule{Name: name, Family: fam, Pattern: regexp.MustCompile(expr)}
	}
	return []Rule{
		mk("module_not_found", family.ImportError, `\bmodulenotfounderror\b`),
		mk("import_error", family.ImportError, `\bimporterror\b`),
		mk("no_module_named", family.ImportError, `\bno module named\b`),
		mk("cannot_import_name", family.ImportError, `\bcannot import name\b`),

		mk("syntax_error", family.SyntaxError, `\bsyntaxerror\b`),
		mk("indentation_error", family.SyntaxError, `\bindentationerror\b`),
		mk("unexpected_indent", family.SyntaxError, `\bunexpected indent\b`),
		mk("expected_indented_block", family.SyntaxError, `\bexpected an indented block\b`),

		mk("type_error", family.TypeError, `\btypeerror\b`),
		mk("not_callable", family.TypeError, `\bnot callable\b`),
		mk("unsupported_operand", family.TypeError, `\bunsupported operand type`),
		mk("has_no_len", family.TypeError, `\bhas no len\(\)`),

		mk("value_error", family.ValueError, `\bvalueerror\b`),
		mk("invalid_int_literal", family.ValueError, `\binvalid literal for int\(\)`),
		mk("string_to_float", family.ValueError, `\bcould not convert string to float\b`),
		mk("remove_not_in_list", family.ValueError, `\blist\.remove\(x\): x not in list\b`),

		mk("attribute_error", family.AttributeError, `\battributeerror\b`),
		mk("has_no_attribute", family.AttributeError, `\bhas no attribute\b`),

		mk("key_error", family.KeyError, `\bkeyerror\b`),
		mk("bare_quoted_key", family.KeyError, `^<str>$`),

		mk("index_error", family.IndexError, `\bindexerror\b`),
		mk("index_out_of_range", family.IndexError, `\blist index out of range\b`),

		mk("file_not_found", family.FileError, `\bfilenotfounderror\b`),
		mk("permission_error", family.FileError, `\bpermissionerror\b`),
		mk("no_such_file", family.FileError, `\bno such file or directory\b`),
		mk("permission_denied", family.FileError, `\bpermission denied\b`),

		mk("zero_division_error", family.ZeroDivision, `\bzerodivisionerror\b`),
		mk("division_by_zero", family.ZeroDivision, `\bdivision by zero\b`),
		mk("integer_division_by_zero", family.ZeroDivision, `\binteger division or modulo by zero\b`),

		mk("requests_timeout", family.ConnectionErr, `\brequests\.exceptions\.timeout\b`),
		mk("requests_connection_error", family.ConnectionErr, `\brequests\.exceptions\.connectionerror\b`),
		mk("read_timed_out", family.ConnectionErr, `\bread timed out\b`),
		mk("connection_refused", family.ConnectionErr, `\bconnection refused\b`),
	}
}
