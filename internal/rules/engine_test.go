package rules

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/debugassist/internal/normalize"
	"github.com/fyrsmithlabs/debugassist/pkg/family"
)

func TestEvaluateDefaultRules(t *testing.T) {
	engine := NewEngine(DefaultRules())

	tests := []struct {
		name string
		raw  string
		want family.Family
		rule string
	}{
		{
			name: "module not found",
			raw:  "ModuleNotFoundError: No module named 'requests'",
			want: family.ImportError,
			rule: "module_not_found",
		},
		{
			name: "nonetype not subscriptable",
			raw:  "TypeError: 'NoneType' object is not subscriptable",
			want: family.TypeError,
			rule: "type_error",
		},
		{
			name: "key error",
			raw:  "KeyError: 'user_id'",
			want: family.KeyError,
			rule: "key_error",
		},
		{
			name: "bare quoted key from logs",
			raw:  "'user_id'",
			want: family.KeyError,
			rule: "bare_quoted_key",
		},
		{
			name: "index out of range without header",
			raw:  "list index out of range",
			want: family.IndexError,
			rule: "index_out_of_range",
		},
		{
			name: "permission denied",
			raw:  "PermissionError: [Errno 13] Permission denied: '/etc/hosts'",
			want: family.FileError,
			rule: "permission_error",
		},
		{
			name: "connection refused",
			raw:  "requests.exceptions.ConnectionError: Failed to establish a new connection: [Errno 111] Connection refused",
			want: family.ConnectionErr,
			rule: "requests_connection_error",
		},
		{
			name: "division by zero",
			raw:  "ZeroDivisionError: division by zero",
			want: family.ZeroDivision,
			rule: "zero_division_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := engine.Evaluate(normalize.Text(tt.raw))
			require.True(t, ok)
			assert.Equal(t, tt.want, m.Family)
			assert.Equal(t, tt.rule, m.Rule)
		})
	}
}

func TestEvaluateNoMatch(t *testing.T) {
	engine := NewEngine(DefaultRules())

	for _, raw := range []string{
		"",
		"my list thing broke when I looked something up",
		"the app just feels slow today",
	} {
		_, ok := engine.Evaluate(normalize.Text(raw))
		assert.False(t, ok, "expected no match for %q", raw)
	}
}

func TestEvaluateFirstMatchWins(t *testing.T) {
	// Two rules both match; the earlier declared one must win.
	table := []Rule{
		{Name: "first", Family: family.TypeError, Pattern: regexp.MustCompile(`typeerror`)},
		{Name: "second", Family: family.ValueError, Pattern: regexp.MustCompile(`typeerror`)},
	}
	engine := NewEngine(table)

	m, ok := engine.Evaluate("typeerror: boom")
	require.True(t, ok)
	assert.Equal(t, "first", m.Rule)
	assert.Equal(t, family.TypeError, m.Family)
}

func TestNewEngineCopiesTable(t *testing.T) {
	table := []Rule{
		{Name: "only", Family: family.TypeError, Pattern: regexp.MustCompile(`typeerror`)},
	}
	engine := NewEngine(table)
	table[0] = Rule{Name: "swapped", Family: family.ValueError, Pattern: regexp.MustCompile(`.*`)}

	m, ok := engine.Evaluate("typeerror")
	require.True(t, ok)
	assert.Equal(t, "only", m.Rule)
}

func TestDefaultRulesResolveToDeclaredFamilies(t *testing.T) {
	for _, r := range DefaultRules() {
		assert.True(t, family.Valid(r.Family), "rule %s maps to undeclared family %s", r.Name, r.Family)
	}
}
