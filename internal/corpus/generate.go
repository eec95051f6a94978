package corpus

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/debugassist/pkg/family"
)

// GenerateOptions plan a synthetic corpus. Exactly one of Total or PerClass
// must be set.
type GenerateOptions struct {
	// Total rows across all families, split as evenly as possible.
	Total int

	// PerClass rows for every family.
	PerClass int

	// Seed makes the generated texts reproducible.
	Seed int64
}

// ErrBadPlan indicates Total/PerClass were not specified correctly.
var ErrBadPlan = errors.New("provide exactly one of total or per-class, greater than zero")

// template fill material, mirrored from the real-world tracebacks the
// classifier is meant to see.
var (
	genModules = []string{"requests", "numpy", "pandas", "flask", "django", "matplotlib", "sklearn", "yaml", "joblib", "bs4", "lxml"}
	genFiles   = []string{"main.py", "app.py", "script.py", "server.py", "utils.py", "src/handler.py", "src/service.py", "project/module.py"}
	genFuncs   = []string{"run", "main", "handler", "process", "parse", "load_data", "save_results", "compute", "transform", "validate"}
	genVars    = []string{"data", "items", "result", "user", "payload", "config", "count", "total", "value", "idx", "key"}
	genKeys    = []string{"user_id", "email", "name", "age", "items", "token", "id", "status", "created_at", "updated_at"}
	genPaths   = []string{"data/input.csv", "data/users.json", "configs/app.yaml", "logs/app.log", `C:\Users\User\Desktop\input.txt`, "/home/user/project/data/input.txt"}
	genHosts   = []string{"api.example.com", "localhost", "127.0.0.1", "example.org", "service.internal"}
	genURLs    = []string{"https://api.example.com/v1/users", "https://example.org/data", "http://localhost:8000/health", "https://service.internal/api"}
	genStrings = []string{"abc", "12a", "None", "TRUE", "3.14.15", "01-32-2025"}
	genTypes   = []string{"int", "str", "list", "dict", "NoneType", "float", "bool"}
	genAttrs   = []string{"split", "items", "get", "append", "read", "to_json", "keys"}
	genNames   = []string{"get", "post", "Client", "Session", "DataFrame", "load", "dump"}
	genBadLine = []string{
		"if x == 3 print(x)",
		"def func(x)\n        return x",
		"for i in range(10)\n    print(i)",
		"print('hello'",
		"my_list = [1, 2, 3",
		"return return x",
	}
)

// templateSpec pairs traceback templates with representative fix texts.
type templateSpec struct {
	templates []func(r *rand.Rand) string
	fixes     []string
}

func pick(r *rand.Rand, xs []string) string {
	return xs[r.Intn(len(xs))]
}

func line(r *rand.Rand) int {
	return 1 + r.Intn(250)
}

func specs() map[family.Family]templateSpec {
	return map[family.Family]templateSpec{
		family.ImportError: {
			templates: []func(*rand.Rand) string{
				func(r *rand.Rand) string {
					m := pick(r, genModules)
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in <module>\n    import %s\nModuleNotFoundError: No module named '%s'",
						pick(r, genFiles), line(r), m, m)
				},
				func(r *rand.Rand) string {
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in <module>\n    from %s import %s\nImportError: cannot import name '%s' from '%s'",
						pick(r, genFiles), line(r), pick(r, genModules), pick(r, genNames), pick(r, genNames), pick(r, genModules))
				},
			},
			fixes: []string{
				"Install the missing dependency: python -m pip install <module>; verify the correct virtual environment is active; restart the interpreter/kernel.",
				"Check the module version and import path; ensure the symbol exists in the installed package; avoid naming your file the same as the package.",
			},
		},
		family.SyntaxError: {
			templates: []func(*rand.Rand) string{
				func(r *rand.Rand) string {
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d\n    %s\nSyntaxError: invalid syntax",
						pick(r, genFiles), line(r), pick(r, genBadLine))
				},
				func(r *rand.Rand) string {
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d\n    %s\nIndentationError: unexpected indent",
						pick(r, genFiles), line(r), pick(r, genBadLine))
				},
			},
			fixes: []string{
				"Check the indicated line for missing punctuation (':', ')', ']', quotes) or incomplete statements; comment out recent edits to isolate.",
				"Fix indentation consistency (spaces vs tabs); ensure blocks align; use 4 spaces per indent and reformat the file.",
			},
		},
		family.TypeError: {
			templates: []func(*rand.Rand) string{
				func(r *rand.Rand) string {
					v := pick(r, genVars)
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    %s = %s + %s\nTypeError: unsupported operand type(s) for +: '%s' and '%s'",
						pick(r, genFiles), line(r), pick(r, genFuncs), v, v, pick(r, genVars), pick(r, genTypes), pick(r, genTypes))
				},
				func(r *rand.Rand) string {
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    %s()\nTypeError: '%s' object is not callable",
						pick(r, genFiles), line(r), pick(r, genFuncs), pick(r, genVars), pick(r, genTypes))
				},
			},
			fixes: []string{
				"Inspect types with type(x); convert/cast to compatible types before operation; validate inputs (e.g., int(), float(), str()).",
				"You may be shadowing a function name with a variable; rename the variable or ensure you're calling a function, not a string/list/dict.",
			},
		},
		family.ValueError: {
			templates: []func(*rand.Rand) string{
				func(r *rand.Rand) string {
					s := pick(r, genStrings)
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    %s = int('%s')\nValueError: invalid literal for int() with base 10: '%s'",
						pick(r, genFiles), line(r), pick(r, genFuncs), pick(r, genVars), s, s)
				},
				func(r *rand.Rand) string {
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    %s.remove(%d)\nValueError: list.remove(x): x not in list",
						pick(r, genFiles), line(r), pick(r, genFuncs), pick(r, genVars), r.Intn(1000))
				},
			},
			fixes: []string{
				"Validate/clean the string before casting; use try/except around parsing; confirm the expected format.",
				"Check whether the value exists before removing; use 'if x in list:'; verify list contents and logic.",
			},
		},
		family.AttributeError: {
			templates: []func(*rand.Rand) string{
				func(r *rand.Rand) string {
					a := pick(r, genAttrs)
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    %s.%s()\nAttributeError: '%s' object has no attribute '%s'",
						pick(r, genFiles), line(r), pick(r, genFuncs), pick(r, genVars), a, pick(r, genTypes), a)
				},
				func(r *rand.Rand) string {
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    %s.split(',')\nAttributeError: 'NoneType' object has no attribute 'split'",
						pick(r, genFiles), line(r), pick(r, genFuncs), pick(r, genVars))
				},
			},
			fixes: []string{
				"Print the object and type(obj) before the failing line; confirm the attribute exists; check spelling and expected object type.",
				"Add a None-check before calling methods; ensure the variable is initialized and assigned the expected value before use.",
			},
		},
		family.KeyError: {
			templates: []func(*rand.Rand) string{
				func(r *rand.Rand) string {
					k := pick(r, genKeys)
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    %s = %s['%s']\nKeyError: '%s'",
						pick(r, genFiles), line(r), pick(r, genFuncs), pick(r, genVars), pick(r, genVars), k, k)
				},
				func(r *rand.Rand) string {
					return fmt.Sprintf("ERROR: Failed to process request\n'%s'", pick(r, genKeys))
				},
			},
			fixes: []string{
				"Print dictionary keys and confirm the key exists; use dict.get(key, default) when appropriate; normalize key formatting (case/whitespace).",
				"If this came from logs, treat it like a missing dict key; add guard logic and verify upstream data shape.",
			},
		},
		family.IndexError: {
			templates: []func(*rand.Rand) string{
				func(r *rand.Rand) string {
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    %s = %s[%d]\nIndexError: list index out of range",
						pick(r, genFiles), line(r), pick(r, genFuncs), pick(r, genVars), pick(r, genVars), r.Intn(26))
				},
				func(r *rand.Rand) string {
					return "list index out of range"
				},
			},
			fixes: []string{
				"Check list length with len(list); guard bounds; review loop conditions for off-by-one errors; handle empty lists.",
				"If the traceback is missing, still treat it as an IndexError; add bounds checks and validate inputs.",
			},
		},
		family.FileError: {
			templates: []func(*rand.Rand) string{
				func(r *rand.Rand) string {
					p := pick(r, genPaths)
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    f = open('%s', 'r')\nFileNotFoundError: [Errno 2] No such file or directory: '%s'",
						pick(r, genFiles), line(r), pick(r, genFuncs), p, p)
				},
				func(r *rand.Rand) string {
					p := pick(r, genPaths)
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    f = open('%s', 'w')\nPermissionError: [Errno 13] Permission denied: '%s'",
						pick(r, genFiles), line(r), pick(r, genFuncs), p, p)
				},
			},
			fixes: []string{
				"Print the absolute path and working directory; confirm the file exists; use pathlib to build paths; ensure correct relative path.",
				"Write to a permitted directory; check file/folder permissions; avoid protected OS paths; run with correct permissions if necessary.",
			},
		},
		family.ZeroDivision: {
			templates: []func(*rand.Rand) string{
				func(r *rand.Rand) string {
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    %s = %d / 0\nZeroDivisionError: division by zero",
						pick(r, genFiles), line(r), pick(r, genFuncs), pick(r, genVars), r.Intn(1000))
				},
				func(r *rand.Rand) string {
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    %s = %d // 0\nZeroDivisionError: integer division or modulo by zero",
						pick(r, genFiles), line(r), pick(r, genFuncs), pick(r, genVars), r.Intn(1000))
				},
			},
			fixes: []string{
				"Guard denominators (if denom == 0); validate input ranges; handle empty/zero values before division.",
				"Check that a divisor is never zero; add fallback logic or filtering for invalid values.",
			},
		},
		family.ConnectionErr: {
			templates: []func(*rand.Rand) string{
				func(r *rand.Rand) string {
					timeouts := []int{1, 2, 3, 5, 10}
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    r = requests.get('%s', timeout=%d)\nrequests.exceptions.Timeout: HTTPSConnectionPool(host='%s', port=443): Read timed out.",
						pick(r, genFiles), line(r), pick(r, genFuncs), pick(r, genURLs), timeouts[r.Intn(len(timeouts))], pick(r, genHosts))
				},
				func(r *rand.Rand) string {
					return fmt.Sprintf("Traceback (most recent call last):\n  File \"%s\", line %d, in %s\n    r = requests.get('%s')\nrequests.exceptions.ConnectionError: Failed to establish a new connection: [Errno 111] Connection refused",
						pick(r, genFiles), line(r), pick(r, genFuncs), pick(r, genURLs))
				},
			},
			fixes: []string{
				"Increase timeout; verify network connectivity/DNS; confirm the service is up; add retries/backoff; check proxy settings.",
				"Confirm the host/port is correct and reachable; check the server is running; validate firewall rules; try curl/ping for diagnostics.",
			},
		},
	}
}

// maybeTruncate simulates real-world pastes: users sometimes paste only the
// last line or two of a traceback, or drop the Traceback header.
func maybeTruncate(r *rand.Rand, trace string) string {
	trimmed := strings.Trim(trace, "\n")
	lines := strings.Split(trimmed, "\n")
	if len(lines) <= 3 {
		return trimmed
	}

	switch roll := r.Float64(); {
	case roll < 0.20:
		return lines[len(lines)-1]
	case roll < 0.40:
		return strings.Join(lines[len(lines)-2:], "\n")
	case roll < 0.55 && strings.HasPrefix(lines[0], "Traceback"):
		return strings.Join(lines[1:], "\n")
	default:
		return trimmed
	}
}

// planCounts splits the requested volume across families.
func planCounts(opts GenerateOptions, r *rand.Rand) (map[family.Family]int, error) {
	if (opts.Total == 0) == (opts.PerClass == 0) {
		return nil, ErrBadPlan
	}

	counts := make(map[family.Family]int, family.Count())

	if opts.PerClass != 0 {
		if opts.PerClass < 0 {
			return nil, ErrBadPlan
		}
		for _, f := range family.All() {
			counts[f] = opts.PerClass
		}
		return counts, nil
	}

	if opts.Total < 0 {
		return nil, ErrBadPlan
	}
	base := opts.Total / family.Count()
	rem := opts.Total % family.Count()
	for _, f := range family.All() {
		counts[f] = base
	}
	// Spread the remainder over a shuffled family order.
	fams := family.All()
	r.Shuffle(len(fams), func(i, j int) { fams[i], fams[j] = fams[j], fams[i] })
	for i := 0; i < rem; i++ {
		counts[fams[i]]++
	}
	return counts, nil
}

var fixSpaceRe = strings.NewReplacer("\n", " ", "\t", " ")

// Generate produces a labeled synthetic corpus. The same options yield the
// same rows.
func Generate(opts GenerateOptions) ([]Case, error) {
	r := rand.New(rand.NewSource(opts.Seed))

	counts, err := planCounts(opts, r)
	if err != nil {
		return nil, err
	}

	table := specs()
	var cases []Case
	for _, f := range family.All() {
		spec := table[f]
		for i := 0; i < counts[f]; i++ {
			tmpl := spec.templates[r.Intn(len(spec.templates))]
			fix := fixSpaceRe.Replace(spec.fixes[r.Intn(len(spec.fixes))])
			cases = append(cases, Case{
				// UUIDs come from the seeded source so identical
				// options reproduce the corpus byte for byte.
				ID: "case_" + uuid.Must(uuid.NewRandomFromReader(r)).String(),
				Text:   maybeTruncate(r, tmpl(r)),
				Family: f,
				Fix:    fix,
			})
		}
	}

	// Shuffle so families are interleaved in the written corpus.
	r.Shuffle(len(cases), func(i, j int) { cases[i], cases[j] = cases[j], cases[i] })
	return cases, nil
}
