package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "whitespace only",
			in:   "  \n\t ",
			want: "",
		},
		{
			name: "lowercases and collapses whitespace",
			in:   "TypeError:   unsupported\n\toperand",
			want: "typeerror: unsupported operand",
		},
		{
			name: "line numbers",
			in:   `File "app.py", line 42, in run`,
			want: `file <str>, line <line>, in run`,
		},
		{
			name: "unix path",
			in:   "No such file or directory: /home/user/data.txt",
			want: "no such file or directory: <path>",
		},
		{
			name: "windows path",
			in:   `opening C:\Users\User\input.txt failed`,
			want: "opening <path> failed",
		},
		{
			name: "hex and integers",
			in:   "object at 0xDEADBEEF exited with 137",
			want: "object at <hex> exited with <num>",
		},
		{
			name: "quoted strings",
			in:   `KeyError: 'user_id'`,
			want: "keyerror: <str>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestTextIdempotent(t *testing.T) {
	in := `Traceback (most recent call last):
  File "main.py", line 12, in <module>
    data = payload['user_id']
KeyError: 'user_id'`

	once := Text(in)
	assert.Equal(t, once, Text(once))
}

func TestCombine(t *testing.T) {
	assert.Equal(t, "err", Combine("err", ""))
	assert.Equal(t, "err", Combine("err", "   "))
	assert.Equal(t, "err\n<code>\nx = 1", Combine("err", "x = 1"))
}
