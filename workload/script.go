// Package workload runs line-oriented scripts that create processes, map
// memory, and access it on a simulated machine.
package workload

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrSyntax is returned for scripts that cannot be parsed.
var ErrSyntax = errors.New("syntax error")

// A Command is one line of a script.
type Command struct {
	Line int
	Name string
	Args []string
}

func (c Command) String() string {
	return fmt.Sprintf("line %d: %s", c.Line, c.Name)
}

// A Script is a parsed list of commands.
type Script struct {
	Name     string
	Commands []Command
}

type arity struct {
	min, max int
}

var arities = map[string]arity{
	"file":        {2, 3},
	"exec":        {2, 2},
	"load":        {5, 6},
	"anon":        {3, 4},
	"write":       {3, 3},
	"read":        {3, 3},
	"expect":      {3, 3},
	"segv":        {3, 3},
	"expect-file": {2, 2},
	"mmap":        {5, 6},
	"munmap":      {2, 2},
	"fork":        {2, 2},
	"exit":        {1, 1},
	"snapshot":    {0, 0},
}

// ParseFile parses the script stored at path.
func ParseFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(path, f)
}

// Parse reads a script. Empty lines and text after # are ignored. Arguments
// are separated by spaces and may be Go string literals.
func Parse(name string, r io.Reader) (*Script, error) {
	script := &Script{Name: name}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		tokens, err := tokenize(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w: %v", name, lineNo, ErrSyntax, err)
		}

		if len(tokens) == 0 {
			continue
		}

		c := Command{Line: lineNo, Name: tokens[0], Args: tokens[1:]}

		a, known := arities[c.Name]
		if !known {
			return nil, fmt.Errorf("%s:%d: %w: unknown command %q",
				name, lineNo, ErrSyntax, c.Name)
		}

		if len(c.Args) < a.min || len(c.Args) > a.max {
			return nil, fmt.Errorf("%s:%d: %w: %s takes %d to %d arguments",
				name, lineNo, ErrSyntax, c.Name, a.min, a.max)
		}

		script.Commands = append(script.Commands, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return script, nil
}

func tokenize(line string) ([]string, error) {
	var tokens []string

	for {
		line = strings.TrimLeft(line, " \t")
		if line == "" || line[0] == '#' {
			return tokens, nil
		}

		if line[0] == '"' {
			quoted, err := strconv.QuotedPrefix(line)
			if err != nil {
				return nil, fmt.Errorf("bad string %s", line)
			}

			s, err := strconv.Unquote(quoted)
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, s)
			line = line[len(quoted):]

			continue
		}

		end := strings.IndexAny(line, " \t")
		if end < 0 {
			end = len(line)
		}

		tokens = append(tokens, line[:end])
		line = line[end:]
	}
}
