package parser

import (
	"bufio"
	"io"
	"strings"
)

// TextParser handles a text layer that was already extracted, e.g. saved
// from a PDF viewer. Form feeds separate pages.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}

	return JoinPages(splitPages(strings.Join(lines, "\n"))), nil
}
