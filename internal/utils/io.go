package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadFirstLine returns the first line of r with surrounding whitespace removed.
func ReadFirstLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read line: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// ReadFirstLineOfFile returns the first line of the file at path.
func ReadFirstLineOfFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadFirstLine(f)
}
