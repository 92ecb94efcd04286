package sink

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LinePrefix starts every line of the momentum log
const LinePrefix = "Momentum: "

// FormatLine renders a momentum value as a log line (without newline).
// The value uses the shortest decimal form that parses back to the same float64.
func FormatLine(p float64) string {
	return LinePrefix + strconv.FormatFloat(p, 'g', -1, 64)
}

// ParseLine parses a single log line back into its momentum value
func ParseLine(line string) (float64, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, LinePrefix) {
		return 0, fmt.Errorf("malformed momentum line %q: missing %q prefix", line, strings.TrimSpace(LinePrefix))
	}
	raw := strings.TrimSpace(strings.TrimPrefix(line, LinePrefix))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed momentum line %q: %w", line, err)
	}
	return v, nil
}

// ReadAll parses every non-empty line of a momentum log
func ReadAll(r io.Reader) ([]float64, error) {
	var values []float64
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		v, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read momentum log: %w", err)
	}
	return values, nil
}
