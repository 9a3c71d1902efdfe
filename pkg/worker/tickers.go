package worker

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadTickersFile reads a ticker list from a file, see ReadTickers.
func ReadTickersFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return ReadTickers(file)
}

// ReadTickers reads tickers separated by newlines or commas. Blank lines and
// lines starting with # are skipped.
func ReadTickers(r io.Reader) ([]string, error) {
	var tickers []string
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, t := range strings.Split(line, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, t)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading tickers at line %d: %w", lineNum, err)
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers found")
	}
	return tickers, nil
}
