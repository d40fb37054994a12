package command

import (
	"context"
	"strings"
)

type LocalCommandParser struct {
	CancelKeywords []string
}

func NewLocalCommandParser() *LocalCommandParser {
	return &LocalCommandParser{
		CancelKeywords: []string{"q", "quit", "exit", "ออก", "ยกเลิก"},
	}
}

func (p *LocalCommandParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, keyword := range p.CancelKeywords {
		if normalized == keyword {
			return Cancel, nil
		}
	}
	return None, nil
}

type FailbackCommandParser struct {
	parsers []Parser
}

func NewFailbackCommandParser(parsers ...Parser) *FailbackCommandParser {
	return &FailbackCommandParser{parsers: parsers}
}

// ParseCommand returns the first successful answer; None with the last error
// when every parser fails.
func (p *FailbackCommandParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	var lastErr error
	for _, parser := range p.parsers {
		cmd, err := parser.ParseCommand(ctx, input)
		if err == nil {
			return cmd, nil
		}
		lastErr = err
	}
	return None, lastErr
}
