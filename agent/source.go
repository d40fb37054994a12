package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tbxark/voiceform/command"
	"github.com/tbxark/voiceform/stt"
)

// LineReader reads one line typed by the user. Implementations return
// io.EOF or ErrAbandoned when the user closes the prompt.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// PathSource asks the user for the path of each answer's audio file. A path
// that cannot be loaded is reported and asked for again without costing a
// turn.
type PathSource struct {
	Lines  LineReader
	Parser command.Parser
	Load   func(path string) (stt.Audio, error)
	Out    io.Writer
	Prompt string

	first string
}

func NewPathSource(lines LineReader, out io.Writer, firstPath string) *PathSource {
	return &PathSource{
		Lines:  lines,
		Parser: command.NewLocalCommandParser(),
		Load:   stt.LoadAudio,
		Out:    out,
		Prompt: "พิมพ์ path ไฟล์เสียงรอบถัดไป (หรือพิมพ์ q เพื่อออก): ",
		first:  firstPath,
	}
}

func (s *PathSource) NextAudio(ctx context.Context, prompt *Response) (stt.Audio, error) {
	if prompt != nil {
		s.show(prompt)
	}
	for {
		if err := ctx.Err(); err != nil {
			return stt.Audio{}, err
		}
		line, err := s.next()
		if errors.Is(err, io.EOF) || errors.Is(err, ErrAbandoned) {
			return stt.Audio{}, ErrAbandoned
		}
		if err != nil {
			return stt.Audio{}, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, err := s.Parser.ParseCommand(ctx, line)
		if err != nil {
			slog.Warn("Failed to parse command", "input", line, "error", err)
		}
		if cmd == command.Cancel {
			return stt.Audio{}, ErrAbandoned
		}
		audio, err := s.Load(line)
		if err != nil {
			fmt.Fprintf(s.Out, "ไม่พบไฟล์: %s\nลองใหม่อีกครั้ง\n", line)
			continue
		}
		return audio, nil
	}
}

func (s *PathSource) next() (string, error) {
	if s.first != "" {
		line := s.first
		s.first = ""
		return line, nil
	}
	return s.Lines.ReadLine(s.Prompt)
}

func (s *PathSource) show(prompt *Response) {
	data, err := sonic.ConfigStd.MarshalIndent(prompt, "", "  ")
	if err != nil {
		fmt.Fprintln(s.Out, prompt.Message)
		return
	}
	fmt.Fprintf(s.Out, "\n=== CURRENT RESULT ===\n%s\n", data)
}
