package command

import "context"

type Command string

const (
	Cancel Command = "cancel"
	None   Command = "none"
)

// Parser decides whether a line typed at the interactive prompt is a command
// rather than an audio file path.
type Parser interface {
	ParseCommand(ctx context.Context, input string) (Command, error)
}
