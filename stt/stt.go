// Package stt defines the speech-to-text collaborator used by a conversation.
package stt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrEmptyAudio = errors.New("empty audio")

// Audio is one recorded utterance as an encoded file (wav, mp3, m4a, ...).
type Audio struct {
	Name string
	Data []byte
}

// Transcriber turns one utterance into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// LoadAudio reads an audio file from disk.
func LoadAudio(path string) (Audio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Audio{}, fmt.Errorf("read audio %s: %w", path, err)
	}
	if len(data) == 0 {
		return Audio{}, fmt.Errorf("read audio %s: %w", path, ErrEmptyAudio)
	}
	return Audio{Name: filepath.Base(path), Data: data}, nil
}

// NormalizeTranscript collapses whitespace runs into single spaces and trims.
func NormalizeTranscript(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// FileName returns the audio name, or a default for unnamed uploads.
func (a Audio) FileName() string {
	if a.Name == "" {
		return "audio.wav"
	}
	return a.Name
}

// Func adapts a plain function to Transcriber.
type Func func(ctx context.Context, audio Audio) (string, error)

func (f Func) Transcribe(ctx context.Context, audio Audio) (string, error) {
	return f(ctx, audio)
}
