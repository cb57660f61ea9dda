package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sadopc/traetodo/internal/docstore"
)

const (
	EmptyReply  = "I'm sorry, I couldn't process your request. Please try again."
	SetupNotice = "Please set your OpenRouter API key in the settings to use the DeepSeek AI model."
)

var (
	ErrBusy         = errors.New("a request is already in progress")
	ErrEmptyMessage = errors.New("message is empty")
)

// Session is the persisted transcript plus the in-flight guard.
type Session struct {
	doc      *docstore.Document[Message]
	messages []Message
	inFlight bool
}

// OpenSession loads the transcript from doc.
func OpenSession(doc *docstore.Document[Message]) *Session {
	return &Session{doc: doc, messages: doc.LoadAll()}
}

func (s *Session) Messages() []Message {
	return s.messages
}

func (s *Session) Len() int {
	return len(s.messages)
}

func (s *Session) InFlight() bool {
	return s.inFlight
}

// Begin records the user's message and marks a request in flight. It
// returns the history to send, which excludes the new message.
func (s *Session) Begin(text string) ([]Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if s.inFlight {
		return nil, ErrBusy
	}

	history := make([]Message, len(s.messages))
	copy(history, s.messages)

	s.inFlight = true
	s.messages = append(s.messages, NewMessage(text, true))
	if err := s.save(); err != nil {
		return history, err
	}
	return history, nil
}

// Finish records the assistant reply and releases the guard.
func (s *Session) Finish(reply string) error {
	s.inFlight = false
	if strings.TrimSpace(reply) == "" {
		reply = EmptyReply
	}
	s.messages = append(s.messages, NewMessage(reply, false))
	return s.save()
}

// Abort releases the guard and records err as an assistant message.
func (s *Session) Abort(err error) {
	s.inFlight = false
	s.messages = append(s.messages, NewMessage("Error: "+err.Error(), false))
}

func (s *Session) Clear() error {
	s.messages = []Message{}
	return s.save()
}

func (s *Session) save() error {
	if err := s.doc.SaveAll(s.messages); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}
