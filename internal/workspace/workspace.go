// Package workspace binds one data directory: the task document, the chat
// transcript, the settings database and the chat client. Every mutation
// persists immediately and is recorded in the activity log.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sadopc/traetodo/internal/chat"
	"github.com/sadopc/traetodo/internal/config"
	"github.com/sadopc/traetodo/internal/docstore"
	"github.com/sadopc/traetodo/internal/store"
	"github.com/sadopc/traetodo/internal/todo"
)

type Workspace struct {
	Store  *store.Store
	Chat   *chat.Session
	Client *chat.Client

	tasks   *todo.List
	taskDoc *docstore.Document[todo.Task]
	envKey  string
}

// Open opens the files under cfg.DataDir.
func Open(cfg *config.Config) (*Workspace, error) {
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	return New(st,
		docstore.Open[todo.Task](cfg.TasksPath()),
		docstore.Open[chat.Message](cfg.MessagesPath()),
		cfg,
	), nil
}

// New wires already opened parts. cfg may be nil.
func New(st *store.Store, tasks *docstore.Document[todo.Task], messages *docstore.Document[chat.Message], cfg *config.Config) *Workspace {
	w := &Workspace{
		Store:   st,
		Chat:    chat.OpenSession(messages),
		tasks:   todo.NewList(tasks.LoadAll()),
		taskDoc: tasks,
	}
	w.Client = chat.NewClient(w.APIKey)
	if cfg != nil {
		w.envKey = cfg.APIKey
		w.Client.Endpoint = cfg.Endpoint
		w.Client.Model = cfg.Model
	}
	return w
}

func (w *Workspace) Close() error {
	return w.Store.Close()
}

// APIKey prefers the key saved in settings over the environment.
func (w *Workspace) APIKey() string {
	if k := strings.TrimSpace(w.Store.APIKey()); k != "" {
		return k
	}
	return strings.TrimSpace(w.envKey)
}

// Settings returns the stored settings, defaults on error.
func (w *Workspace) Settings() store.Settings {
	st, err := w.Store.LoadSettings()
	if err != nil {
		slog.Warn("load settings", "error", err)
	}
	return st
}

func (w *Workspace) Tasks() []todo.Task {
	return w.tasks.Tasks()
}

func (w *Workspace) AddTask(description string) (todo.Task, error) {
	t := todo.NewTask(description)
	if err := w.tasks.Add(t); err != nil {
		return todo.Task{}, err
	}
	w.record(store.ActivityTaskAdded, t.Description)
	return t, w.saveTasks()
}

// AddFromMessage turns chat text into a task with a checklist.
func (w *Workspace) AddFromMessage(text string) (todo.Extraction, error) {
	ex := todo.FromMessage(text)
	if err := w.tasks.Add(ex.Task); err != nil {
		return ex, err
	}
	w.record(store.ActivityTaskAdded, ex.Task.Description)
	return ex, w.saveTasks()
}

// ToggleTask flips task i and returns its new state.
func (w *Workspace) ToggleTask(i int) (bool, error) {
	done, err := w.tasks.ToggleCompletion(i)
	if err != nil {
		return false, err
	}
	w.recordCompletion(i, done)
	return done, w.saveTasks()
}

// ToggleSubtask flips subtask j of task i. It reports whether the parent
// changed and the parent's state after the toggle.
func (w *Workspace) ToggleSubtask(i, j int) (changed, parentDone bool, err error) {
	changed, err = w.tasks.ToggleSubtaskCompletion(i, j)
	if err != nil {
		return false, false, err
	}
	t, _ := w.tasks.Get(i)
	if changed {
		w.recordCompletion(i, t.IsCompleted)
	}
	return changed, t.IsCompleted, w.saveTasks()
}

func (w *Workspace) ClearTasks() error {
	w.tasks.Clear()
	w.record(store.ActivityTasksCleared, "")
	return w.saveTasks()
}

func (w *Workspace) ClearChat() error {
	if err := w.Chat.Clear(); err != nil {
		return err
	}
	w.record(store.ActivityChatCleared, "")
	return nil
}

// BeginMessage records the user's message and returns the history to send.
// When the transcript cannot be saved the exchange is aborted and no request
// should be made.
func (w *Workspace) BeginMessage(text string) ([]chat.Message, error) {
	history, err := w.Chat.Begin(text)
	if errors.Is(err, chat.ErrBusy) || errors.Is(err, chat.ErrEmptyMessage) {
		return nil, err
	}
	if err != nil {
		w.Chat.Abort(err)
		return nil, err
	}
	w.record(store.ActivityMessageSent, "")
	return history, nil
}

// Reply performs the request. It does not touch the transcript, so it may
// run off the UI loop.
func (w *Workspace) Reply(ctx context.Context, text string, history []chat.Message) string {
	return w.Client.Send(ctx, strings.TrimSpace(text), history)
}

// FinishMessage appends the assistant's reply.
func (w *Workspace) FinishMessage(reply string) error {
	w.record(store.ActivityMessageReceived, "")
	return w.Chat.Finish(reply)
}

// Ask runs one full exchange and returns the reply.
func (w *Workspace) Ask(ctx context.Context, text string) (string, error) {
	history, err := w.BeginMessage(text)
	if err != nil {
		return "", err
	}
	reply := w.Reply(ctx, text, history)
	if err := w.FinishMessage(reply); err != nil {
		return reply, err
	}
	msgs := w.Chat.Messages()
	return msgs[len(msgs)-1].Content, nil
}

func (w *Workspace) saveTasks() error {
	if err := w.taskDoc.SaveAll(w.tasks.Tasks()); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

func (w *Workspace) recordCompletion(i int, done bool) {
	t, _ := w.tasks.Get(i)
	kind := store.ActivityTaskReopened
	if done {
		kind = store.ActivityTaskCompleted
	}
	w.record(kind, t.Description)
}

// record logs activity; failures are logged, not returned.
func (w *Workspace) record(kind store.ActivityKind, subject string) {
	if err := w.Store.LogActivity(kind, subject); err != nil {
		slog.Warn("log activity", "kind", kind, "error", err)
	}
}
