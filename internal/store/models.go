package store

import "time"

// Setting keys.
const (
	KeyAPIKey        = "api_key"
	KeySoloMode      = "solo_mode"
	KeySoloInterval  = "solo_interval"
	KeyStartPage     = "start_page"
	KeyHideCompleted = "hide_completed"
)

// Start pages.
const (
	StartAIChat   = "AIChat"
	StartTaskList = "TaskList"
)

type Setting struct {
	Key   string
	Value string
}

// Settings is the typed view of the settings table.
type Settings struct {
	APIKey        string `validate:"required"`
	SoloMode      bool
	SoloInterval  int    `validate:"min=1"`
	StartPage     string `validate:"oneof=AIChat TaskList"`
	HideCompleted bool
}

// DefaultSettings mirrors the seeded rows.
func DefaultSettings() Settings {
	return Settings{
		SoloInterval: 5,
		StartPage:    StartAIChat,
	}
}

type ActivityKind string

const (
	ActivityTaskAdded       ActivityKind = "task_added"
	ActivityTaskCompleted   ActivityKind = "task_completed"
	ActivityTaskReopened    ActivityKind = "task_reopened"
	ActivityMessageSent     ActivityKind = "message_sent"
	ActivityMessageReceived ActivityKind = "message_received"
	ActivityTasksCleared    ActivityKind = "tasks_cleared"
	ActivityChatCleared     ActivityKind = "chat_cleared"
)

type Activity struct {
	ID      int64
	Kind    ActivityKind
	Subject string
	At      time.Time
}

// DailyActivity is the number of events of one kind on one day.
type DailyActivity struct {
	Date  string
	Kind  ActivityKind
	Count int
}
