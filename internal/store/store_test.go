package store

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/traetodo.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.SetSetting(KeyStartPage, StartTaskList)
	s.Close()

	// Reopen: must not re-seed over stored values
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	v, _ := s2.GetSetting(KeyStartPage)
	if v != StartTaskList {
		t.Fatalf("expected persisted %q, got %q", StartTaskList, v)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)

	defaults := map[string]string{
		KeyAPIKey:        "",
		KeySoloMode:      "false",
		KeySoloInterval:  "5",
		KeyStartPage:     "AIChat",
		KeyHideCompleted: "false",
	}

	for k, expected := range defaults {
		val, err := s.GetSetting(k)
		if err != nil {
			t.Fatalf("GetSetting(%q): %v", k, err)
		}
		if val != expected {
			t.Fatalf("GetSetting(%q) = %q, want %q", k, val, expected)
		}
	}

	st, err := s.LoadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if st != DefaultSettings() {
		t.Fatalf("LoadSettings = %+v, want defaults", st)
	}
}

func TestSetSettingOverwrite(t *testing.T) {
	s := newTestStore(t)

	s.SetSetting("key", "v1")
	s.SetSetting("key", "v2")
	val, _ := s.GetSetting("key")
	if val != "v2" {
		t.Fatalf("expected v2, got %s", val)
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSetting("nonexistent")
	if err == nil {
		t.Fatal("expected error for missing setting")
	}
}

func TestGetAllSettings(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 default settings, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key >= all[i].Key {
			t.Fatalf("settings not sorted: %s >= %s", all[i-1].Key, all[i].Key)
		}
	}
}

func TestSaveAndLoadSettings(t *testing.T) {
	s := newTestStore(t)
	want := Settings{
		APIKey:        "sk-or-123",
		SoloMode:      true,
		SoloInterval:  12,
		StartPage:     StartTaskList,
		HideCompleted: true,
	}
	if err := s.SaveSettings(want); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if s.APIKey() != "sk-or-123" {
		t.Fatalf("APIKey() = %q", s.APIKey())
	}
}

func TestSaveSettingsValidation(t *testing.T) {
	s := newTestStore(t)
	bad := []Settings{
		{APIKey: "", SoloInterval: 5, StartPage: StartAIChat},
		{APIKey: "k", SoloInterval: 0, StartPage: StartAIChat},
		{APIKey: "k", SoloInterval: 5, StartPage: "Home"},
	}
	for i, st := range bad {
		if err := s.SaveSettings(st); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, st)
		}
	}
	// Nothing should have been written
	if got, _ := s.LoadSettings(); got != DefaultSettings() {
		t.Fatalf("settings changed after rejected saves: %+v", got)
	}
}

func TestUpdateSetting(t *testing.T) {
	s := newTestStore(t)

	ok := [][2]string{
		{KeySoloInterval, "3"},
		{KeySoloMode, "true"},
		{KeyStartPage, StartTaskList},
		{KeyHideCompleted, "true"},
		{KeyAPIKey, ""},
	}
	for _, kv := range ok {
		if err := s.UpdateSetting(kv[0], kv[1]); err != nil {
			t.Fatalf("UpdateSetting(%s, %s): %v", kv[0], kv[1], err)
		}
	}

	bad := [][2]string{
		{KeySoloInterval, "0"},
		{KeySoloInterval, "-2"},
		{KeySoloInterval, "soon"},
		{KeySoloMode, "yes"},
		{KeyStartPage, "Settings"},
		{"color", "blue"},
	}
	for _, kv := range bad {
		if err := s.UpdateSetting(kv[0], kv[1]); err == nil {
			t.Fatalf("UpdateSetting(%s, %s) should fail", kv[0], kv[1])
		}
	}

	v, _ := s.GetSetting(KeySoloInterval)
	if v != "3" {
		t.Fatalf("interval = %q, want 3", v)
	}
}

func TestLoadSettingsFallsBackOnGarbage(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting(KeySoloInterval, "abc")
	s.SetSetting(KeyStartPage, "Nowhere")
	s.SetSetting(KeySoloMode, "maybe")

	st, err := s.LoadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if st.SoloInterval != 5 || st.StartPage != StartAIChat || st.SoloMode {
		t.Fatalf("expected defaults, got %+v", st)
	}
}

func TestSetHideCompleted(t *testing.T) {
	s := newTestStore(t)
	s.SetHideCompleted(true)
	st, _ := s.LoadSettings()
	if !st.HideCompleted {
		t.Fatal("hide completed should be on")
	}
}

// ============================================================
// Activity
// ============================================================

func TestLogAndListActivity(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC().Add(-time.Hour)
	s.logActivityAt(ActivityTaskAdded, "a", base)
	s.logActivityAt(ActivityTaskCompleted, "a", base.Add(time.Minute))
	s.LogActivity(ActivityMessageSent, "hello")

	all, err := s.ListActivity(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].Kind != ActivityMessageSent {
		t.Fatalf("expected newest first, got %s", all[0].Kind)
	}
	if all[2].Subject != "a" || all[2].At.IsZero() {
		t.Fatalf("unexpected oldest event: %+v", all[2])
	}

	limited, _ := s.ListActivity(1)
	if len(limited) != 1 {
		t.Fatalf("expected 1 event with limit, got %d", len(limited))
	}
}

func TestListActivityEmpty(t *testing.T) {
	s := newTestStore(t)
	all, err := s.ListActivity(10)
	if err != nil {
		t.Fatal(err)
	}
	if all != nil {
		t.Fatalf("expected nil slice, got %d items", len(all))
	}
}

func TestGetDailyActivity(t *testing.T) {
	s := newTestStore(t)
	day1 := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	s.logActivityAt(ActivityTaskCompleted, "a", day1)
	s.logActivityAt(ActivityTaskCompleted, "b", day1.Add(2*time.Hour))
	s.logActivityAt(ActivityMessageSent, "hi", day1)
	s.logActivityAt(ActivityTaskCompleted, "c", day2)
	s.logActivityAt(ActivityTaskCompleted, "outside", day2.AddDate(0, 0, 5))

	got, err := s.GetDailyActivity(day1.Truncate(24*time.Hour), day2.Truncate(24*time.Hour).AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	want := []DailyActivity{
		{Date: "2026-02-10", Kind: ActivityMessageSent, Count: 1},
		{Date: "2026-02-10", Kind: ActivityTaskCompleted, Count: 2},
		{Date: "2026-02-11", Kind: ActivityTaskCompleted, Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestGetTodayCount(t *testing.T) {
	s := newTestStore(t)
	s.LogActivity(ActivityTaskCompleted, "a")
	s.LogActivity(ActivityTaskCompleted, "b")
	s.LogActivity(ActivityTaskAdded, "c")

	n, err := s.GetTodayCount(ActivityTaskCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}

func TestCloseStore(t *testing.T) {
	s, _ := NewMemory()
	if err := s.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
}
