package library

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

// testStore creates a store over two temporary directories.
func testStore(t *testing.T) *Store {
	t.Helper()

	root := t.TempDir()
	store, err := New(filepath.Join(root, "music"), filepath.Join(root, "outputs"), nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestNew_CreatesDirectories(t *testing.T) {
	store := testStore(t)

	for _, dir := range []string{store.MusicDir(), store.OutputDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected %s to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("expected %s to be a directory", dir)
		}
	}
}

func TestAllowedMusic(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"song.mp3", true},
		{"SONG.WAV", true},
		{"a.b.flac", true},
		{"track.m4a", true},
		{"track.aac", true},
		{"video.mp4", false},
		{"noext", false},
		{"mp3", false},
	}
	for _, tt := range tests {
		if got := AllowedMusic(tt.name); got != tt.want {
			t.Errorf("AllowedMusic(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"my song", "my_song"},
		{"../../etc/passwd", "passwd"},
		{`C:\music\folk tune`, "folk_tune"},
		{"民歌", ""},
		{"..hidden", "hidden"},
		{"ok-name_1.2", "ok-name_1.2"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSaveUpload(t *testing.T) {
	store := testStore(t)
	store.now = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }

	name, err := store.SaveUpload("../My Song.MP3", strings.NewReader("ID3 data"))
	if err != nil {
		t.Fatalf("failed to save upload: %v", err)
	}

	pattern := regexp.MustCompile(`^My_Song_20250314_092653_[0-9a-f]{6}\.mp3$`)
	if !pattern.MatchString(name) {
		t.Errorf("unexpected stored name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(store.MusicDir(), name))
	if err != nil {
		t.Fatalf("failed to read stored file: %v", err)
	}
	if string(data) != "ID3 data" {
		t.Errorf("stored content = %q", data)
	}

	other, err := store.SaveUpload("民歌.wav", strings.NewReader("RIFF"))
	if err != nil {
		t.Fatalf("failed to save upload: %v", err)
	}
	if !strings.HasPrefix(other, "music_20250314_092653_") {
		t.Errorf("expected fallback base name, got %q", other)
	}

	if _, err := store.SaveUpload("clip.mp4", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestPaths(t *testing.T) {
	store := testStore(t)

	name, err := store.SaveUpload("beat.wav", strings.NewReader("RIFF"))
	if err != nil {
		t.Fatalf("failed to save upload: %v", err)
	}

	path, err := store.MusicPath(name)
	if err != nil {
		t.Fatalf("MusicPath: %v", err)
	}
	if filepath.Dir(path) != store.MusicDir() {
		t.Errorf("path %s outside music dir", path)
	}

	if _, err := store.MusicPath("missing.wav"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.OutputPath(name); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for music name in outputs, got %v", err)
	}

	for _, bad := range []string{"", ".", "..", "../music/" + name, `..\secret`, "a/b.mp4"} {
		if _, err := store.OutputPath(bad); !errors.Is(err, ErrInvalidName) {
			t.Errorf("OutputPath(%q): expected ErrInvalidName, got %v", bad, err)
		}
	}
}

func TestNewOutputName(t *testing.T) {
	pattern := regexp.MustCompile(`^dance_[0-9a-f]{8}\.mp4$`)

	a := NewOutputName("dance", ".mp4")
	b := NewOutputName("dance", ".mp4")
	if !pattern.MatchString(a) {
		t.Errorf("unexpected output name %q", a)
	}
	if a == b {
		t.Errorf("expected unique names, got %q twice", a)
	}
}

func TestOutputName(t *testing.T) {
	id := NewJobID()
	if len(id) != 8 {
		t.Errorf("job id %q should have 8 hex digits", id)
	}
	if got := OutputName("report", "0badcafe", ".json"); got != "report_0badcafe.json" {
		t.Errorf("OutputName = %q", got)
	}
}

func TestWriteReport(t *testing.T) {
	store := testStore(t)

	path, err := store.WriteReport("report_0001.json", map[string]any{"dance_style": "samawu", "total_frames": 90})
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"dance_style\": \"samawu\"") {
		t.Errorf("expected indented JSON, got %s", data)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}

	if _, err := store.WriteReport("../escape.json", nil); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestListings(t *testing.T) {
	store := testStore(t)

	write := func(dir, name string, size int, age time.Duration) {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
			t.Fatal(err)
		}
		mt := time.Now().Add(-age)
		if err := os.Chtimes(path, mt, mt); err != nil {
			t.Fatal(err)
		}
	}

	write(store.MusicDir(), "old.mp3", 1024*1024*3/2, 2*time.Hour)
	write(store.MusicDir(), "new.flac", 10, time.Minute)
	write(store.MusicDir(), "notes.txt", 10, time.Minute)
	write(store.OutputDir(), "dance_aaaa0001.mp4", 2*1024*1024, time.Hour)
	write(store.OutputDir(), "report_aaaa0001.json", 10, time.Hour)
	if err := os.Mkdir(filepath.Join(store.MusicDir(), "sub.mp3"), 0755); err != nil {
		t.Fatal(err)
	}

	music, err := store.ListMusic()
	if err != nil {
		t.Fatalf("ListMusic: %v", err)
	}
	if len(music) != 2 {
		t.Fatalf("expected 2 music files, got %d: %+v", len(music), music)
	}
	if music[0].Name != "new.flac" || music[1].Name != "old.mp3" {
		t.Errorf("expected newest first, got %s, %s", music[0].Name, music[1].Name)
	}
	if music[1].Size != "1.5 MB" {
		t.Errorf("size = %q, want 1.5 MB", music[1].Size)
	}
	if _, err := time.Parse(TimeFormat, music[0].Modified); err != nil {
		t.Errorf("bad modified time %q: %v", music[0].Modified, err)
	}

	outputs, err := store.ListOutputs("/api/download/")
	if err != nil {
		t.Fatalf("ListOutputs: %v", err)
	}
	if len(outputs) != 1 {
		t.Fatalf("expected 1 output, got %d", len(outputs))
	}
	if outputs[0].URL != "/api/download/dance_aaaa0001.mp4" {
		t.Errorf("url = %q", outputs[0].URL)
	}
	if outputs[0].Size != "2.0 MB" {
		t.Errorf("size = %q, want 2.0 MB", outputs[0].Size)
	}
}

func TestListMusic_Empty(t *testing.T) {
	store := testStore(t)

	music, err := store.ListMusic()
	if err != nil {
		t.Fatalf("ListMusic: %v", err)
	}
	if music == nil || len(music) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", music)
	}
}

func TestCleanOld(t *testing.T) {
	store := testStore(t)

	stale := filepath.Join(store.OutputDir(), "dance_old.mp4")
	fresh := filepath.Join(store.MusicDir(), "fresh.mp3")
	for _, p := range []string{stale, fresh} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	removed, err := store.CleanOld(24 * time.Hour)
	if err != nil {
		t.Fatalf("CleanOld: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("expected stale file to be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("expected fresh file to be kept")
	}
}
