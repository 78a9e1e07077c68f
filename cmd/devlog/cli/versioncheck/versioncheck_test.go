package versioncheck

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestIsOutdated(t *testing.T) {
	tests := []struct {
		current string
		latest  string
		want    bool
	}{
		{"1.0.0", "1.0.1", true},
		{"1.0.0", "1.1.0", true},
		{"1.0.0", "2.0.0", true},
		{"1.0.0", "1.0.0", false},
		{"2.0.0", "1.9.9", false},
		{"v1.0.0", "v1.0.1", true},
		{"1.0.0", "v1.0.1", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_vs_%s", tt.current, tt.latest), func(t *testing.T) {
			if got := isOutdated(tt.current, tt.latest); got != tt.want {
				t.Errorf("isOutdated(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
			}
		})
	}
}

func TestParseGitHubRelease(t *testing.T) {
	version, err := parseGitHubRelease([]byte(`{"tag_name": "v1.2.3", "prerelease": false}`))
	if err != nil {
		t.Fatalf("parseGitHubRelease() error = %v", err)
	}
	if version != "v1.2.3" {
		t.Errorf("version = %q, want v1.2.3", version)
	}
}

func TestParseGitHubRelease_Prerelease(t *testing.T) {
	if _, err := parseGitHubRelease([]byte(`{"tag_name": "v2.0.0-rc1", "prerelease": true}`)); err == nil {
		t.Error("expected error for prerelease")
	}
}

func TestParseGitHubRelease_EmptyTag(t *testing.T) {
	if _, err := parseGitHubRelease([]byte(`{"tag_name": "", "prerelease": false}`)); err == nil {
		t.Error("expected error for empty tag name")
	}
}

func TestParseGitHubRelease_InvalidJSON(t *testing.T) {
	if _, err := parseGitHubRelease([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := ensureGlobalConfigDir(); err != nil {
		t.Fatalf("ensureGlobalConfigDir() error = %v", err)
	}

	want := &VersionCache{LastCheckTime: time.Now().Truncate(time.Second)}
	if err := saveCache(want); err != nil {
		t.Fatalf("saveCache() error = %v", err)
	}

	got, err := loadCache()
	if err != nil {
		t.Fatalf("loadCache() error = %v", err)
	}
	if !got.LastCheckTime.Equal(want.LastCheckTime) {
		t.Errorf("LastCheckTime = %v, want %v", got.LastCheckTime, want.LastCheckTime)
	}
}

// setupCheckAndNotifyTest sets HOME to a temp dir and overrides githubAPIURL.
// Returns a cobra.Command with captured stdout.
func setupCheckAndNotifyTest(t *testing.T, serverURL string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())

	oldURL := githubAPIURL
	githubAPIURL = serverURL
	t.Cleanup(func() { githubAPIURL = oldURL })

	var buf bytes.Buffer
	cmd := &cobra.Command{Use: "status"}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func newVersionServer(t *testing.T, tag string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"tag_name": %q, "prerelease": false}`, tag)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCheckAndNotify_SkipsHiddenCommand(t *testing.T) {
	server := newVersionServer(t, "v9.9.9")
	cmd, buf := setupCheckAndNotifyTest(t, server.URL)
	cmd.Hidden = true

	CheckAndNotify(cmd, "1.0.0")

	if buf.Len() != 0 {
		t.Errorf("expected no output for hidden command, got %q", buf.String())
	}
}

func TestCheckAndNotify_SkipsSyncCommand(t *testing.T) {
	server := newVersionServer(t, "v9.9.9")
	cmd, buf := setupCheckAndNotifyTest(t, server.URL)
	cmd.Use = "sync"

	CheckAndNotify(cmd, "1.0.0")

	if buf.Len() != 0 {
		t.Errorf("expected no output for sync command, got %q", buf.String())
	}
}

func TestCheckAndNotify_SkipsDevVersion(t *testing.T) {
	server := newVersionServer(t, "v9.9.9")
	cmd, buf := setupCheckAndNotifyTest(t, server.URL)

	CheckAndNotify(cmd, "dev")

	if buf.Len() != 0 {
		t.Errorf("expected no output for dev version, got %q", buf.String())
	}
}

func TestCheckAndNotify_SkipsWhenCacheIsFresh(t *testing.T) {
	server := newVersionServer(t, "v9.9.9")
	cmd, buf := setupCheckAndNotifyTest(t, server.URL)

	if err := ensureGlobalConfigDir(); err != nil {
		t.Fatalf("ensureGlobalConfigDir() error = %v", err)
	}
	if err := saveCache(&VersionCache{LastCheckTime: time.Now()}); err != nil {
		t.Fatalf("saveCache() error = %v", err)
	}

	CheckAndNotify(cmd, "1.0.0")

	if buf.Len() != 0 {
		t.Errorf("expected no output when cache is fresh, got %q", buf.String())
	}
}

func TestCheckAndNotify_PrintsNotificationWhenOutdated(t *testing.T) {
	server := newVersionServer(t, "v2.0.0")
	cmd, buf := setupCheckAndNotifyTest(t, server.URL)

	CheckAndNotify(cmd, "1.0.0")

	output := buf.String()
	if !strings.Contains(output, "v2.0.0") {
		t.Errorf("expected notification with latest version, got %q", output)
	}
	if !strings.Contains(output, "1.0.0") {
		t.Errorf("expected notification with current version, got %q", output)
	}
}

func TestCheckAndNotify_NoNotificationWhenUpToDate(t *testing.T) {
	server := newVersionServer(t, "v1.0.0")
	cmd, buf := setupCheckAndNotifyTest(t, server.URL)

	CheckAndNotify(cmd, "1.0.0")

	if buf.Len() != 0 {
		t.Errorf("expected no output when up to date, got %q", buf.String())
	}
}

func TestCheckAndNotify_FetchFailureUpdatesCacheToPreventRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	cmd, buf := setupCheckAndNotifyTest(t, server.URL)

	CheckAndNotify(cmd, "1.0.0")

	// No notification on fetch failure
	if buf.Len() != 0 {
		t.Errorf("expected no output on fetch failure, got %q", buf.String())
	}

	// The cache must record the attempt so the next run does not retry.
	cache, err := loadCache()
	if err != nil {
		t.Fatalf("loadCache() error = %v", err)
	}
	if time.Since(cache.LastCheckTime) > time.Minute {
		t.Errorf("cache LastCheckTime not updated: %v", cache.LastCheckTime)
	}
}
