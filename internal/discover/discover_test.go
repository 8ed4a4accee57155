package discover

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func write(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestSyslogConf(t *testing.T) {
	conf := filepath.Join(t.TempDir(), "syslog.conf")
	write(t, conf, []byte(`
# comment /not/a/log
*.info;mail.none;authpriv.none        /var/log/messages
authpriv.*                            /var/log/secure
mail.*                                -/var/log/maillog
*.emerg                               *
local7.*                              /var/log/boot.log
kern.*                                /VAR/LOG/MESSAGES
`))

	got, err := SyslogConf(conf)
	if err != nil {
		t.Fatalf("SyslogConf returned error: %v", err)
	}

	want := []string{"/var/log/messages", "/var/log/secure", "/var/log/maillog", "/var/log/boot.log"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("SyslogConf = %v, want %v", got, want)
	}
}

func TestSyslogConf_Missing(t *testing.T) {
	if _, err := SyslogConf(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("SyslogConf returned nil error for a missing file")
	}
}

func TestDir_SkipsRotatedAndBinaryFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "syslog"), []byte("Jan 1 10:00:00 host app: hello\n"))
	write(t, filepath.Join(dir, "auth.log"), []byte("Jan 1 10:00:00 host sshd: ok\n"))
	write(t, filepath.Join(dir, "empty.log"), nil)
	write(t, filepath.Join(dir, "syslog-20240101"), []byte("old\n"))
	write(t, filepath.Join(dir, "syslog.2.gz"), []byte("\x1f\x8b\x08\x00"))
	write(t, filepath.Join(dir, "wtmp"), []byte{0x00, 0x01, 0x02, 0x03, 0x00, 0x00})
	if err := os.Mkdir(filepath.Join(dir, "journal"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	got, err := Dir(dir)
	if err != nil {
		t.Fatalf("Dir returned error: %v", err)
	}

	var names []string
	for _, p := range got {
		names = append(names, filepath.Base(p))
	}
	if strings.Join(names, ",") != "auth.log,empty.log,syslog" {
		t.Fatalf("Dir = %v, want [auth.log empty.log syslog]", names)
	}
}

func TestFind_MergesCaseInsensitively(t *testing.T) {
	dir := t.TempDir()
	logs := filepath.Join(dir, "log")
	if err := os.Mkdir(logs, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	write(t, filepath.Join(logs, "messages"), []byte("text\n"))
	write(t, filepath.Join(logs, "kern.log"), []byte("text\n"))

	conf := filepath.Join(dir, "syslog.conf")
	write(t, conf, []byte("*.* "+strings.ToUpper(filepath.Join(logs, "messages"))+"\n"))

	got := Find(conf, logs)

	if len(got) != 2 {
		t.Fatalf("Find = %v, want 2 entries", got)
	}
	if got[0] != strings.ToUpper(filepath.Join(logs, "messages")) {
		t.Fatalf("syslog.conf entries should come first: %v", got)
	}
	if got[1] != filepath.Join(logs, "kern.log") {
		t.Fatalf("Find = %v", got)
	}
}

func TestFind_ToleratesMissingSources(t *testing.T) {
	dir := t.TempDir()
	if got := Find(filepath.Join(dir, "none.conf"), filepath.Join(dir, "none")); len(got) != 0 {
		t.Fatalf("Find = %v, want nothing", got)
	}
}
