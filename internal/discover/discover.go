package discover

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	SyslogConfPath = "/etc/syslog.conf"
	LogDir         = "/var/log"
)

// rotated logs carry a date suffix such as syslog-20240115
var datedName = regexp.MustCompile(`\d{8}$`)

// Defaults returns the logs named by the system syslog configuration
// followed by the readable text files in the system log directory
func Defaults() []string {
	return Find(SyslogConfPath, LogDir)
}

// Find merges SyslogConf(conf) and Dir(dir), skipping sources that cannot be
// read and paths already listed under a different case
func Find(conf, dir string) []string {
	var paths []string
	if logs, err := SyslogConf(conf); err == nil {
		paths = merge(paths, logs)
	}
	if logs, err := Dir(dir); err == nil {
		paths = merge(paths, logs)
	}
	return paths
}

// SyslogConf returns the absolute file paths mentioned as actions in a
// syslog.conf style file, in order of appearance
func SyslogConf(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open syslog config: %w", err)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return strings.ContainsRune(", \t()", r)
		})
		for _, field := range fields {
			// a leading "-" disables syncing after each write
			field = strings.TrimPrefix(field, "-")
			if strings.HasPrefix(field, "/") {
				paths = merge(paths, []string{field})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read syslog config: %w", err)
	}
	return paths, nil
}

// Dir returns the readable plain text files in dir, sorted by name. Gzipped
// files and names ending in an eight digit date are rotated logs and are
// skipped.
func Dir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".gz") || datedName.MatchString(name) {
			continue
		}

		path := filepath.Join(dir, name)
		if isText(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// isText follows symlinks and reports whether path is a readable regular file
// whose leading bytes sniff as plain text
func isText(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false
	}
	return strings.HasPrefix(http.DetectContentType(head[:n]), "text/plain")
}

func merge(paths, more []string) []string {
	for _, p := range more {
		dup := false
		for _, existing := range paths {
			if strings.EqualFold(existing, p) {
				dup = true
				break
			}
		}
		if !dup {
			paths = append(paths, p)
		}
	}
	return paths
}
