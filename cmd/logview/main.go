package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TimelordUK/logview/internal/app"
	"github.com/TimelordUK/logview/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	configFlag := flag.String("config", "", "Config file (default "+config.GetConfigPath()+")")
	verboseFlag := flag.Bool("verbose", false, "Log debug messages")
	logFileFlag := flag.String("log-file", "", "Write diagnostics to this file")
	printFlag := flag.Bool("print", false, "Print the logs with day headers instead of starting the viewer")
	followFlag := flag.Bool("follow", false, "With -print, keep printing appended lines")
	exportFlag := flag.String("export-dir", "", "Directory for exported lines (default temp dir)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: logview [-config path] [-verbose] [-log-file path] [-print] [-follow] [-export-dir dir] [FILE...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := app.Run(ctx, app.Options{
		ConfigPath: *configFlag,
		LogFile:    *logFileFlag,
		Verbose:    *verboseFlag,
		Print:      *printFlag,
		Follow:     *followFlag,
		Paths:      flag.Args(),
		ExportDir:  *exportFlag,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logview: %v\n", err)
		return 1
	}
	return 0
}
