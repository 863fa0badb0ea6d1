// Package main is a terminal scratchpad demonstrating the undo engine:
// a small line editor where every keystroke batch becomes one undoable
// group, with live config reload and scripted scenarios.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dshills/rewind"
	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/document"
	"github.com/dshills/rewind/internal/event"
	"github.com/dshills/rewind/internal/script"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		scriptPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "Path to TOML configuration file")
	flag.StringVar(&configPath, "c", "", "Path to TOML configuration file (shorthand)")
	flag.StringVar(&scriptPath, "script", "", "Run a Lua scenario headlessly and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "rewind - undo history scratchpad\n\n")
		fmt.Fprintf(os.Stderr, "Usage: rewind [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys: type to edit, Enter new line, Backspace delete,\n")
		fmt.Fprintf(os.Stderr, "Ctrl-Z undo, Ctrl-Y redo, Ctrl-Q quit\n")
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("rewind %s (%s)\n", version, commit)
		return 0
	}

	bus := event.NewBus()
	mgr := rewind.New(rewind.WithNotifier(event.NewNotifier(bus)))

	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		cfg.Apply(mgr)
	}

	doc := document.New(mgr)

	if scriptPath != "" {
		return runScript(doc, scriptPath)
	}

	ed, err := newEditor(mgr, doc, bus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	defer ed.close()

	if configPath != "" {
		w, err := config.Watch(configPath, ed.applyConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: watching config: %v\n", err)
			return 1
		}
		defer w.Close()
	}

	if err := ed.loop(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runScript(doc *document.Document, path string) int {
	r := script.New(doc)
	defer r.Close()

	if err := r.RunFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(doc.Text())
	return 0
}
