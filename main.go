package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/rotalog/internal/auth"
	"github.com/sadopc/rotalog/internal/store"
	"github.com/sadopc/rotalog/internal/tui"
)

func main() {
	dbPath := flag.String("db", "", "path to the database file (default ~/.config/rotalog/rotalog.db)")
	flag.Parse()

	path := *dbPath
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving database path: %v\n", err)
			os.Exit(1)
		}
	}

	s, err := store.New(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	// Sweep any duplicates that slipped in (e.g. from an older file
	// without the identity index) before showing the ledger.
	if removed, err := s.Deduplicate(); err == nil && removed > 0 {
		fmt.Printf("Removed %d duplicate entries from the ledger\n", removed)
	}

	password, err := s.GetSetting("admin_password")
	if err != nil || password == "" {
		password = "changeme"
	}
	session := auth.NewSession(password)

	p := tea.NewProgram(tui.NewApp(s, session), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
