// Package cli provides the command-line interface for revscrape.
package cli

import (
	"sync"

	"github.com/spf13/cobra"

	"github.com/law-makers/revscrape/internal/app"
)

var (
	appMu     sync.RWMutex
	globalApp *app.Application
)

// SetApp stores the Application for the running command
func SetApp(cmd *cobra.Command, a *app.Application) {
	appMu.Lock()
	defer appMu.Unlock()
	globalApp = a
}

// GetAppFromCmd returns the Application initialized for cmd, or nil before
// PersistentPreRunE has run
func GetAppFromCmd(cmd *cobra.Command) *app.Application {
	appMu.RLock()
	defer appMu.RUnlock()
	return globalApp
}
