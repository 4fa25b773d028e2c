package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/config"
	"github.com/dmitrijs2005/totpkeeper/internal/keeper"
	"github.com/dmitrijs2005/totpkeeper/internal/logging"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

type App struct {
	keeper  *keeper.Keeper
	refresh time.Duration
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(k *keeper.Keeper, c *config.Config, l logging.Logger) *App {
	return &App{
		keeper:  k,
		refresh: c.RefreshInterval,
		log:     l,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
}

// Run authenticates the user and then serves commands until exit.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.out, "Welcome to totpkeeper (type 'help' for commands)")

	if err := a.Authenticate(ctx); err != nil {
		return err
	}

	runREPL(ctx, a, a.getStatus, a.reader)
	a.keeper.Lock()
	return nil
}

func (a *App) isUnlocked() bool {
	return a.keeper.IsUnlocked()
}

func (a *App) getStatus() string {
	if !a.keeper.IsUnlocked() {
		return "(locked)"
	}
	return fmt.Sprintf("(%d entries)", a.keeper.EntryCount())
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
