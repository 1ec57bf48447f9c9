package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alejandrodnm/courtbot/internal/application/watcher"
)

// listenControls lee comandos de una letra desde stdin y los traduce a los
// mandos del watcher. Corre en su propia goroutine; al cerrar stdin o
// recibir "q", termina.
func listenControls(ctx context.Context, control *watcher.Control, cancel context.CancelFunc) {
	fmt.Println("controls: [s]can now  [p]ause  [h]ide-pass  [i]gnore history  [q]uit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "":
			continue
		case "s":
			control.RequestScan()
			slog.Info("manual scan requested")
		case "p":
			slog.Info("pause toggled", "paused", control.TogglePause())
		case "h":
			slog.Info("hide-pass toggled", "hide_pass", control.ToggleHidePass())
		case "i":
			control.RequestIgnoreHistory()
			slog.Info("history reset requested, takes effect next tick")
		case "q":
			slog.Info("quit requested")
			cancel()
			return
		default:
			fmt.Println("controls: [s]can now  [p]ause  [h]ide-pass  [i]gnore history  [q]uit")
		}
	}
}
