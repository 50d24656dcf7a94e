// Interactive session: a line-oriented loop that feeds each request
// through the lifecycle orchestrator and gathers approval feedback.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"plugsmith/internal/config"
	"plugsmith/internal/oracle"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)

	resultStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	faintStyle = lipgloss.NewStyle().Faint(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// consoleIO implements lifecycle.UserIO on stdin/stdout. Approval
// questions re-ask until the answer is a recognizable yes or no.
type consoleIO struct {
	in  *bufio.Reader
	out io.Writer
}

func newConsoleIO() *consoleIO {
	return &consoleIO{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (c *consoleIO) ShowResult(output string) {
	fmt.Fprintln(c.out, resultStyle.Render(output))
}

func (c *consoleIO) AskApproval() (bool, error) {
	for {
		fmt.Fprint(c.out, "Did this satisfy your request? [y/n] ")
		line, err := c.in.ReadString('\n')
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(c.out, faintStyle.Render("Please answer y or n."))
	}
}

func (c *consoleIO) AskProblem() (string, error) {
	fmt.Fprint(c.out, "What was wrong? (type :giveup to abandon) ")
	line, err := c.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// runInteractive is the default mode: read requests until exit.
func runInteractive() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted")
		cancel()
	}()

	app, err := bootApp()
	if err != nil {
		return err
	}
	defer app.Close()

	// Config edits take effect between turns.
	watcher, err := config.NewWatcher(resolveWorkspace(), func() {
		logger.Info("configuration reloaded")
	})
	if err == nil {
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("config watcher unavailable", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	} else {
		logger.Warn("config watcher unavailable", zap.Error(err))
	}

	fmt.Println(bannerStyle.Render(fmt.Sprintf("plugsmith %s — describe what you need", version)))
	fmt.Println(faintStyle.Render("Type 'exit' to leave."))

	// Requests and feedback answers come off the same reader; a second
	// bufio.Reader over stdin would swallow typed-ahead lines.
	reader := app.Console.in
	for {
		fmt.Print("\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Println()
				return nil
			}
			return err
		}
		request := strings.TrimSpace(line)
		switch strings.ToLower(request) {
		case "":
			continue
		case "exit", "quit", "q":
			fmt.Println("Bye.")
			return nil
		}

		res, err := app.Orchestrator.RunTurn(ctx, request)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			printTurnError(err)
			continue
		}
		if res.Abandoned {
			fmt.Println(faintStyle.Render("Abandoned; nothing was stored."))
		} else if res.PluginID != 0 {
			fmt.Println(faintStyle.Render(fmt.Sprintf("Stored as plugin %d.", res.PluginID)))
		}
	}
}

// printTurnError keeps oracle hiccups readable instead of dumping raw
// reply text at the prompt.
func printTurnError(err error) {
	if oracle.IsMalformedReply(err) {
		fmt.Println(errStyle.Render("The oracle's reply could not be parsed; try rephrasing the request."))
		return
	}
	fmt.Println(errStyle.Render(fmt.Sprintf("Error: %v", err)))
}
