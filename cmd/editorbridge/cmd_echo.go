package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/forumkit/editorbridge/internal/engine"
	"github.com/forumkit/editorbridge/internal/host"
	"github.com/forumkit/editorbridge/internal/transport"
	"github.com/forumkit/editorbridge/internal/wire"
)

// newEchoCmd creates the "editorbridge echo" subcommand: an in-process
// host/engine pair over a loopback conn that traces every frame, useful for
// inspecting the protocol without an embedded document context.
func newEchoCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Run a traced in-process host/engine exchange",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runEcho(cmd.Context(), cfg.Bridge.Prefix, time.Duration(cfg.Bridge.FocusAckTimeoutMS)*time.Millisecond)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	return cmd
}

// traceConn wraps a conn and prints every frame crossing it.
type traceConn struct {
	inner transport.Conn
	out   chan string
}

func newTraceConn(inner transport.Conn) *traceConn {
	t := &traceConn{inner: inner, out: make(chan string, 64)}
	go func() {
		defer close(t.out)
		for raw := range inner.Receive() {
			fmt.Printf("engine -> host  %s\n", raw)
			t.out <- raw
		}
	}()
	return t
}

func (t *traceConn) Send(raw string) error {
	fmt.Printf("host -> engine  %s\n", raw)
	return t.inner.Send(raw)
}

func (t *traceConn) Receive() <-chan string { return t.out }
func (t *traceConn) Close() error           { return t.inner.Close() }

type echoNotifier struct{}

func (echoNotifier) Error(message string) { fmt.Printf("notifier: %s\n", message) }

type echoSearcher struct{}

func (echoSearcher) Search(_ context.Context, term string) ([]host.Candidate, error) {
	return []host.Candidate{
		{ID: "1", Name: term + "_one"},
		{ID: "2", Name: term + "_two"},
	}, nil
}

func runEcho(ctx context.Context, prefix string, ackTimeout time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hostEnd, engineEnd := transport.Pipe()
	defer hostEnd.Close()

	ctrl := host.New(newTraceConn(hostEnd), echoSearcher{}, echoNotifier{}, nil, host.Config{
		Prefix:          prefix,
		FocusAckTimeout: ackTimeout,
	})
	eng := engine.New(engineEnd, engine.Config{Prefix: prefix})

	go ctrl.Run(ctx)
	go eng.Run(ctx)

	// let READY land before driving commands
	time.Sleep(100 * time.Millisecond)

	ctrl.InjectStyles("body { font-size: 15px; }")
	ctrl.Focus()
	ctrl.RequestFormatToggle(wire.FormatBold, "")
	time.Sleep(50 * time.Millisecond)

	if err := ctrl.RequestLinkInsertion("example.com/thread/42", "the thread"); err != nil {
		return err
	}
	ctrl.RequestContent()
	time.Sleep(100 * time.Millisecond)

	fmt.Printf("final state: %s\n", ctrl.State())
	fmt.Printf("mirrored content: %s\n", ctrl.Content())
	return nil
}
