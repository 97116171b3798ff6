package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kbukum/ssecast/client"
	"github.com/kbukum/ssecast/resilience"
	"github.com/kbukum/ssecast/security"
	"github.com/kbukum/ssecast/sse"
	"github.com/kbukum/ssecast/version"
)

// sender is the part of client.Client the prompt needs.
type sender interface {
	Send(ctx context.Context, text string) error
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	urlFlag := &cli.StringFlag{
		Name:    "url",
		Aliases: []string{"u"},
		Usage:   "server base URL",
		Value:   client.DefaultBaseURL,
		EnvVars: []string{"SSECAST_URL"},
	}
	caFlag := &cli.StringFlag{
		Name:    "ca-file",
		Usage:   "PEM bundle to trust for https servers",
		EnvVars: []string{"SSECAST_CA_FILE"},
	}
	insecureFlag := &cli.BoolFlag{
		Name:  "insecure",
		Usage: "skip server certificate verification",
	}
	timeoutFlag := &cli.DurationFlag{
		Name:  "timeout",
		Usage: "per-request timeout for send",
		Value: client.DefaultTimeout,
	}

	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, version.Get().String())
	}

	return &cli.App{
		Name:      "ssecast-cli",
		Usage:     "publish to and listen on an ssecast server",
		Version:   version.Get().Short(),
		Reader:    in,
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			{
				Name:  "send",
				Usage: "publish messages; prompts for lines unless --message is given",
				Flags: []cli.Flag{
					urlFlag,
					caFlag,
					insecureFlag,
					timeoutFlag,
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "publish one message and exit"},
					&cli.IntFlag{Name: "attempts", Usage: "send attempts per message on transient failures", Value: 3},
				},
				Action: func(c *cli.Context) error {
					cl, err := client.New(client.Config{
						BaseURL: c.String("url"),
						Timeout: c.Duration("timeout"),
						TLS:     tlsFromFlags(c),
						Retry:   resilience.RetryConfig{MaxAttempts: c.Int("attempts")},
					})
					if err != nil {
						return err
					}
					if c.IsSet("message") {
						if err := cl.Send(c.Context, c.String("message")); err != nil {
							fmt.Fprintf(c.App.Writer, "Error sending message: %s\n", describeSendError(err))
							return cli.Exit("", 1)
						}
						fmt.Fprintln(c.App.Writer, "Message sent successfully.")
						return nil
					}
					fmt.Fprintln(c.App.Writer, "ssecast CLI")
					fmt.Fprintln(c.App.Writer, "Enter message to send (or 'exit' to quit):")
					return runPrompt(c.Context, cl, c.App.Reader, c.App.Writer)
				},
			},
			{
				Name:  "listen",
				Usage: "print every broadcast message until interrupted",
				Flags: []cli.Flag{urlFlag, caFlag, insecureFlag},
				Action: func(c *cli.Context) error {
					cl, err := client.New(client.Config{BaseURL: c.String("url"), TLS: tlsFromFlags(c)})
					if err != nil {
						return err
					}
					return listen(c.Context, cl, c.App.Writer)
				},
			},
		},
	}
}

func tlsFromFlags(c *cli.Context) security.TLSConfig {
	return security.TLSConfig{CAFile: c.String("ca-file"), SkipVerify: c.Bool("insecure")}
}

// runPrompt reads lines until EOF or "exit" and publishes each non-blank one.
// Send failures are reported and the prompt continues.
func runPrompt(ctx context.Context, s sender, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(line), "exit") {
			return nil
		}

		if err := s.Send(ctx, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "Error sending message: %s\n", describeSendError(err))
			continue
		}
		fmt.Fprintln(out, "Message sent successfully.")
	}
}

func describeSendError(err error) string {
	var se *client.StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return err.Error()
}

func listen(ctx context.Context, cl *client.Client, out io.Writer) error {
	stream, err := cl.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	for {
		ev, err := stream.Next()
		if err != nil {
			if client.IsClosed(err) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		switch ev.Event {
		case sse.EventTypeConnected:
			fmt.Fprintf(out, "Connected (client %s)\n", stream.ClientID())
		case "", "message":
			fmt.Fprintln(out, ev.Data)
		}
	}
}
