package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alfredjeanlab/admatrix/internal/client"
	"github.com/alfredjeanlab/admatrix/internal/events"
	"github.com/alfredjeanlab/admatrix/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream session and matrix events",
	GroupID: "remote",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		topicsFlag, _ := cmd.Flags().GetString("topics")
		topics := splitTopics(topicsFlag)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		if natsURL != "" {
			return watchNATS(ctx, out, natsURL, topics)
		}

		c := newClient()
		defer c.Close()
		fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderMuted("watching "+serverURL+" (Ctrl-C to stop)"))
		return c.StreamEvents(ctx, topics, func(e client.Event) error {
			printEvent(out, e.Topic, []byte(e.Data))
			return nil
		})
	},
}

// watchNATS subscribes to each topic directly on the bus.
func watchNATS(ctx context.Context, out io.Writer, url string, topics []string) error {
	sub, err := events.NewNATSSubscriber(url,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				fmt.Fprintln(os.Stderr, ui.RenderError("disconnected from NATS: "+err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			fmt.Fprintln(os.Stderr, ui.RenderMuted("reconnected to "+nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return err
	}
	defer sub.Close()

	if len(topics) == 0 {
		topics = []string{events.TopicAll}
	}
	merged := make(chan events.Message, 64)
	for _, topic := range topics {
		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return err
		}
		defer cancel()
		go func() {
			for msg := range ch {
				select {
				case merged <- msg:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	fmt.Fprintln(os.Stderr, ui.RenderMuted("watching "+url+" (Ctrl-C to stop)"))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-merged:
			printEvent(out, msg.Topic, msg.Data)
		}
	}
}

func printEvent(w io.Writer, topic string, data []byte) {
	if jsonOutput {
		fmt.Fprintf(w, "{\"topic\":%q,\"data\":%s}\n", topic, data)
		return
	}
	fmt.Fprintf(w, "%s  %s  %s\n",
		ui.RenderMuted(time.Now().Format(time.TimeOnly)),
		ui.RenderAccent(strings.TrimPrefix(topic, "admatrix.")),
		data)
}

func splitTopics(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func init() {
	natsDefault := os.Getenv("ADMX_NATS_URL")
	if natsDefault == "" {
		natsDefault = activeRemoteNATSURL()
	}
	watchCmd.Flags().String("nats", natsDefault, "subscribe on this NATS server instead of the HTTP event stream")
	watchCmd.Flags().String("topics", "", "comma-separated topic patterns (e.g. admatrix.dependency.*)")
}
