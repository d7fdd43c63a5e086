package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/tablefn/internal/events"
	"github.com/alfredjeanlab/tablefn/internal/ui"
)

var watchJSON bool

var watchCmd = &cobra.Command{
	Use:   "watch [pattern]",
	Short: "Print record-change events as they are published",
	Long: `Subscribes to change events on TABLEFN_NATS_URL and prints one line per
event. pattern is a NATS subject and defaults to "tablefn.>"; for example
"tablefn.orders.*" shows order changes only.`,
	GroupID: "data",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.NATSURL == "" {
			return fmt.Errorf("TABLEFN_NATS_URL is not set")
		}
		logger := newLogger(cfg)

		pattern := events.AllSubjects
		if len(args) == 1 {
			pattern = args[0]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		sub, err := events.NewNATSSubscriber(cfg.NATSURL,
			nats.Name("tablefn-watch"),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("nats: disconnected", "err", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				logger.Info("nats: reconnected")
			}),
		)
		if err != nil {
			return err
		}
		defer sub.Close()

		return watch(ctx, sub, pattern, cmd.OutOrStdout())
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "print each event as a JSON line")
}

// watch prints messages on pattern until ctx is done or the subscription
// channel closes.
func watch(ctx context.Context, sub events.Subscriber, pattern string, w io.Writer) error {
	ch, cancel, err := sub.Subscribe(pattern)
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			fmt.Fprintln(w, formatEvent(msg, time.Now(), watchJSON))
		}
	}
}

// watchLine is the --json form of one event.
type watchLine struct {
	Time    time.Time             `json:"time"`
	Subject string                `json:"subject"`
	Event   *events.RecordChanged `json:"event,omitempty"`
	Raw     string                `json:"raw,omitempty"`
}

// formatEvent renders msg as "15:04:05 <topic> <action> <key>", falling back
// to the subject and raw payload for messages of another shape.
func formatEvent(msg events.Message, at time.Time, asJSON bool) string {
	var ev events.RecordChanged
	decoded := json.Unmarshal(msg.Data, &ev) == nil && ev.Key != ""

	if asJSON {
		line := watchLine{Time: at.UTC(), Subject: msg.Subject}
		if decoded {
			line.Event = &ev
		} else {
			line.Raw = string(msg.Data)
		}
		data, err := json.Marshal(line)
		if err != nil {
			slog.Debug("encoding watch line", "err", err)
			return ""
		}
		return string(data)
	}

	ts := ui.RenderMuted(at.Format("15:04:05"))
	topic, action, ok := events.ParseSubject(msg.Subject)
	if !ok || !decoded {
		return fmt.Sprintf("%s %s %s", ts, msg.Subject, string(msg.Data))
	}
	return fmt.Sprintf("%s %s %s %s", ts, topic, ui.RenderAction(string(action)), ev.Key)
}
