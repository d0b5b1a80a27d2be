package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/wakubase/internal/health"
	"github.com/five82/wakubase/internal/logtail"
	"github.com/five82/wakubase/internal/relay"
	"github.com/five82/wakubase/internal/settings"
	"github.com/five82/wakubase/internal/state"
)

// ErrUnhealthy is returned by the health command when the node is not healthy.
var ErrUnhealthy = errors.New("node is unhealthy")

func newSettingsCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change persisted settings",
	}

	get := &cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, opts, func(svc *Services) error {
				current := svc.Settings.All()
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					v, err := current.Value(settings.Key(args[0]))
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(out, v)
					return err
				}
				for _, k := range settings.Keys() {
					v, _ := current.Value(k)
					if _, err := fmt.Fprintf(out, "%s = %v\n", k, v); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Validate and persist one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := settings.Key(args[0])
			value, err := settings.ParseValue(key, args[1])
			if err != nil {
				return err
			}
			return withServices(cmd, opts, func(svc *Services) error {
				return svc.Settings.Set(key, value)
			})
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore every setting to its default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, opts, func(svc *Services) error {
				return svc.Settings.ResetToDefaults()
			})
		},
	}

	cmd.AddCommand(get, set, reset)
	return cmd
}

func newTopicsCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Manage content topics",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List content topics, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, opts, func(svc *Services) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTOPIC\tCREATED")
				for _, t := range svc.Registry.Topics() {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Topic, t.CreatedAt.Local().Format(time.DateTime))
				}
				return tw.Flush()
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <topic>",
		Short: "Add a content topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, opts, func(svc *Services) error {
				t, err := svc.Registry.Add(args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), t.ID)
				return err
			})
		},
	}

	rm := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a content topic by id",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, opts, func(svc *Services) error {
				if _, ok := svc.Registry.Find(args[0]); !ok {
					return fmt.Errorf("no topic with id %q", args[0])
				}
				return svc.Registry.Delete(args[0])
			})
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}

func newHealthCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the relay node once",
		Long:  "Probe the relay node once and print its status. Exits non-zero when the node is unhealthy.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, opts, func(svc *Services) error {
				status := svc.Health.Check(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s node at %s)\n",
					status, svc.Settings.NodeType(), svc.Settings.NodeURL())
				if status != health.Healthy {
					return ErrUnhealthy
				}
				return nil
			})
		},
	}
}

func newSendCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "send <topic> <message>",
		Short: "Publish one message on a content topic",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return withServices(cmd, opts, func(svc *Services) error {
				return svc.Feed.SendTo(cmd.Context(), args[0], text)
			})
		},
	}
}

func newWatchCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <topic>",
		Short: "Subscribe to a content topic and print messages until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.TrimSpace(args[0])
			if topic == "" {
				return errors.New("content topic is empty")
			}
			return withServices(cmd, opts, func(svc *Services) error {
				if svc.Settings.NodeType() != settings.NodeFull {
					return fmt.Errorf("watch needs a full node, current node type is %s", svc.Settings.NodeType())
				}
				return watch(cmd.Context(), svc, topic, cmd.OutOrStdout(), cmd.ErrOrStderr())
			})
		},
	}
}

// watch drives the sync engine for topic and prints each message once, in
// timestamp order, until ctx is done.
func watch(ctx context.Context, svc *Services, topic string, out, errOut io.Writer) error {
	p := newPrinter(out, errOut)
	unsubscribe := svc.Feed.OnUpdate(p.print)
	defer unsubscribe()

	svc.Feed.Start(ctx)
	defer svc.Feed.Stop()
	svc.Feed.Select(topic, topic)

	<-ctx.Done()
	return nil
}

type printer struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	seen    map[relay.Timestamp]struct{}
	lastErr string
}

func newPrinter(out, errOut io.Writer) *printer {
	return &printer{out: out, errOut: errOut, seen: map[relay.Timestamp]struct{}{}}
}

func (p *printer) print(snap state.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if snap.LastError != nil {
		if msg := snap.LastError.Error(); msg != p.lastErr {
			p.lastErr = msg
			fmt.Fprintln(p.errOut, msg)
		}
	} else {
		p.lastErr = ""
	}

	var fresh []relay.Message
	for _, m := range slices.Backward(snap.Messages) {
		if _, ok := p.seen[m.Timestamp]; ok {
			continue
		}
		p.seen[m.Timestamp] = struct{}{}
		fresh = append(fresh, m.Message)
	}
	slices.SortStableFunc(fresh, func(a, b relay.Message) int {
		at, _ := a.Timestamp.Time()
		bt, _ := b.Timestamp.Time()
		return at.Compare(bt)
	})
	for _, m := range fresh {
		fmt.Fprintln(p.out, formatMessage(m))
	}
}

func formatMessage(m relay.Message) string {
	stamp := string(m.Timestamp)
	if at, ok := m.Timestamp.Time(); ok {
		stamp = at.Local().Format(time.DateTime)
	}
	text, ok := m.Text()
	if !ok {
		return fmt.Sprintf("%s  [undecodable] %s", stamp, text)
	}
	return fmt.Sprintf("%s  %s", stamp, text)
}

func newLogsCommand(opts *Options) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Pretty-print the tail of the log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, opts, func(svc *Services) error {
				raw, err := logtail.Read(svc.Config.Log.File, lines)
				if err != nil {
					return err
				}
				for _, line := range logtail.Format(raw) {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to show")
	return cmd
}
