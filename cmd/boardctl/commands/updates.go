package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"orderlyflow/internal/board"
	"orderlyflow/internal/thread"

	"github.com/spf13/cobra"
)

func newUpdatesCommand(opts *options) *cobra.Command {
	var entityType string
	cmd := &cobra.Command{
		Use:   "updates",
		Short: "Read and write the update thread of a group, item or subitem",
	}
	cmd.PersistentFlags().StringVarP(&entityType, "type", "t", string(board.EntityItem), "entity type: group, item or subitem")

	// open resolves the thread named by args[0] on --board.
	open := func(cmd *cobra.Command, entityID string) (*session, *thread.Service, thread.Key, error) {
		t := board.EntityType(entityType)
		if !t.Valid() {
			return nil, nil, thread.Key{}, fmt.Errorf("--type must be one of group, item, subitem")
		}
		if opts.boardID == "" {
			return nil, nil, thread.Key{}, fmt.Errorf("--board is required")
		}
		s, err := newSession(cmd, opts)
		if err != nil {
			return nil, nil, thread.Key{}, err
		}
		return s, thread.NewService(s.client, s.log), thread.Key{BoardID: opts.boardID, EntityID: entityID, Type: t}, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list ENTITY_ID",
			Short: "Print the thread, newest first",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, svc, key, err := open(cmd, args[0])
				if err != nil {
					return err
				}
				defer s.log.Close()
				th := svc.Open(cmd.Context(), key)
				w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
				for _, u := range th.Display() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.CreatedAt.Local().Format("Jan 2 15:04"), u.AuthorName, u.Message)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "post ENTITY_ID MESSAGE...",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, svc, key, err := open(cmd, args[0])
				if err != nil {
					return err
				}
				defer s.log.Close()
				th := svc.Open(cmd.Context(), key)
				u, err := th.Post(cmd.Context(), strings.Join(args[1:], " "))
				if err != nil {
					return userError(err)
				}
				fmt.Fprintf(s.out, "Posted update %s (%d in thread)\n", u.ID, th.Len())
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete ENTITY_ID UPDATE_ID",
			Short: "Delete one of your own updates",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, svc, key, err := open(cmd, args[0])
				if err != nil {
					return err
				}
				defer s.log.Close()
				return userError(svc.Open(cmd.Context(), key).Delete(cmd.Context(), args[1]))
			},
		},
		&cobra.Command{
			Use:   "count ENTITY_ID",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, svc, key, err := open(cmd, args[0])
				if err != nil {
					return err
				}
				defer s.log.Close()
				n, err := svc.Counts().Count(cmd.Context(), key)
				if err != nil {
					return userError(err)
				}
				fmt.Fprintln(s.out, n)
				return nil
			},
		},
	)
	return cmd
}
