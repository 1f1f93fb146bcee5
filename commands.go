package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gmllt/kanvan/board"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the board lane by lane",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := newGateway()
			if err != nil {
				return err
			}
			if err := g.Load(cmd.Context()); err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), g.Store())
			return nil
		},
	}
}

func newAddCmd() *cobra.Command {
	var lane, title, info string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := board.ParseLane(lane)
			if err != nil {
				return err
			}
			g, err := newGateway()
			if err != nil {
				return err
			}
			c, err := g.Create(cmd.Context(), l, title, info)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&lane, "lane", "l", string(board.Backlog), "lane of the new card")
	cmd.Flags().StringVarP(&title, "title", "t", "", "card title")
	cmd.Flags().StringVarP(&info, "info", "i", "", "card description")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("info")
	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := newGateway()
			if err != nil {
				return err
			}
			if err := g.Load(cmd.Context()); err != nil {
				return err
			}
			deleted, err := g.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("card %s not found", args[0])
			}
			return nil
		},
	}
}

// newMoveCmd previews a move. Order is not persisted by the remote, so the
// result only lives for this invocation.
func newMoveCmd() *cobra.Command {
	var lane, before string
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Preview moving a card to a lane, before another card or at the end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := board.ParseLane(lane)
			if err != nil {
				return err
			}
			g, err := newGateway()
			if err != nil {
				return err
			}
			if err := g.Load(cmd.Context()); err != nil {
				return err
			}
			if _, ok := g.Move(board.MoveIntent{CardID: args[0], TargetLane: l, BeforeID: before}); !ok {
				log.WithField("card", args[0]).Warn("move had no effect")
			}
			printBoard(cmd.OutOrStdout(), g.Store())
			return nil
		},
	}
	cmd.Flags().StringVarP(&lane, "lane", "l", "", "target lane")
	cmd.Flags().StringVarP(&before, "before", "b", board.EndOfLane, "id of the card to insert before (default: end of lane)")
	_ = cmd.MarkFlagRequired("lane")
	return cmd
}
