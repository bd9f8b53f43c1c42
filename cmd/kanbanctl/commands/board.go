package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/printer"
	"github.com/listenupapp/kanban-server/internal/store"
)

var boardCmd = &cobra.Command{
	Use:   "board <workspace-id>",
	Short: "Print the stored order of a board",
	Long: `Print every list and card of a workspace with its stored position and the
version of each order. Positions that are not exactly 1..N are flagged and
make the command fail.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		broken, err := printBoard(cmd.Context(), e.store, args[0])
		switch {
		case errors.Is(err, store.ErrNotFound):
			return printer.Error("Workspace not found", "No workspace has the ID "+args[0]+".")
		case err != nil:
			return printer.Error("Cannot read board", err.Error())
		case broken > 0:
			return printer.Error("Board order is inconsistent",
				fmt.Sprintf("%d order(s) have positions that are not 1..N.", broken))
		}
		return nil
	},
}

// printBoard walks the workspace order and each list order, returning how many
// of them are not sequential.
func printBoard(ctx context.Context, st store.Store, workspaceID string) (int, error) {
	ws, err := st.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return 0, err
	}

	lists, err := st.ListLists(ctx, workspaceID)
	if err != nil {
		return 0, err
	}
	listOrder, err := st.GetOrder(ctx, domain.WorkspaceScope(workspaceID))
	if err != nil {
		return 0, err
	}

	broken := 0
	printer.Step("%s (%s) lists v%d\n", ws.Title, ws.ID, listOrder.Version)
	if !listOrder.Sequential() {
		broken++
		printer.Warning("list positions %v\n", listOrder.Positions)
	}

	for _, l := range lists {
		cardOrder, err := st.GetOrder(ctx, domain.ListScope(l.ID))
		if err != nil {
			return 0, err
		}
		printer.Info("%3d  %s (%s) cards v%d\n", l.Position, l.Title, l.ID, cardOrder.Version)
		if !cardOrder.Sequential() {
			broken++
			printer.Warning("card positions %v\n", cardOrder.Positions)
		}

		cards, err := st.ListCards(ctx, l.ID)
		if err != nil {
			return 0, err
		}
		for _, c := range cards {
			printer.Detail("     %3d  %s (%s)\n", c.Position, c.Title, c.ID)
		}
	}

	return broken, nil
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
