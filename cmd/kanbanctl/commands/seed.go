package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/listenupapp/kanban-server/internal/domain"
	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/ordering"
	"github.com/listenupapp/kanban-server/internal/printer"
	"github.com/listenupapp/kanban-server/internal/realtime"
	"github.com/listenupapp/kanban-server/internal/service"
)

var (
	seedEmail string
	seedTitle string
)

// demoBoard is the content of the seeded workspace, lists in order.
var demoBoard = []struct {
	list  string
	cards []string
}{
	{"Backlog", []string{"Write onboarding guide", "Dark mode", "Export to CSV"}},
	{"In progress", []string{"Drag and drop polish", "Presence avatars"}},
	{"Review", []string{"Cursor throttling"}},
	{"Done", []string{"Realtime updates"}},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo board",
	Long: `Create a demo user (unless it exists) and a workspace with a few lists and
cards owned by it, then move one card to show a cross-list move. Changes go
through the same services as the API, so activity is recorded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ws, err := seed(cmd.Context(), e)
		if err != nil {
			return printer.Error("Seeding failed", err.Error())
		}

		printer.Success("Seeded workspace %s\n", ws.ID)
		if _, err := printBoard(cmd.Context(), e.store, ws.ID); err != nil {
			return printer.Error("Cannot read board", err.Error())
		}
		printer.Detail("Mint a token with: kanbanctl token %s\n", seedEmail)
		return nil
	},
}

// offline drops events and holds no subscriptions; no server is attached
// to the CLI.
type offline struct{}

func (offline) Broadcast(string, realtime.EventType, any, realtime.Origin) {}
func (offline) LeaveUser(string, string) int                               { return 0 }
func (offline) LeaveWorkspace(string) int                                  { return 0 }

func seed(ctx context.Context, e *env) (*domain.Workspace, error) {
	log := e.log.Logger
	locks := ordering.NewScopeLocks()
	access := service.NewAccessService(e.store, log)
	activity := service.NewActivityService(e.store, access, log)
	users := service.NewUserService(e.store, log)
	workspaces := service.NewWorkspaceService(e.store, access, activity, ordering.NewReconciler(e.store, locks, log), locks, offline{}, offline{}, log)
	lists := service.NewListService(e.store, access, activity, ordering.NewReconciler(e.store, locks, log), locks, offline{}, log)
	cards := service.NewCardService(e.store, access, activity, ordering.NewMover(e.store, locks, log), locks, offline{}, log)

	u, err := users.GetUserByEmail(ctx, seedEmail)
	if errors.Is(err, domainerrors.ErrNotFound) {
		printer.Step("Creating user %s\n", seedEmail)
		u, err = users.CreateUser(ctx, service.CreateUserRequest{Email: seedEmail, Name: "Demo"})
	}
	if err != nil {
		return nil, err
	}
	actor := service.Actor{UserID: u.ID, UserName: u.DisplayName()}

	printer.Step("Creating workspace %q\n", seedTitle)
	ws, err := workspaces.CreateWorkspace(ctx, actor, service.CreateWorkspaceRequest{
		Title:       seedTitle,
		Description: "Sample board created by kanbanctl seed",
	})
	if err != nil {
		return nil, err
	}

	var created []*domain.List
	var firstCard *domain.Card
	for _, b := range demoBoard {
		l, err := lists.CreateList(ctx, actor, ws.ID, service.ListRequest{Title: b.list})
		if err != nil {
			return nil, err
		}
		created = append(created, l)

		for _, title := range b.cards {
			c, err := cards.CreateCard(ctx, actor, l.ID, service.CreateCardRequest{Title: title})
			if err != nil {
				return nil, err
			}
			if firstCard == nil {
				firstCard = c
			}
		}
	}

	// Start the first backlog card so the board has a move in its history.
	if _, err := cards.MoveCard(ctx, actor, firstCard.ID, service.MoveCardRequest{
		ListID:   created[1].ID,
		Position: 0,
	}); err != nil {
		return nil, err
	}

	return ws, nil
}

func init() {
	seedCmd.Flags().StringVar(&seedEmail, "email", "demo@example.com", "Owner of the demo board")
	seedCmd.Flags().StringVar(&seedTitle, "title", "Demo board", "Workspace title")
	rootCmd.AddCommand(seedCmd)
}
