// Command landlord is an interactive terminal client for the remote
// economy backend. Run cmd/devserver first, then drive a session with
// simple line commands.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/x-ordo/the-landlord-web-client/internal/api"
	"github.com/x-ordo/the-landlord-web-client/internal/bridge"
	"github.com/x-ordo/the-landlord-web-client/internal/config"
	"github.com/x-ordo/the-landlord-web-client/internal/logging"
	"github.com/x-ordo/the-landlord-web-client/internal/session"
)

const usage = `commands:
  state               show the current session view
  refresh             refetch all views
  collect             collect accrued rent
  upgrade             upgrade the building one level
  type <name>         change the building type
  targets             list raid targets
  raid <defender>     raid a defender
  revenge             take the pending revenge raid
  accept              accept the pending employment invite
  invite              create and share an employment invite
  viral               send the contacts viral flow
  inbox               show inbox items
  read                mark all inbox items read
  block <hash>        block a user
  quests              list quests
  claim <quest>       claim a completed quest
  ad <type>           watch a rewarded ad
  buy <sku>           start a purchase (shield_24h, auto_collect_7d, ...)
  pending             list granted-but-incomplete orders
  complete <orderId>  finish a pending order
  share               share the pending raid offer for a reward
  leaderboard         show the leaderboard
  leaderboard open    open the platform's native leaderboard
  quit                exit`

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	br := bridge.NewMock(cfg.Client.IdentityFile)
	sess := session.New(api.NewClient(cfg.Client), br, cfg.Client)

	ctx := context.Background()
	if err := sess.Boot(ctx); err != nil {
		log.Fatal().Err(err).Msg("boot failed")
	}
	fmt.Printf("signed in as %s\n", sess.Identity())
	printState(sess)

	sc := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for sc.Scan() {
		fields := strings.Fields(strings.TrimSpace(sc.Text()))
		if len(fields) == 0 {
			fmt.Print("> ")
			continue
		}
		cmd, args := fields[0], fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return
		}
		runCommand(ctx, sess, cmd, args)
		fmt.Print("> ")
	}
}

func runCommand(ctx context.Context, sess *session.Session, cmd string, args []string) {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	switch cmd {
	case "help":
		fmt.Println(usage)
	case "state":
		printState(sess)
	case "refresh":
		sess.RefreshAll(ctx)
		printState(sess)
	case "collect":
		report(sess.Collect(ctx))
		printState(sess)
	case "upgrade":
		report(sess.UpgradeBuilding(ctx))
		printState(sess)
	case "type":
		if arg(0) == "" {
			fmt.Println("usage: type <name>")
			return
		}
		report(sess.ChangeBuildingType(ctx, arg(0)))
		printState(sess)
	case "targets":
		printTargets(sess)
	case "raid":
		if arg(0) == "" {
			fmt.Println("usage: raid <defender>")
			return
		}
		report(sess.Raid(ctx, arg(0), ""))
		printState(sess)
	case "revenge":
		takeRevenge(ctx, sess)
	case "accept":
		report(sess.AcceptInvite(ctx))
	case "invite":
		report(sess.CreateInvite(ctx))
	case "viral":
		report(sess.ContactsViral(ctx))
	case "inbox":
		printInbox(sess)
	case "read":
		report(sess.MarkAllRead(ctx))
	case "block":
		if arg(0) == "" {
			fmt.Println("usage: block <hash>")
			return
		}
		report(sess.BlockUser(ctx, arg(0)))
	case "quests":
		printQuests(sess)
	case "claim":
		if arg(0) == "" {
			fmt.Println("usage: claim <quest>")
			return
		}
		report(sess.ClaimQuest(ctx, arg(0)))
	case "ad":
		rewardType := arg(0)
		if rewardType == "" {
			rewardType = "gold"
		}
		report(sess.PlayAd(ctx, rewardType))
		printState(sess)
	case "buy":
		if arg(0) == "" {
			fmt.Println("usage: buy <sku>")
			return
		}
		report(sess.Purchase(ctx, arg(0)))
	case "pending":
		printPending(sess)
	case "complete":
		if arg(0) == "" {
			fmt.Println("usage: complete <orderId>")
			return
		}
		report(sess.CompletePendingOrder(ctx, arg(0)))
	case "share":
		report(sess.ShareForReward(ctx))
	case "leaderboard":
		if arg(0) == "open" {
			report(sess.OpenLeaderboard(ctx))
			return
		}
		printLeaderboard(sess)
	default:
		fmt.Printf("unknown command %q, try help\n", cmd)
	}
}

func takeRevenge(ctx context.Context, sess *session.Session) {
	gate := sess.RevengeAction()
	if gate == nil {
		fmt.Println("no pending revenge")
		return
	}
	if !gate.OK {
		fmt.Println(gate.Reason)
		return
	}
	view := sess.State()
	if view.RevengeInfo == nil {
		fmt.Println("no pending revenge")
		return
	}
	report(sess.Raid(ctx, view.RevengeInfo.AttackerHash, view.RevengeInfo.RaidID))
	sess.CloseRevenge()
	printState(sess)
}

func report(err error) {
	if err != nil {
		fmt.Println(api.Describe(err))
	}
}

func printState(sess *session.Session) {
	view := sess.State()
	if view.Snapshot == nil {
		fmt.Println("no snapshot yet")
		return
	}
	snap := view.Snapshot
	fmt.Printf("gold=%d level=%d type=%s gps=%.1f (effective %.1f) assets=%d\n",
		snap.Gold, snap.BuildingLevel, snap.BuildingType, snap.GPS, sess.EffectiveGPS(), sess.Assets())
	if view.Inbox != nil && view.Inbox.UnreadCount > 0 {
		fmt.Printf("unread inbox: %d\n", view.Inbox.UnreadCount)
	}
	if view.InviteID != "" {
		fmt.Printf("pending invite: %s (accept to take the job)\n", view.InviteID)
	}
	if view.RevengeInfo != nil {
		fmt.Printf("revenge available against %s (raid %s)\n", view.RevengeInfo.AttackerHash, view.RevengeInfo.RaidID)
	}
	if view.ShareOffer != nil {
		fmt.Printf("share offer: %s (share to claim a reward)\n", view.ShareOffer.Title)
	}
	if view.LastError != "" {
		fmt.Printf("last error: %s\n", view.LastError)
	}
}

func printTargets(sess *session.Session) {
	view := sess.State()
	if len(view.Targets) == 0 {
		fmt.Println("no targets, try refresh")
		return
	}
	for _, t := range view.Targets {
		fmt.Printf("%-16s assets=%-10d loot up to %d\n", t.DefenderHash, t.DefenderAssets, t.MaxLootHint)
	}
}

func printInbox(sess *session.Session) {
	view := sess.State()
	if view.Inbox == nil || len(view.Inbox.Items) == 0 {
		fmt.Println("inbox empty")
		return
	}
	for _, item := range view.Inbox.Items {
		marker := " "
		if item.ReadAt == nil {
			marker = "*"
		}
		fmt.Printf("%s %s %s %v\n", marker, item.ID, item.Type, item.Payload)
	}
}

func printQuests(sess *session.Session) {
	view := sess.State()
	if len(view.Quests) == 0 {
		fmt.Println("no quests, try refresh")
		return
	}
	for _, q := range view.Quests {
		status := fmt.Sprintf("%d/%d", q.CurrentCount, q.TargetCount)
		if q.IsClaimed {
			status = "claimed"
		} else if q.IsCompleted {
			status = "ready to claim"
		}
		fmt.Printf("%-16s %-32s %s (+%d gold)\n", q.QuestID, q.Description, status, q.RewardGold)
	}
}

func printPending(sess *session.Session) {
	view := sess.State()
	if len(view.Pending) == 0 {
		fmt.Println("no pending orders")
		return
	}
	for _, o := range view.Pending {
		fmt.Printf("%s %s granted at %s\n", o.OrderID, o.ProductID, o.GrantedAt)
	}
}

func printLeaderboard(sess *session.Session) {
	view := sess.State()
	if view.Leaderboard == nil || len(view.Leaderboard.TopEntries) == 0 {
		fmt.Println("no leaderboard, try refresh")
		return
	}
	for _, e := range view.Leaderboard.TopEntries {
		fmt.Printf("#%-3d %-16s level=%-3d assets=%d\n", e.Rank, e.UserHash, e.BuildingLevel, e.Assets)
	}
	if mine := view.Leaderboard.MyEntry; mine != nil {
		fmt.Printf("you: #%d with assets=%d\n", mine.Rank, mine.Assets)
	}
}
