package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/cadence/pkg/config"
	"github.com/cuemby/cadence/pkg/types"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage listening sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create [NAME]",
	Short: "Create a session as host",
	Long: `Create a session as host, either by name or from a YAML draft:

  cadence session create "Friday"
  cadence session create -f friday.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		follow, _ := cmd.Flags().GetBool("watch")

		var draft types.SessionDraft
		switch {
		case file != "":
			d, err := config.LoadDraft(file)
			if err != nil {
				return err
			}
			draft = d
		case len(args) == 1:
			draft = types.SessionDraft{Name: args[0]}
		default:
			return fmt.Errorf("a session name or --file is required")
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := requestContext()
		defer cancel()

		fmt.Printf("Creating session %q...\n", draft.Name)
		sess, err := a.ctrl.CreateSession(ctx, draft)
		if err != nil {
			return err
		}

		fmt.Println("✓ Session created")
		printSession(sess)
		if follow {
			return a.watch(statusAddr(cmd))
		}
		return nil
	},
}

var sessionJoinCmd = &cobra.Command{
	Use:   "join TOKEN",
	Short: "Join a session with an invite token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("watch")

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := requestContext()
		defer cancel()

		sess, err := a.ctrl.JoinSession(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Println("✓ Joined session")
		printSession(sess)
		if follow {
			return a.watch(statusAddr(cmd))
		}
		return nil
	},
}

var sessionResumeCmd = &cobra.Command{
	Use:   "resume [ID]",
	Short: "Show a session, by default the last one used",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := fetch(a, args); err != nil {
			return err
		}
		printSession(a.ctrl.Snapshot())
		return nil
	},
}

var sessionWatchCmd = &cobra.Command{
	Use:   "watch [ID]",
	Short: "Follow a session and print its events",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := fetch(a, args); err != nil {
			return err
		}
		printSession(a.ctrl.Snapshot())
		return a.watch(statusAddr(cmd))
	},
}

var sessionEndCmd = &cobra.Command{
	Use:   "end [ID]",
	Short: "End a session as host",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := fetch(a, args); err != nil {
			return err
		}

		ctx, cancel := requestContext()
		defer cancel()

		artifacts, err := a.ctrl.EndSession(ctx)
		if err != nil {
			return err
		}

		fmt.Println("✓ Session ended")
		if artifacts != nil {
			printArtifacts(artifacts)
		}
		return nil
	},
}

var sessionLeaveCmd = &cobra.Command{
	Use:   "leave [ID]",
	Short: "Leave a session as guest",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := fetch(a, args); err != nil {
			return err
		}

		ctx, cancel := requestContext()
		defer cancel()

		if err := a.ctrl.LeaveSession(ctx); err != nil {
			return err
		}
		fmt.Println("✓ Left session")
		return nil
	},
}

var sessionVoteCmd = &cobra.Command{
	Use:   "vote SONG_ID",
	Short: "Vote for a recommendation in the current session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("session")
		remove, _ := cmd.Flags().GetBool("remove")

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		var fetchArgs []string
		if id != "" {
			fetchArgs = []string{id}
		}
		if err := fetch(a, fetchArgs); err != nil {
			return err
		}

		ctx, cancel := requestContext()
		defer cancel()

		if remove {
			err = a.ctrl.Unvote(ctx, args[0])
		} else {
			err = a.ctrl.Vote(ctx, args[0])
		}
		if err != nil {
			return err
		}

		fmt.Println("✓ Vote recorded")
		printRecommendations(a.ctrl.Snapshot().Recommendations)
		return nil
	},
}

var sessionRemoveGuestCmd = &cobra.Command{
	Use:   "remove-guest GUEST_ID",
	Short: "Remove a guest from the current session as host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("session")

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		var fetchArgs []string
		if id != "" {
			fetchArgs = []string{id}
		}
		if err := fetch(a, fetchArgs); err != nil {
			return err
		}

		ctx, cancel := requestContext()
		defer cancel()

		if err := a.ctrl.RemoveGuest(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Guest %s removed\n", args[0])
		return nil
	},
}

func init() {
	sessionCreateCmd.Flags().StringP("file", "f", "", "YAML session draft")
	sessionCreateCmd.Flags().Bool("watch", false, "keep following the session")
	sessionCreateCmd.Flags().String("status-addr", "", "serve status endpoints while watching")

	sessionJoinCmd.Flags().Bool("watch", false, "keep following the session")
	sessionJoinCmd.Flags().String("status-addr", "", "serve status endpoints while watching")

	sessionWatchCmd.Flags().String("status-addr", "", "serve status endpoints (default metrics_addr)")

	sessionVoteCmd.Flags().String("session", "", "session ID (default: last used)")
	sessionVoteCmd.Flags().Bool("remove", false, "withdraw the vote instead")

	sessionRemoveGuestCmd.Flags().String("session", "", "session ID (default: last used)")

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionJoinCmd)
	sessionCmd.AddCommand(sessionResumeCmd)
	sessionCmd.AddCommand(sessionWatchCmd)
	sessionCmd.AddCommand(sessionEndCmd)
	sessionCmd.AddCommand(sessionLeaveCmd)
	sessionCmd.AddCommand(sessionVoteCmd)
	sessionCmd.AddCommand(sessionRemoveGuestCmd)
}

// fetch loads the session named in args, or the last one used
func fetch(a *app, args []string) error {
	var id string
	if len(args) > 0 {
		id = args[0]
	}

	ctx, cancel := requestContext()
	defer cancel()

	sess, err := a.ctrl.FetchSession(ctx, id)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("no session to resume; pass a session ID")
	}
	return nil
}

func statusAddr(cmd *cobra.Command) string {
	if addr, _ := cmd.Flags().GetString("status-addr"); addr != "" {
		return addr
	}
	return cfg.MetricsAddr
}

func printSession(sess *types.Session) {
	if sess == nil {
		return
	}
	fmt.Printf("  ID: %s\n", sess.ID)
	fmt.Printf("  Name: %s\n", sess.Name)
	if sess.HostName != "" {
		fmt.Printf("  Host: %s\n", sess.HostName)
	}
	if sess.InviteLink != "" {
		fmt.Printf("  Invite: %s\n", sess.InviteLink)
	}
	fmt.Printf("  Guests: %d\n", len(sess.Guests))
	if sess.Playlist != nil {
		if cur := sess.Playlist.CurrentSong; cur != nil {
			fmt.Printf("  Now playing: %s (%s)\n", cur.TrackName, cur.ID)
		}
		fmt.Printf("  Queue: %d songs\n", len(sess.Playlist.QueuedSongs))
	}
	printRecommendations(sess.Recommendations)
}

func printRecommendations(recs []types.Recommendation) {
	if len(recs) == 0 {
		return
	}
	fmt.Println("  Recommendations:")
	for _, r := range recs {
		fmt.Printf("    %-24s %-40s %d votes\n", r.ID, r.TrackName, r.VoteCount())
	}
}

func printArtifacts(a *types.Artifacts) {
	fmt.Printf("  Songs played: %d\n", a.SongsPlayed)
	fmt.Printf("  Songs added manually: %d\n", a.SongsAddedManually)
	if a.MostSongsAddedBy != "" {
		fmt.Printf("  Most songs added by: %s\n", a.MostSongsAddedBy)
	}
	if a.MostSignificantFeatureOverall != "" {
		fmt.Printf("  Defining feature: %s\n", a.MostSignificantFeatureOverall)
	}
	fmt.Printf("  First recommendation vote share: %.0f%%\n", a.FirstRecommendationVotePercentage)
}
