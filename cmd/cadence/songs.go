package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cuemby/cadence/pkg/client"
)

var songsCmd = &cobra.Command{
	Use:   "songs",
	Short: "Browse the song catalogue",
}

var songsSearchCmd = &cobra.Command{
	Use:   "search PATTERN",
	Short: "Search songs by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(cfg.APIURL,
			client.WithToken(cfg.Token),
			client.WithTimeout(cfg.RequestTimeout),
		)

		ctx, cancel := requestContext()
		defer cancel()

		songs, err := c.SearchSongs(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to search songs: %w", err)
		}

		if len(songs) == 0 {
			fmt.Println("No songs found")
			return nil
		}

		fmt.Printf("%-24s %-40s %s\n", "ID", "TRACK", "ARTISTS")
		for _, s := range songs {
			fmt.Printf("%-24s %-40s %s\n", s.ID, s.TrackName, strings.Join(s.Artists, ", "))
		}
		return nil
	},
}

func init() {
	songsCmd.AddCommand(songsSearchCmd)
}
