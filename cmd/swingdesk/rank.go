package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/swingdesk/internal/domain"
	"github.com/alanyoungcy/swingdesk/internal/ranking"
)

func rankCmd() *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "rank FILE",
		Short: "Score and rank candidates from a JSON file without touching any store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			cs, err := readCandidates(f)
			if err != nil {
				return fmt.Errorf("rank: %s: %w", args[0], err)
			}
			ranked := ranking.Rank(ranking.Enrich(cs))
			if top > 0 && len(ranked) > top {
				ranked = ranked[:top]
			}
			return writeRanking(cmd.OutOrStdout(), ranked)
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "only print the first N candidates")
	return cmd
}

// readCandidates accepts either a bare array or {"candidates": [...]}.
func readCandidates(r io.Reader) ([]domain.Candidate, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var cs []domain.Candidate
	if strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		err = json.Unmarshal(raw, &cs)
	} else {
		var wrapped struct {
			Candidates []domain.Candidate `json:"candidates"`
		}
		err = json.Unmarshal(raw, &wrapped)
		cs = wrapped.Candidates
	}
	if err != nil {
		return nil, err
	}
	for i := range cs {
		cs[i].Symbol = strings.ToUpper(strings.TrimSpace(cs[i].Symbol))
		if cs[i].Symbol == "" {
			return nil, fmt.Errorf("candidate %d has no symbol", i)
		}
	}
	return cs, nil
}

func writeRanking(w io.Writer, ranked []domain.Candidate) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSYMBOL\tSCORE\tTIER\tSTRUCTURE\tMOMENTUM\tSCENARIO")
	for i, c := range ranked {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\t%s\t%s\t%s\n",
			i+1, c.Symbol, c.Score, ranking.PriorityTier(c.Score), c.Structure, c.Momentum, c.ScenarioHint)
	}
	return tw.Flush()
}
