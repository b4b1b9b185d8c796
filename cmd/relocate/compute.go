package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/relocator/internal/domain/estimate"
	"github.com/okian/relocator/internal/domain/model"
)

var errAnswer = errors.New("answer must look like <question>=<choice>")

func newRegionsCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List the region catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := e.engine()
			if err != nil {
				return err
			}
			regions := svc.Catalog().All()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), regions)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCLIMATE\tCOMMUNITY\tBASE COST")
			for _, r := range regions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f\n", r.ID, r.Name, r.ClimateTag, r.CommunitySize, r.BaseCost)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newEstimateCmd(e *env) *cobra.Command {
	var f estimate.Form
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the cost of a move",
		Long:  "Estimates a move. Flags are coerced like the web form: unparsable values fall back to defaults.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := e.engine()
			if err != nil {
				return err
			}
			in, res := svc.Calculate(f)
			return printJSON(cmd.OutOrStdout(), model.CalculatorPayload{Input: in, Result: res})
		},
	}
	cmd.Flags().StringVar(&f.HouseholdSize, "household-size", "1", "people moving")
	cmd.Flags().StringVar(&f.OriginHousingCost, "origin-cost", "0", "current monthly housing cost")
	cmd.Flags().StringVar(&f.MoveTier, "tier", "", "move tier: minimal, partial or full")
	cmd.Flags().StringVar(&f.TargetRegionID, "region", "", "target region id")
	return cmd
}

func newMatchCmd(e *env) *cobra.Command {
	var raw []string
	var limit int
	cmd := &cobra.Command{
		Use:     "match",
		Short:   "Rank regions against quiz answers",
		Example: "  relocate match --answer 1=urban --answer 2=mediterranean --answer 3=career",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			answers, err := parseAnswers(raw)
			if err != nil {
				return err
			}
			svc, err := e.engine()
			if err != nil {
				return err
			}
			matches := svc.Rank(answers)
			if limit > 0 && limit < len(matches) {
				matches = matches[:limit]
			}
			return printJSON(cmd.OutOrStdout(), model.QuizPayload{Answers: answers, Matches: matches})
		},
	}
	cmd.Flags().StringArrayVarP(&raw, "answer", "a", nil, "question=choice, repeatable")
	cmd.Flags().IntVar(&limit, "top", 0, "print only the best n regions")
	return cmd
}

func parseAnswers(raw []string) ([]model.QuizAnswer, error) {
	answers := make([]model.QuizAnswer, 0, len(raw))
	for _, a := range raw {
		q, choice, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", errAnswer, a)
		}
		id, err := strconv.Atoi(strings.TrimSpace(q))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errAnswer, a)
		}
		answers = append(answers, model.QuizAnswer{QuestionID: id, Choice: strings.TrimSpace(choice)})
	}
	return answers, nil
}
