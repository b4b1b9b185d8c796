package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/relocator/internal/adapters/repository"
	"github.com/okian/relocator/internal/domain/model"
)

// leadExport is one exported lead with its email log.
type leadExport struct {
	model.LeadRecord
	Emails []model.EmailLog `json:"emails"`
}

func newLeadsCmd(e *env) *cobra.Command {
	var source string
	var limit int
	var withEmails bool
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Export leads from the configured lead store, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := repository.Open(ctx, e.cfg.LeadStore, e.cfg.LeadStoreDSN)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			leads, err := store.ListLeads(ctx, repository.Filter{Source: model.Source(source), Limit: limit})
			if err != nil {
				return err
			}
			out := make([]leadExport, 0, len(leads))
			for _, l := range leads {
				row := leadExport{LeadRecord: l, Emails: []model.EmailLog{}}
				if withEmails {
					if row.Emails, err = store.EmailsForLead(ctx, l.ID); err != nil {
						return err
					}
				}
				out = append(out, row)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "calculator, quiz or newsletter")
	cmd.Flags().IntVar(&limit, "limit", repository.DefaultLimit, "maximum leads to export")
	cmd.Flags().BoolVar(&withEmails, "emails", false, "include each lead's email log")
	return cmd
}

func newStatsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print lead and email totals of the configured lead store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := repository.Open(ctx, e.cfg.LeadStore, e.cfg.LeadStoreDSN)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			st, err := store.Stats(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}
