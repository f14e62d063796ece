package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/fatflowers/payrecon/internal/app/service/reconcile"
	"github.com/fatflowers/payrecon/internal/app/service/webhook"
)

func reconcilePendingCmd() *cobra.Command {
	var (
		olderThan time.Duration
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "reconcile-pending",
		Short: "Re-check PENDING orders against Mercado Pago",
		Long: `Fetches the processor status of every PENDING order older than --older-than
and applies the resulting transition, dispatching vendor webhooks when the
order changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			var svc *reconcile.Service
			return withCore(cmd.Context(), func(ctx context.Context) error {
				res, err := svc.ReconcilePending(ctx, olderThan, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			}, &svc)
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*time.Minute, "Only orders created before now minus this age")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum orders to check")
	return cmd
}

func redeliverCmd() *cobra.Command {
	var (
		id    string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "redeliver",
		Short: "Re-send failed webhook deliveries",
		Long: `With --id, re-sends that single delivery. Without it, re-sends every failed
delivery whose backoff has elapsed, up to --limit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r *webhook.Redeliverer
			return withCore(cmd.Context(), func(ctx context.Context) error {
				if id != "" {
					out, err := r.Redeliver(ctx, id)
					if err != nil {
						return err
					}
					return printJSON(cmd, out)
				}
				report, err := r.RedeliverDue(ctx, time.Now().UTC(), limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			}, &r)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Delivery id to re-send")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum due deliveries to re-send")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
