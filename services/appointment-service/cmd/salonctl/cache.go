package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/md-rashed-zaman/salondesk/libs/config"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/apptcache"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/events"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached appointment results",
	}

	var tenant int64
	invalidate := &cobra.Command{
		Use:   "invalidate",
		Short: "Drop every cached result for a tenant",
		Long: "Bumps the tenant's shared generation in Redis (when REDIS_ADDR is set) and " +
			"publishes an appointment-changed event so instances with local caches drop theirs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenant <= 0 {
				return fmt.Errorf("--tenant must be positive")
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if addr := config.String("REDIS_ADDR", ""); addr != "" {
				rdb := redis.NewClient(&redis.Options{
					Addr:     addr,
					Password: config.String("REDIS_PASSWORD", ""),
					DB:       config.Int("REDIS_DB", 0),
				})
				defer func() { _ = rdb.Close() }()
				gen, err := apptcache.NewRedisGenerations(rdb, "salondesk").Bump(ctx, tenant)
				if err != nil {
					return fmt.Errorf("bump generation: %w", err)
				}
				fmt.Fprintf(out, "tenant %d generation is now %d\n", tenant, gen)
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			pub := events.NewPublisher(events.PublisherConfig{
				Brokers: config.String("KAFKA_BROKERS", ""),
				Topic:   config.String("KAFKA_APPOINTMENT_TOPIC", events.DefaultTopic),
			}, logger)
			defer func() { _ = pub.Close() }()
			if err := pub.AppointmentChanged(ctx, tenant, 0); err != nil {
				return err
			}
			fmt.Fprintf(out, "invalidation requested for tenant %d\n", tenant)
			return nil
		},
	}
	invalidate.Flags().Int64Var(&tenant, "tenant", 0, "tenant id")
	cmd.AddCommand(invalidate)
	return cmd
}
