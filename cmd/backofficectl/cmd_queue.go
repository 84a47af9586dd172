package main

import (
	"errors"
	"fmt"

	"backoffice/internal/config"
	"backoffice/internal/infra"
	"backoffice/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func bootRedis() (*redis.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	if rdb == nil {
		return nil, errors.New("REDIS_URL is empty: the job queue is disabled")
	}
	return rdb, nil
}

// backofficectl dlq:status
var dlqStatusCmd = &cobra.Command{
	Use:   "dlq:status",
	Short: "Show how many jobs sit in the dead letter queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		rdb, err := bootRedis()
		if err != nil {
			return err
		}
		defer rdb.Close()
		n, err := worker.DLQLength(cmd.Context(), rdb, worker.QueueLowStock)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d dead job(s)\n", worker.QueueLowStock, n)
		return nil
	},
}

// backofficectl dlq:replay --limit 50
var dlqReplayCmd = &cobra.Command{
	Use:   "dlq:replay",
	Short: "Move dead jobs back onto their queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		rdb, err := bootRedis()
		if err != nil {
			return err
		}
		defer rdb.Close()
		n, err := worker.ReplayDLQ(cmd.Context(), rdb, worker.QueueLowStock, limit)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "replayed %d job(s)\n", n)
		return nil
	},
}

func init() {
	dlqReplayCmd.Flags().Int("limit", 100, "maximum number of jobs to replay")
}
