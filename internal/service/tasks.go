package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Task types handled by the worker
const (
	TypeCampaignDeliver = "campaign:deliver"
	TypeArchiveBuild    = "archive:build"
)

// TaskQueue is the slice of asynq.Client the handlers need. Tests
// swap in a recorder
type TaskQueue interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type CampaignDeliverPayload struct {
	CampaignID uint `json:"campaign_id"`
}

type ArchiveBuildPayload struct {
	ArchiveID string `json:"archive_id"`
	VideoIDs  []uint `json:"video_ids"`
}

func NewCampaignDeliverTask(campaignID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(CampaignDeliverPayload{CampaignID: campaignID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCampaignDeliver, payload), nil
}

func NewArchiveBuildTask(archiveID string, videoIDs []uint) (*asynq.Task, error) {
	payload, err := json.Marshal(ArchiveBuildPayload{ArchiveID: archiveID, VideoIDs: videoIDs})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeArchiveBuild, payload), nil
}

func redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	}
}

// NewTaskClient returns the asynq client used to enqueue background
// work. Tasks survive process restarts, redis is the source of truth
func NewTaskClient() *asynq.Client {
	return asynq.NewClient(redisOpt())
}

// StartWorker runs the asynq server that processes campaign delivery
// and archive builds in the background
func StartWorker(sender *CampaignSender, archiver *Archiver) (*asynq.Server, error) {
	srv := asynq.NewServer(redisOpt(), asynq.Config{
		// Campaign delivery holds a worker slot for the whole batch,
		// so a bit of headroom is left for archive builds
		Concurrency: 4,
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()

	mux.HandleFunc(TypeCampaignDeliver, func(ctx context.Context, t *asynq.Task) error {
		var p CampaignDeliverPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("bad campaign payload, %w: %w", err, asynq.SkipRetry)
		}

		return sender.Deliver(ctx, p.CampaignID)
	})

	mux.HandleFunc(TypeArchiveBuild, func(ctx context.Context, t *asynq.Task) error {
		var p ArchiveBuildPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("bad archive payload, %w: %w", err, asynq.SkipRetry)
		}

		return archiver.Build(ctx, p.ArchiveID, p.VideoIDs)
	})

	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start task worker, %w", err)
	}

	zap.L().Debug("Task worker started")

	return srv, nil
}
