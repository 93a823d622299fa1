package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/callscribe/callscribe/internal/services"
)

// PipelineWorkerPool consumes conversation ids from the processing stream and
// runs the pipeline for each. Fire-and-forget starts go through this pool so
// background failures stay visible in the log and in the conversation status
// instead of vanishing with an unawaited call.
type PipelineWorkerPool struct {
	Redis    *redis.Client
	Pipeline services.PipelineService

	NumWorkers int
	Logger     *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *PipelineWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Pipeline == nil {
		return errors.New("PipelineWorkerPool missing dependency: Redis and Pipeline must be set")
	}
	if p.Stream == "" {
		p.Stream = services.ProcessStream
	}
	if p.Group == "" {
		p.Group = "pipeline-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "w"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *PipelineWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    1, // recognition runs are long; take one at a time
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, consumer, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *PipelineWorkerPool) handleMsg(ctx context.Context, consumer string, msg redis.XMessage) {
	id, _ := msg.Values["conversation_id"].(string)
	if id == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":        msg.ID,
		"consumer":        consumer,
		"conversation_id": id,
	})
	log.Info("processing conversation")

	if err := p.Pipeline.Process(ctx, id); err != nil {
		// the orchestrator already moved the record to failed; this is the
		// error-channel side of the fire-and-forget contract
		log.WithError(err).Error("pipeline run failed")
		return
	}
	log.Info("conversation done")
}
