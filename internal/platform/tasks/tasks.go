package tasks

import (
	"encoding/json"

	"jobcrawler/internal/platform/redis"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeCycle = "crawl:cycle"

	QueueDefault = "default"
)

// CyclePayload identifies one crawl cycle run.
type CyclePayload struct {
	RunID string `json:"run_id"`
	Site  string `json:"site"`
}

func NewCycleTask(p CyclePayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCycle, b), nil
}

type Client struct{ c *asynq.Client }

func New(r *redis.Service) *Client { return &Client{c: asynq.NewClient(r.AsynqRedisOpt())} }

func (t *Client) Enqueue(task *asynq.Task, queue string, maxRetries int) error {
	_, err := t.c.Enqueue(task, asynq.Queue(queue), asynq.MaxRetry(maxRetries))
	return err
}

func (t *Client) Close() error { return t.c.Close() }
