// internal/service/job_runner.go
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Job kinds a scheduler driver can enqueue. Each invokes the matching batch
// operation; all of them are idempotent re-invocations because eligibility
// is recomputed from persisted state.
const (
	JobSendBatch     = "send_batch"
	JobPollResponses = "poll_responses"
	JobVerifyChannel = "verify_channel"
	JobAutoAssign    = "auto_assign"
)

// OutreachJob is the payload published to the job queue.
type OutreachJob struct {
	Kind      string          `json:"kind"`
	ChapterID string          `json:"chapter_id"`
	BatchSize int             `json:"batch_size,omitempty"`
	Send      SendBatchParams `json:"send,omitempty"`
}

// JobRunner dispatches queued jobs to the engine services. It is shared by
// the in-memory subscriber and the AMQP worker.
type JobRunner struct {
	Assign *AssignService
	Send   *SendService
	Verify *VerifyService
	Poll   *PollService
}

// Run executes one job to completion or failure. Batch-level partial
// failures are already absorbed inside the services; an error here means
// the invocation itself could not run.
func (r *JobRunner) Run(ctx context.Context, job OutreachJob) error {
	switch job.Kind {
	case JobAutoAssign:
		result, err := r.Assign.AutoAssign(job.ChapterID)
		if err != nil {
			return err
		}
		log.Info().Str("chapterID", job.ChapterID).Int("assigned", result.Assigned).Msg("Auto-assign job done")

	case JobSendBatch:
		params := job.Send
		if params.ChapterID == "" {
			params.ChapterID = job.ChapterID
		}
		result, err := r.Send.SendBatch(ctx, params)
		if err != nil {
			return err
		}
		log.Info().Str("chapterID", params.ChapterID).Int("touch", params.Touch).
			Int("sent", result.Sent).Int("errors", len(result.Errors)).Msg("Send batch job done")

	case JobVerifyChannel:
		result, err := r.Verify.VerifyChannels(ctx, job.ChapterID, job.BatchSize)
		if err != nil {
			return err
		}
		log.Info().Str("chapterID", job.ChapterID).Int("checked", result.TotalChecked).Msg("Verify channel job done")

	case JobPollResponses:
		result, err := r.Poll.PollResponses(ctx, job.ChapterID, job.BatchSize)
		if err != nil {
			return err
		}
		log.Info().Str("chapterID", job.ChapterID).Int("newResponses", result.NewResponses).Msg("Poll responses job done")

	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
	return nil
}
