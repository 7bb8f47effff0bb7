package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/jobscribe-backend/internal/writer"
)

// StageStat aggregates timings for one stage over the items that reached it.
type StageStat struct {
	Count int           `json:"count"`
	Avg   time.Duration `json:"avg"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
}

// Report summarizes one batch run.
type Report struct {
	BatchID       string              `json:"batch_id"`
	Total         int                 `json:"total"`
	Succeeded     int                 `json:"succeeded"`
	Failed        int                 `json:"failed"`
	SuccessRate   float64             `json:"success_rate"`
	Created       int                 `json:"created"`
	Updated       int                 `json:"updated"`
	StageStats    map[Stage]StageStat `json:"stage_stats"`
	FailedByStage map[Stage][]string  `json:"failed_by_stage,omitempty"`
	Elapsed       time.Duration       `json:"elapsed"`
}

func buildReport(results []*ItemResult, elapsed time.Duration) *Report {
	r := &Report{
		BatchID:       uuid.NewString(),
		Total:         len(results),
		StageStats:    make(map[Stage]StageStat),
		FailedByStage: make(map[Stage][]string),
		Elapsed:       elapsed,
	}

	sums := make(map[Stage]time.Duration)
	for _, item := range results {
		if item == nil {
			continue
		}
		switch item.Outcome {
		case OutcomeSuccess:
			r.Succeeded++
		case OutcomeFailed:
			r.Failed++
			r.FailedByStage[item.FailureStage] = append(r.FailedByStage[item.FailureStage], item.URL)
		}
		if item.Write != nil && item.Write.OK {
			switch item.Write.Operation {
			case writer.OperationCreated:
				r.Created++
			case writer.OperationUpdated:
				r.Updated++
			}
		}
		for stage, d := range item.StageElapsed {
			stat := r.StageStats[stage]
			if stat.Count == 0 || d < stat.Min {
				stat.Min = d
			}
			if d > stat.Max {
				stat.Max = d
			}
			stat.Count++
			sums[stage] += d
			r.StageStats[stage] = stat
		}
	}

	for stage, stat := range r.StageStats {
		stat.Avg = sums[stage] / time.Duration(stat.Count)
		r.StageStats[stage] = stat
	}
	if r.Total > 0 {
		r.SuccessRate = float64(r.Succeeded) / float64(r.Total)
	}
	return r
}
