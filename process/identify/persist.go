package identify

import (
	"shakeassets/models"
)

// ToRun converts a summary into its database model.
func (s *Summary) ToRun() *models.IdentificationRun {
	run := &models.IdentificationRun{
		Dir:       s.Dir,
		StartedAt: s.StartedAt,
		Threshold: s.Threshold,
		Total:     len(s.Records),
		Renamed:   s.Renamed,
		Failed:    s.Failed,
		DryRun:    s.DryRun,
		Records:   make([]models.IdentificationRecord, 0, len(s.Records)),
	}
	if !s.FinishedAt.IsZero() {
		t := s.FinishedAt
		run.FinishedAt = &t
	}
	for _, r := range s.Records {
		run.Records = append(run.Records, models.IdentificationRecord{
			Original: r.Original,
			New:      r.New,
			ItemID:   r.Item,
			Score:    r.Score,
			Error:    r.Error,
		})
	}
	return run
}
