package services

import (
	"context"
	"fmt"

	"lims-backend/internal/metrics"
	"lims-backend/internal/models"
	"lims-backend/internal/store"
	"lims-backend/internal/timeutil"
)

// ReportService drives the report status machine:
//
//	pending -> in_progress -> completed -> verified
//	                          completed -> declined
//	verified/declined -> (undo) -> completed
//
// Locked is terminal; the lock guard is enforced here rather than
// scattered across callers. Every transition appends exactly one status
// history entry.
type ReportService struct {
	Store    *store.Store
	Recorder *AuditRecorder
}

func NewReportService(st *store.Store, recorder *AuditRecorder) *ReportService {
	return &ReportService{Store: st, Recorder: recorder}
}

// UpdateReport applies entered results to a report. Result edits match
// by test id against the report's current test set; the set itself is
// owned by the invoice and is not editable here.
func (s *ReportService) UpdateReport(ctx context.Context, id int, req *models.UpdateReportRequest, userID int) (*models.Report, error) {
	var updated *models.Report
	err := s.Store.Update(func(st *store.State) error {
		rep, ok := st.Reports[id]
		if !ok {
			return ErrNotFound
		}
		if rep.Status == models.ReportStatusLocked {
			return ErrReportLocked
		}

		if req.Tests != nil {
			incoming := make(map[int]models.ReportTest, len(*req.Tests))
			for _, entry := range *req.Tests {
				incoming[entry.TestID] = entry
			}
			for i := range rep.Tests {
				in, ok := incoming[rep.Tests[i].TestID]
				if !ok {
					continue
				}
				rep.Tests[i].Result = in.Result
				rep.Tests[i].IsAbnormal = in.IsAbnormal
				rep.Tests[i].IsCritical = in.IsCritical
				rep.Tests[i].CriticalComment = in.CriticalComment
				applyParameterResults(rep.Tests[i].Parameters, in.Parameters)
			}
			rep.CriticalValues = anyCritical(rep.Tests)
		}
		if req.Interpretation != nil {
			rep.Interpretation = *req.Interpretation
		}
		st.Touch(store.ColReports)

		s.Recorder.Log(st, userID, models.AuditActionUpdate, "reports",
			fmt.Sprintf("Updated results on report #%d", rep.ID))
		if rep.CriticalValues {
			s.Recorder.Notify(st, models.NotificationError, "reports", "Critical values",
				fmt.Sprintf("Report #%d contains critical results", rep.ID), models.PriorityHigh)
		}

		updated = rep
		return nil
	})
	return updated, err
}

// applyParameterResults copies entered sub-result values onto the
// report's parameter list, matched by name. Range/unit stay as seeded
// from the catalog.
func applyParameterResults(dst []models.ParameterResult, src []models.ParameterResult) {
	byName := make(map[string]models.ParameterResult, len(src))
	for _, p := range src {
		byName[p.Name] = p
	}
	for i := range dst {
		if in, ok := byName[dst[i].Name]; ok {
			dst[i].Result = in.Result
			dst[i].IsAbnormal = in.IsAbnormal
			dst[i].IsCritical = in.IsCritical
		}
	}
}

func (s *ReportService) transition(id, userID int, comment string, apply func(rep *models.Report) error) (*models.Report, error) {
	var updated *models.Report
	err := s.Store.Update(func(st *store.State) error {
		rep, ok := st.Reports[id]
		if !ok {
			return ErrNotFound
		}
		if rep.Status == models.ReportStatusLocked {
			return ErrReportLocked
		}
		from := rep.Status
		if err := apply(rep); err != nil {
			return err
		}
		rep.StatusHistory = append(rep.StatusHistory, models.StatusChange{
			Status:    rep.Status,
			ChangedBy: userID,
			ChangedAt: timeutil.Now(),
			Comment:   comment,
		})
		st.Touch(store.ColReports)

		metrics.ReportTransitionsTotal.WithLabelValues(rep.Status).Inc()
		s.Recorder.Log(st, userID, models.AuditActionStatus, "reports",
			fmt.Sprintf("Report #%d: %s -> %s", rep.ID, from, rep.Status))

		updated = rep
		return nil
	})
	return updated, err
}

// MarkInProgress moves a report into result entry. Verified and
// declined reports only leave those states through Undo, so the undo
// trail stays authoritative.
func (s *ReportService) MarkInProgress(ctx context.Context, id, userID int) (*models.Report, error) {
	return s.transition(id, userID, "", func(rep *models.Report) error {
		if rep.Status == models.ReportStatusVerified || rep.Status == models.ReportStatusDeclined {
			return ErrInvalidTransition
		}
		rep.Status = models.ReportStatusInProgress
		return nil
	})
}

// MarkCompleted marks result entry finished
func (s *ReportService) MarkCompleted(ctx context.Context, id, userID int) (*models.Report, error) {
	return s.transition(id, userID, "", func(rep *models.Report) error {
		if rep.Status == models.ReportStatusVerified || rep.Status == models.ReportStatusDeclined {
			return ErrInvalidTransition
		}
		rep.Status = models.ReportStatusCompleted
		return nil
	})
}

// Verify signs off a completed report
func (s *ReportService) Verify(ctx context.Context, id, userID int) (*models.Report, error) {
	return s.transition(id, userID, "", func(rep *models.Report) error {
		if rep.Status != models.ReportStatusCompleted {
			return ErrInvalidTransition
		}
		now := timeutil.Now()
		rep.Status = models.ReportStatusVerified
		rep.VerifiedBy = &userID
		rep.VerifiedAt = &now
		return nil
	})
}

// Decline rejects a completed report; a reason is mandatory
func (s *ReportService) Decline(ctx context.Context, id, userID int, reason string) (*models.Report, error) {
	if reason == "" {
		return nil, ErrDeclineReasonRequired
	}
	return s.transition(id, userID, reason, func(rep *models.Report) error {
		if rep.Status != models.ReportStatusCompleted {
			return ErrInvalidTransition
		}
		now := timeutil.Now()
		rep.Status = models.ReportStatusDeclined
		rep.DeclinedBy = &userID
		rep.DeclinedAt = &now
		rep.DeclineReason = reason
		return nil
	})
}

// Undo returns a verified or declined report to completed. The
// verified/declined attribution fields are kept as a historical trace.
func (s *ReportService) Undo(ctx context.Context, id, userID int) (*models.Report, error) {
	return s.transition(id, userID, "Undo verification/decline", func(rep *models.Report) error {
		if rep.Status != models.ReportStatusVerified && rep.Status != models.ReportStatusDeclined {
			return ErrInvalidTransition
		}
		rep.Status = models.ReportStatusCompleted
		return nil
	})
}

// Lock moves a report into the terminal locked state
func (s *ReportService) Lock(ctx context.Context, id, userID int) (*models.Report, error) {
	return s.transition(id, userID, "Report locked", func(rep *models.Report) error {
		rep.Status = models.ReportStatusLocked
		return nil
	})
}

// AddComment appends a free-text comment
func (s *ReportService) AddComment(ctx context.Context, id, userID int, comment string) (*models.Report, error) {
	var updated *models.Report
	err := s.Store.Update(func(st *store.State) error {
		rep, ok := st.Reports[id]
		if !ok {
			return ErrNotFound
		}
		rep.Comments = append(rep.Comments, models.ReportComment{
			UserID:    userID,
			Comment:   comment,
			CreatedAt: timeutil.Now(),
		})
		st.Touch(store.ColReports)
		s.Recorder.Log(st, userID, models.AuditActionComment, "reports",
			fmt.Sprintf("Comment added to report #%d", rep.ID))
		updated = rep
		return nil
	})
	return updated, err
}

// AddAttachment records an uploaded file reference
func (s *ReportService) AddAttachment(ctx context.Context, id, userID int, name, key string) (*models.Report, error) {
	var updated *models.Report
	err := s.Store.Update(func(st *store.State) error {
		rep, ok := st.Reports[id]
		if !ok {
			return ErrNotFound
		}
		rep.Attachments = append(rep.Attachments, models.ReportAttachment{
			Name:       name,
			Key:        key,
			UploadedBy: userID,
			UploadedAt: timeutil.Now(),
		})
		st.Touch(store.ColReports)
		s.Recorder.Log(st, userID, models.AuditActionAttachment, "reports",
			fmt.Sprintf("Attachment %q added to report #%d", name, rep.ID))
		updated = rep
		return nil
	})
	return updated, err
}

// GetReport returns one report
func (s *ReportService) GetReport(ctx context.Context, id int) (*models.Report, error) {
	var rep *models.Report
	s.Store.View(func(st *store.State) {
		if found, ok := st.Reports[id]; ok {
			cp := *found
			rep = &cp
		}
	})
	if rep == nil {
		return nil, ErrNotFound
	}
	return rep, nil
}

// ListReports returns all reports ordered by id
func (s *ReportService) ListReports(ctx context.Context) []*models.Report {
	var out []*models.Report
	s.Store.View(func(st *store.State) {
		out = st.ReportList()
	})
	return out
}
