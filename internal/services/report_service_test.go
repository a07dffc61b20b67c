package services

import (
	"context"
	"testing"

	"lims-backend/internal/models"
)

func (e *testEnv) newReport(t *testing.T) *models.Report {
	t.Helper()
	cbc := e.mustCreateTest(t, &models.CreateTestRequest{
		Name:  "CBC",
		Price: 300,
		Parameters: []models.TestParameter{
			{Name: "Hemoglobin", NormalRange: "13-17", Unit: "g/dL"},
		},
	})
	inv := e.mustCreateInvoice(t, &models.CreateInvoiceRequest{
		PatientID: 1,
		Tests:     []models.InvoiceTest{{TestID: cbc.ID, TestName: "CBC", Price: 300, Quantity: 1}},
	})
	return e.reportForInvoice(t, inv.ID)
}

func TestReportVerificationFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rep := env.newReport(t)

	if _, err := env.reports.MarkInProgress(ctx, rep.ID, 2); err != nil {
		t.Fatalf("MarkInProgress: %v", err)
	}
	if _, err := env.reports.MarkCompleted(ctx, rep.ID, 2); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	verified, err := env.reports.Verify(ctx, rep.ID, 5)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if verified.Status != models.ReportStatusVerified {
		t.Errorf("status = %q", verified.Status)
	}
	if verified.VerifiedBy == nil || *verified.VerifiedBy != 5 {
		t.Errorf("verified_by = %v", verified.VerifiedBy)
	}
	if verified.VerifiedAt == nil {
		t.Error("verified_at not set")
	}
	// creation + in_progress + completed + verified
	if len(verified.StatusHistory) != 4 {
		t.Errorf("history length = %d, want 4", len(verified.StatusHistory))
	}
}

func TestVerifyRequiresCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rep := env.newReport(t)

	if _, err := env.reports.Verify(ctx, rep.ID, 5); err != ErrInvalidTransition {
		t.Errorf("verify from pending: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := env.reports.Verify(ctx, 999, 5); err != ErrNotFound {
		t.Errorf("verify missing report: expected ErrNotFound, got %v", err)
	}
}

func TestDeclineRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rep := env.newReport(t)
	env.reports.MarkInProgress(ctx, rep.ID, 2)
	env.reports.MarkCompleted(ctx, rep.ID, 2)

	if _, err := env.reports.Decline(ctx, rep.ID, 5, ""); err != ErrDeclineReasonRequired {
		t.Fatalf("expected ErrDeclineReasonRequired, got %v", err)
	}

	declined, err := env.reports.Decline(ctx, rep.ID, 5, "Hemolyzed sample")
	if err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if declined.Status != models.ReportStatusDeclined {
		t.Errorf("status = %q", declined.Status)
	}
	if declined.DeclinedBy == nil || *declined.DeclinedBy != 5 {
		t.Errorf("declined_by = %v", declined.DeclinedBy)
	}
	if declined.DeclineReason != "Hemolyzed sample" {
		t.Errorf("reason = %q", declined.DeclineReason)
	}
	last := declined.StatusHistory[len(declined.StatusHistory)-1]
	if last.Comment != "Hemolyzed sample" {
		t.Errorf("history comment = %q", last.Comment)
	}
}

func TestUndoKeepsAttribution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rep := env.newReport(t)
	env.reports.MarkInProgress(ctx, rep.ID, 2)
	env.reports.MarkCompleted(ctx, rep.ID, 2)
	env.reports.Verify(ctx, rep.ID, 5)

	undone, err := env.reports.Undo(ctx, rep.ID, 5)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if undone.Status != models.ReportStatusCompleted {
		t.Errorf("status = %q, want completed", undone.Status)
	}
	if undone.VerifiedBy == nil {
		t.Error("verified_by cleared by undo; the trace should be kept")
	}

	// Undo only applies to verified or declined
	if _, err := env.reports.Undo(ctx, rep.ID, 5); err != ErrInvalidTransition {
		t.Errorf("undo from completed: expected ErrInvalidTransition, got %v", err)
	}
}

func TestSignedOffReportLeavesOnlyThroughUndo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rep := env.newReport(t)
	env.reports.MarkInProgress(ctx, rep.ID, 2)
	env.reports.MarkCompleted(ctx, rep.ID, 2)
	env.reports.Verify(ctx, rep.ID, 5)

	if _, err := env.reports.MarkCompleted(ctx, rep.ID, 2); err != ErrInvalidTransition {
		t.Errorf("MarkCompleted on verified: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := env.reports.MarkInProgress(ctx, rep.ID, 2); err != ErrInvalidTransition {
		t.Errorf("MarkInProgress on verified: expected ErrInvalidTransition, got %v", err)
	}

	env.reports.Undo(ctx, rep.ID, 5)
	env.reports.Decline(ctx, rep.ID, 5, "wrong sample")
	if _, err := env.reports.MarkCompleted(ctx, rep.ID, 2); err != ErrInvalidTransition {
		t.Errorf("MarkCompleted on declined: expected ErrInvalidTransition, got %v", err)
	}

	undone, err := env.reports.Undo(ctx, rep.ID, 5)
	if err != nil {
		t.Fatalf("Undo from declined: %v", err)
	}
	if undone.Status != models.ReportStatusCompleted {
		t.Errorf("status = %q, want completed", undone.Status)
	}
}

func TestLockedReportRejectsEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rep := env.newReport(t)

	if _, err := env.reports.Lock(ctx, rep.ID, 1); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	if _, err := env.reports.MarkInProgress(ctx, rep.ID, 2); err != ErrReportLocked {
		t.Errorf("MarkInProgress on locked: %v", err)
	}
	if _, err := env.reports.Verify(ctx, rep.ID, 5); err != ErrReportLocked {
		t.Errorf("Verify on locked: %v", err)
	}
	if _, err := env.reports.Undo(ctx, rep.ID, 5); err != ErrReportLocked {
		t.Errorf("Undo on locked: %v", err)
	}
	if _, err := env.reports.UpdateReport(ctx, rep.ID, &models.UpdateReportRequest{}, 2); err != ErrReportLocked {
		t.Errorf("UpdateReport on locked: %v", err)
	}
}

func TestUpdateReportResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rep := env.newReport(t)
	testID := rep.Tests[0].TestID

	updated, err := env.reports.UpdateReport(ctx, rep.ID, &models.UpdateReportRequest{
		Tests: &[]models.ReportTest{{
			TestID:          testID,
			Result:          "abnormal",
			IsAbnormal:      true,
			IsCritical:      true,
			CriticalComment: "phoned ward",
			Parameters: []models.ParameterResult{
				{Name: "Hemoglobin", Result: "6.1", IsCritical: true},
				{Name: "Unknown", Result: "ignored"},
			},
		}},
	}, 2)
	if err != nil {
		t.Fatalf("UpdateReport: %v", err)
	}

	entry := updated.Tests[0]
	if entry.Result != "abnormal" || !entry.IsCritical {
		t.Errorf("entry not updated: %+v", entry)
	}
	if entry.CriticalComment != "phoned ward" {
		t.Errorf("critical comment = %q", entry.CriticalComment)
	}
	if !updated.CriticalValues {
		t.Error("critical flag not derived")
	}
	if len(entry.Parameters) != 1 {
		t.Fatalf("unknown parameter was appended: %+v", entry.Parameters)
	}
	if entry.Parameters[0].Result != "6.1" || !entry.Parameters[0].IsCritical {
		t.Errorf("parameter result not applied: %+v", entry.Parameters[0])
	}
	// Sub-result range stays as seeded
	if entry.Parameters[0].NormalRange != "13-17" {
		t.Errorf("parameter range changed: %q", entry.Parameters[0].NormalRange)
	}

	// Entries in the request for tests not on the report are ignored
	before := len(updated.Tests)
	again, err := env.reports.UpdateReport(ctx, rep.ID, &models.UpdateReportRequest{
		Tests: &[]models.ReportTest{{TestID: 999, Result: "stray"}},
	}, 2)
	if err != nil {
		t.Fatalf("UpdateReport: %v", err)
	}
	if len(again.Tests) != before {
		t.Errorf("test set changed through a result edit")
	}

	// Clearing the critical flag clears the derived flag too
	cleared, err := env.reports.UpdateReport(ctx, rep.ID, &models.UpdateReportRequest{
		Tests: &[]models.ReportTest{{TestID: testID, Result: "normal"}},
	}, 2)
	if err != nil {
		t.Fatalf("UpdateReport: %v", err)
	}
	if cleared.CriticalValues {
		t.Error("critical flag not cleared")
	}
}

func TestReportCommentsAndAttachments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rep := env.newReport(t)

	withComment, err := env.reports.AddComment(ctx, rep.ID, 2, "re-run requested")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(withComment.Comments) != 1 || withComment.Comments[0].Comment != "re-run requested" {
		t.Errorf("comments = %+v", withComment.Comments)
	}

	withFile, err := env.reports.AddAttachment(ctx, rep.ID, 2, "scan.pdf", "uploads/scan.pdf")
	if err != nil {
		t.Fatalf("AddAttachment: %v", err)
	}
	if len(withFile.Attachments) != 1 || withFile.Attachments[0].Name != "scan.pdf" {
		t.Errorf("attachments = %+v", withFile.Attachments)
	}
}
