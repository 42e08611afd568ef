package jobs

import (
	"context"
	"fmt"
	"time"

	"pharmatrack/internal/repositories"
	"pharmatrack/internal/scope"
	"pharmatrack/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

// FollowUpReminder walks every organization each morning and mails the staff
// member assigned to each follow-up plan whose review date is today.
type FollowUpReminder struct {
	orgRepo      repositories.OrganizationRepository
	followUpRepo repositories.FollowUpPlanRepository
	patientRepo  repositories.PatientRepository
	staffRepo    repositories.StaffRepository
	notifier     services.Notifier
}

func NewFollowUpReminder(orgRepo repositories.OrganizationRepository,
	followUpRepo repositories.FollowUpPlanRepository, patientRepo repositories.PatientRepository,
	staffRepo repositories.StaffRepository, notifier services.Notifier) *FollowUpReminder {
	return &FollowUpReminder{
		orgRepo:      orgRepo,
		followUpRepo: followUpRepo,
		patientRepo:  patientRepo,
		staffRepo:    staffRepo,
		notifier:     notifier,
	}
}

const orgPageSize = 100

// Run processes one day's reminders. A failure in one organization is logged
// and never stops the others.
func (r *FollowUpReminder) Run(ctx context.Context, day time.Time) error {
	for offset := 0; ; offset += orgPageSize {
		orgs, err := r.orgRepo.List(ctx, orgPageSize, offset)
		if err != nil {
			return fmt.Errorf("failed to list organizations: %w", err)
		}
		if len(orgs) == 0 {
			return nil
		}
		for _, org := range orgs {
			if err := r.remindOrganization(ctx, org.ID, day); err != nil {
				log.Errorf("follow-up reminders failed for organization %s: %v", org.ID, err)
			}
		}
		if len(orgs) < orgPageSize {
			return nil
		}
	}
}

func (r *FollowUpReminder) remindOrganization(ctx context.Context, orgID uuid.UUID, day time.Time) error {
	sc := scope.Organization(orgID)
	plans, err := r.followUpRepo.ListDueOn(ctx, sc, day)
	if err != nil {
		return err
	}

	for _, plan := range plans {
		if plan.AssignedStaffID == nil {
			log.Infof("follow-up plan %s due today has no assigned staff", plan.Slug)
			continue
		}
		staff, err := r.staffRepo.GetByID(ctx, orgID, *plan.AssignedStaffID)
		if err != nil {
			log.Errorf("failed to load staff %s for follow-up plan %s: %v", *plan.AssignedStaffID, plan.Slug, err)
			continue
		}

		patientName := "a patient"
		if patient, err := r.patientRepo.GetByID(ctx, sc, plan.PatientID); err == nil {
			patientName = patient.FirstName + " " + patient.LastName
		}

		subject := "Follow-up review due today"
		body := fmt.Sprintf("Hello %s,\n\nThe follow-up review for %s is due today (%s).\nReason: %s\n",
			staff.FirstName, patientName, day.Format("2006-01-02"), plan.Reason)
		if err := r.notifier.SendEmail(ctx, staff.Email, subject, body); err != nil {
			log.Errorf("failed to send follow-up reminder to %s: %v", staff.Email, err)
		}
	}
	return nil
}
