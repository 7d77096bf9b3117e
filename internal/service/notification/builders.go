package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/movermatch/marketplace-api/internal/model"
)

// Display pruning window for in-app notifications.
const displayTTL = 30 * 24 * time.Hour

// TeamRecipient is the well-known recipient for internal coordination
// notifications (long-distance intake).
var TeamRecipient = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func base(recipient uuid.UUID, rtype model.RecipientType, ntype model.NotificationType, priority model.NotificationPriority) *model.Notification {
	now := time.Now()
	return &model.Notification{
		ID:            uuid.New(),
		RecipientID:   recipient,
		RecipientType: rtype,
		Type:          ntype,
		Priority:      priority,
		ExpiresAt:     now.Add(displayTTL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// JobAlert is the per-candidate notification created alongside each alert.
func JobAlert(moverID uuid.UUID, job *model.Job, alertID uuid.UUID) *model.Notification {
	n := base(moverID, model.RecipientTypeMover, model.NotificationTypeJobAlert, model.NotificationPriorityHigh)
	n.Title = "New job available"
	n.Message = fmt.Sprintf("A %s job from %s to %s on %s is looking for a provider.",
		job.ServiceType, job.PickupPostal, job.DropoffPostal, job.MoveDate.Format("Jan 2"))
	n.JobID = &job.ID
	n.AlertID = &alertID
	return n
}

func NoMoversAvailable(customerID uuid.UUID, jobID uuid.UUID) *model.Notification {
	n := base(customerID, model.RecipientTypeCustomer, model.NotificationTypeSystem, model.NotificationPriorityNormal)
	n.Title = "No movers available yet"
	n.Message = "We couldn't find an available provider yet. We'll keep looking and let you know."
	n.JobID = &jobID
	return n
}

func JobAssignedCustomer(customerID uuid.UUID, job *model.Job, moverName string) *model.Notification {
	n := base(customerID, model.RecipientTypeCustomer, model.NotificationTypeAssignment, model.NotificationPriorityHigh)
	n.Title = "Your job has been claimed"
	n.Message = fmt.Sprintf("%s accepted your %s job for %s.",
		moverName, job.ServiceType, job.MoveDate.Format("Jan 2"))
	n.JobID = &job.ID
	return n
}

func JobAssignedMover(moverID uuid.UUID, job *model.Job) *model.Notification {
	n := base(moverID, model.RecipientTypeMover, model.NotificationTypeAssignment, model.NotificationPriorityHigh)
	n.Title = "Job assignment confirmed"
	n.Message = fmt.Sprintf("You are confirmed for the %s job on %s.",
		job.ServiceType, job.MoveDate.Format("Jan 2"))
	n.JobID = &job.ID
	return n
}

func JobCompleted(recipient uuid.UUID, rtype model.RecipientType, jobID uuid.UUID) *model.Notification {
	n := base(recipient, rtype, model.NotificationTypeCompletion, model.NotificationPriorityNormal)
	n.Title = "Job completed"
	n.Message = "The job has been marked as complete."
	n.JobID = &jobID
	return n
}

func BookingCancelled(customerID uuid.UUID, jobID uuid.UUID) *model.Notification {
	n := base(customerID, model.RecipientTypeCustomer, model.NotificationTypeSystem, model.NotificationPriorityNormal)
	n.Title = "Booking cancelled"
	n.Message = "Your booking was cancelled because the deposit was not completed."
	n.JobID = &jobID
	return n
}

func JobExpired(customerID uuid.UUID, jobID uuid.UUID) *model.Notification {
	n := base(customerID, model.RecipientTypeCustomer, model.NotificationTypeSystem, model.NotificationPriorityNormal)
	n.Title = "Booking expired"
	n.Message = "No provider claimed your job in time. Please contact support or rebook."
	n.JobID = &jobID
	return n
}

func LongDistanceReceived(customerID uuid.UUID, jobID uuid.UUID) *model.Notification {
	n := base(customerID, model.RecipientTypeCustomer, model.NotificationTypeSystem, model.NotificationPriorityNormal)
	n.Title = "Long-distance request received"
	n.Message = "Our coordination team will contact you within one business day."
	n.JobID = &jobID
	return n
}

func LongDistanceIntake(job *model.Job) *model.Notification {
	n := base(TeamRecipient, model.RecipientTypeTeam, model.NotificationTypeSystem, model.NotificationPriorityHigh)
	n.Title = "Long-distance intake"
	n.Message = fmt.Sprintf("Job %s (%s to %s) requires manual coordination.",
		job.ID, job.PickupPostal, job.DropoffPostal)
	n.JobID = &job.ID
	return n
}
