package email

import (
	"context"

	"github.com/movermatch/marketplace-api/internal/model"
)

// Service is the outbound email port of the engine. Every call is
// best-effort: callers log failures and move on, they never let a send
// failure reach the state machine.
type Service interface {
	SendJobAlert(ctx context.Context, mover *model.Mover, job *model.Job) error
	SendJobClaimed(ctx context.Context, job *model.Job, mover *model.Mover) error
	SendCompletionToCustomer(ctx context.Context, summary *CompletionSummary) error
	SendCompletionToMover(ctx context.Context, summary *CompletionSummary) error
	SendBookingCancelled(ctx context.Context, job *model.Job) error
	SendLongDistanceConfirmation(ctx context.Context, job *model.Job) error
	SendLongDistanceIntake(ctx context.Context, job *model.Job) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

// CompletionSummary carries everything the completion emails render.
type CompletionSummary struct {
	CustomerName   string
	CustomerEmail  string
	MoverName      string
	MoverEmail     string
	PickupAddress  string
	DropoffAddress string
	MoveDate       string
	Subtotal       string
}
