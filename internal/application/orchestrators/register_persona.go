package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"juventud/internal/adapters/api"
	"juventud/internal/domain/persona"
	"juventud/internal/domain/registration"
)

// PersonaCreator submits new personas to the backend.
type PersonaCreator interface {
	CreatePersona(ctx context.Context, p persona.NewPersona) (persona.Persona, error)
}

// RegisterPersonaInput carries the posted registration form, keyed by registration field name.
type RegisterPersonaInput struct {
	Values map[string]string
}

// RegisterPersonaDeps holds dependencies for RegisterPersona.
type RegisterPersonaDeps struct {
	Personas PersonaCreator
	// FollowUp is optional; nil skips the welcome email
	FollowUp   OutboxSaver
	Now        func() time.Time
	GenerateID func() string
}

// ExecuteRegisterPersona drives one registration attempt.
// PRE: input.Values holds the raw posted fields
// POST: The returned flow is never nil. On a missing required field it is
// editing with field errors and no backend call was made. On a backend failure
// it is editing with a user-facing message and the typed data kept. On success
// it is in the success state and, when an email was given, a welcome email is
// queued (best effort: a queueing failure is logged, not returned).
func ExecuteRegisterPersona(ctx context.Context, input RegisterPersonaInput, deps RegisterPersonaDeps) (*registration.Flow, error) {
	flow := registration.NewFlow()
	if err := flow.Load(input.Values); err != nil {
		return flow, err
	}

	payload, err := flow.Submit()
	if err != nil {
		slog.Info("registration_event", "event", "blocked", "fields", len(flow.FieldErrors()))
		return flow, err
	}

	created, err := deps.Personas.CreatePersona(ctx, payload)
	if err != nil {
		flow.Fail(userFacing(err))
		slog.Warn("registration_event", "event", "failed", "error", err)
		return flow, err
	}
	flow.Succeed(created)
	slog.Info("registration_event", "event", "created", "persona_id", created.ID, "has_contact", flow.Form().HasContact())

	if payload.Email != "" && deps.FollowUp != nil {
		name := created.DisplayName(payload.Nombre)
		err := EnqueueWelcome(ctx, deps.FollowUp, WelcomePayload{
			PersonaID: created.ID,
			To:        payload.Email,
			Nombre:    name,
		}, deps.Now, deps.GenerateID)
		if err != nil {
			slog.Error("registration_event", "event", "followup_not_queued", "persona_id", created.ID, "error", err)
		}
	}
	return flow, nil
}

// userFacing keeps backend messages and replaces transport errors with nil,
// which the flows render as their generic message.
func userFacing(err error) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, api.ErrActividadIDRequired) || errors.Is(err, api.ErrPersonaIDRequired) {
		return err
	}
	return nil
}
