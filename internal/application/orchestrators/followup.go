package orchestrators

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"juventud/internal/adapters/email"
	"juventud/internal/domain/outbox"
)

// OutboxSaver persists outbox entries.
type OutboxSaver interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// WelcomePayload is the JSON payload of a welcome_email outbox entry.
type WelcomePayload struct {
	PersonaID string `json:"persona_id"`
	To        string `json:"to"`
	Nombre    string `json:"nombre"`
}

// ErrNoRecipient is returned when a welcome payload has no address.
var ErrNoRecipient = errors.New("welcome email needs a recipient")

// EnqueueWelcome stores a pending welcome email.
// PRE: p.To is non-empty
// POST: One pending entry saved with ActionTypeWelcomeEmail
func EnqueueWelcome(ctx context.Context, store OutboxSaver, p WelcomePayload, now func() time.Time, generateID func() string) error {
	if strings.TrimSpace(p.To) == "" {
		return ErrNoRecipient
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal welcome payload: %w", err)
	}
	entry := outbox.NewEntry(generateID(), outbox.ActionTypeWelcomeEmail, string(body), now())
	if err := entry.Validate(); err != nil {
		return err
	}
	return store.Save(ctx, entry)
}

// WelcomeSubject is the subject line of the welcome email.
const WelcomeSubject = "¡Bienvenido a la juventud!"

const welcomeMarkdown = `# ¡Hola %s!

Gracias por inscribirte en la juventud. Pronto recibirás información sobre las actividades de la juventud.

**¡Bienvenido a la familia!**
`

// markdownEscaper neutralizes characters a typed name could use to inject markup.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"#", `\#`, "<", "&lt;", ">", "&gt;", "`", "\\`",
)

// RenderWelcome renders the welcome email as HTML and plain text.
// POST: nombre is escaped; an empty nombre greets generically
func RenderWelcome(nombre string) (html, text string, err error) {
	nombre = strings.TrimSpace(nombre)
	if nombre == "" {
		nombre = "joven"
	}
	text = fmt.Sprintf(welcomeMarkdown, nombre)

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(fmt.Sprintf(welcomeMarkdown, markdownEscaper.Replace(nombre))), &buf); err != nil {
		return "", "", fmt.Errorf("render welcome email: %w", err)
	}
	return buf.String(), text, nil
}

// WelcomeEmailExecutor delivers welcome_email entries.
type WelcomeEmailExecutor struct {
	Sender  email.Sender
	ReplyTo string
}

// Execute sends the welcome email described by payload.
// PRE: payload is valid JSON matching WelcomePayload
// POST: email accepted by the sender; returns the provider message ID
// INVARIANT: outbox entry status managed by caller
func (e *WelcomeEmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p WelcomePayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	if strings.TrimSpace(p.To) == "" {
		return "", ErrNoRecipient
	}

	html, text, err := RenderWelcome(p.Nombre)
	if err != nil {
		return "", err
	}
	res, err := e.Sender.Send(ctx, email.SendRequest{
		To:      []string{p.To},
		Subject: WelcomeSubject,
		HTML:    html,
		Text:    text,
		ReplyTo: e.ReplyTo,
		Tag:     "bienvenida",
	})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}
