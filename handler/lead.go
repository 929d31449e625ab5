package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	leadform "github.com/phbpx/leadform"
	"github.com/phbpx/leadform/metrics"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const submitOK = "Form submitted successfully!"

type SubmitHandler struct {
	generator leadform.TextGenerator
	mailer    leadform.Mailer
	ledger    leadform.Ledger
	log       *otelzap.SugaredLogger
	now       func() time.Time
}

func NewSubmitHandler(
	generator leadform.TextGenerator,
	mailer leadform.Mailer,
	ledger leadform.Ledger,
	log *otelzap.SugaredLogger,
) *SubmitHandler {
	return &SubmitHandler{
		generator: generator,
		mailer:    mailer,
		ledger:    ledger,
		log:       log,
		now:       time.Now,
	}
}

// Submit generates an acknowledgement for the posted lead, mails it to the
// submitter and records the lead in the ledger. A failed ledger append does
// not fail the request.
func (sh SubmitHandler) Submit(rw http.ResponseWriter, r *http.Request) {
	// A started submission runs to completion even if the client goes away.
	ctx := context.WithoutCancel(r.Context())

	var lead leadform.Lead

	if err := decode(r, &lead); err != nil {
		sh.log.Ctx(ctx).Errorw("Submit", "step", "decode", "error", err.Error())
		metrics.RecordSubmission(metrics.OutcomeDecodeFailed)
		respondErr(ctx, rw, http.StatusInternalServerError, err)
		return
	}

	ack, err := sh.acknowledge(ctx, lead)
	if err != nil {
		sh.log.Ctx(ctx).Errorw("Submit", "step", "generate", "error", err.Error())
		metrics.RecordSubmission(metrics.OutcomeGenerateFailed)
		respondErr(ctx, rw, http.StatusInternalServerError, err)
		return
	}

	if err := sh.send(ctx, lead, ack); err != nil {
		sh.log.Ctx(ctx).Errorw("Submit", "step", "mail", "to", lead.Email, "error", err.Error())
		metrics.RecordSubmission(metrics.OutcomeMailFailed)
		respondErr(ctx, rw, http.StatusInternalServerError, err)
		return
	}

	if err := sh.record(ctx, lead); err != nil {
		sh.log.Ctx(ctx).Warnw("Submit", "step", "ledger", "name", lead.Name, "error", err.Error())
		metrics.RecordLedgerFailure()
	}

	sh.log.Ctx(ctx).Infow("Submit", "status", "processed", "to", lead.Email)
	metrics.RecordSubmission(metrics.OutcomeSuccess)

	respond(ctx, rw, http.StatusOK, submitResult{
		Success: true,
		Message: submitOK,
	})
}

func (sh SubmitHandler) acknowledge(ctx context.Context, lead leadform.Lead) (string, error) {
	ctx, span := tracer().Start(ctx, "handler.generate")
	defer span.End()

	text, err := sh.generator.Generate(ctx, leadform.Prompt(lead))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("generating acknowledgement: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		metrics.RecordFallbackAck()
		return leadform.FallbackAck, nil
	}
	return text, nil
}

func (sh SubmitHandler) send(ctx context.Context, lead leadform.Lead, text string) error {
	ctx, span := tracer().Start(ctx, "handler.mail")
	defer span.End()

	err := sh.mailer.Send(ctx, leadform.Acknowledgement{
		To:   lead.Email,
		Name: lead.Name,
		Text: text,
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (sh SubmitHandler) record(ctx context.Context, lead leadform.Lead) error {
	ctx, span := tracer().Start(ctx, "handler.ledger")
	defer span.End()

	if err := sh.ledger.Append(ctx, leadform.NewEntry(lead, sh.now())); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer("github.com/phbpx/leadform/handler")
}
