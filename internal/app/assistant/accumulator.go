package assistant

import (
	"context"
	"strings"

	"backend/internal/app/message"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssistantSenderID is the fixed participant id assistant replies are
// attributed to.
const AssistantSenderID = "assistant"

// Committer is the slice of the message log the accumulator commits through.
type Committer interface {
	Append(ctx context.Context, msg *message.Message) (bool, error)
}

// Accumulator folds stream deltas into a single in-flight assistant reply
// and commits it to the log exactly once. The in-flight entry is explicit
// state distinct from any finalized message; its identity is fixed by the
// first delta and never changes mid-stream.
type Accumulator struct {
	conversationID string
	fallback       string
	inFlightID     string
	builder        strings.Builder
	abandoned      bool
	committed      bool
	log            Committer
	logger         *zap.SugaredLogger
}

func NewAccumulator(log Committer, logger *zap.Logger, conversationID, fallback string) *Accumulator {
	return &Accumulator{
		conversationID: conversationID,
		fallback:       fallback,
		log:            log,
		logger:         logger.Sugar(),
	}
}

// Push appends a delta to the in-flight reply. The first delta creates the
// entry. Deltas pushed after Abandon or commit are ignored.
func (a *Accumulator) Push(delta string) {
	if a.abandoned || a.committed || delta == "" {
		return
	}
	if a.inFlightID == "" {
		a.inFlightID = uuid.New().String()
	}
	a.builder.WriteString(delta)
}

// InFlight exposes the current partial reply, if any.
func (a *Accumulator) InFlight() (id, text string, ok bool) {
	if a.inFlightID == "" || a.committed || a.abandoned {
		return "", "", false
	}
	return a.inFlightID, a.builder.String(), true
}

// Abandon detaches the accumulator from the log. Used when the conversation
// view goes away mid-stream: later deltas and terminal signals become
// no-ops instead of mutating a log nobody observes.
func (a *Accumulator) Abandon() {
	a.abandoned = true
}

// Commit finalizes the accumulated reply on successful stream completion.
// Returns nil without error when there is nothing to commit.
func (a *Accumulator) Commit(ctx context.Context) (*message.Message, error) {
	if a.abandoned || a.committed || a.builder.Len() == 0 {
		return nil, nil
	}
	return a.commit(ctx, a.inFlightID, a.builder.String())
}

// Fail finalizes after a stream error. Partial text is committed as-is so
// nothing the user already saw is lost; with zero accumulated text a fixed
// fallback message is committed instead, so a failed turn is never silent.
func (a *Accumulator) Fail(ctx context.Context) (*message.Message, error) {
	if a.abandoned || a.committed {
		return nil, nil
	}
	if a.builder.Len() > 0 {
		return a.commit(ctx, a.inFlightID, a.builder.String())
	}
	return a.commit(ctx, uuid.New().String(), a.fallback)
}

func (a *Accumulator) commit(ctx context.Context, id, text string) (*message.Message, error) {
	msg := &message.Message{
		ID:             id,
		ConversationID: a.conversationID,
		SenderID:       AssistantSenderID,
		Type:           message.TypeText,
		Content:        text,
	}
	if _, err := a.log.Append(ctx, msg); err != nil {
		return nil, err
	}
	a.committed = true
	a.inFlightID = ""
	a.builder.Reset()
	return msg, nil
}
