// Package session holds the ephemeral state of one vendor import: the proposed operations,
// the clarifications still waiting on a human, and the draft's lifecycle.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"weddingplan/internal/domain"
)

// Source is the raw input an import was extracted from.
type Source struct {
	Text     string
	PDF      []byte
	Filename string
}

// IsPDF reports whether the source is a document upload.
func (s *Source) IsPDF() bool {
	return len(s.PDF) > 0
}

// BlockedError lists the clarifications that keep a batch from executing.
type BlockedError struct {
	Clarifications []domain.Clarification
}

func (e *BlockedError) Error() string {
	fields := make([]string, len(e.Clarifications))
	for i := range e.Clarifications {
		fields[i] = e.Clarifications[i].Field
	}
	return fmt.Sprintf("%v: %s", domain.ErrUnresolvedClarifications, strings.Join(fields, ", "))
}

func (e *BlockedError) Unwrap() error {
	return domain.ErrUnresolvedClarifications
}

// View is a read-only snapshot of a session.
type View struct {
	ID                 uuid.UUID                `json:"id"`
	WeddingID          uuid.UUID                `json:"wedding_id"`
	State              domain.SessionState      `json:"state"`
	Operations         []domain.ParsedOperation `json:"operations"`
	Clarifications     []domain.Clarification   `json:"clarifications"`
	Unmet              []domain.Clarification   `json:"unmet_clarifications"`
	EligibleOperations []int                    `json:"eligible_operations"`
	Blocked            bool                     `json:"blocked"`
	Created            []string                 `json:"created"`
	Updated            []string                 `json:"updated"`
	ModelUsed          string                   `json:"model_used,omitempty"`
	LastError          string                   `json:"last_error,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// Session is one in-progress import. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id        uuid.UUID
	weddingID uuid.UUID
	state     domain.SessionState
	source    Source

	operations     []domain.ParsedOperation
	clarifications []domain.Clarification
	// unmet holds required clarifications the human skipped. They keep blocking
	// their operation (or the batch, when global) until the operation is removed or edited.
	unmet []domain.Clarification

	created   []string
	updated   []string
	modelUsed string
	lastError string

	createdAt time.Time
	updatedAt time.Time
	now       func() time.Time
}

func newSession(weddingID uuid.UUID, now func() time.Time) *Session {
	t := now()
	return &Session{
		id:        uuid.New(),
		weddingID: weddingID,
		state:     domain.SessionStateDraft,
		createdAt: t,
		updatedAt: t,
		now:       now,
	}
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID { return s.id }

// WeddingID returns the wedding the session imports into.
func (s *Session) WeddingID() uuid.UUID { return s.weddingID }

// State returns the current lifecycle state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Source returns the input of the last extraction.
func (s *Session) Source() Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func (s *Session) lastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) touch() {
	s.updatedAt = s.now()
}

func (s *Session) open() bool {
	return s.state != domain.SessionStateCommitted && s.state != domain.SessionStateCancelled
}

// BeginExtraction marks an extraction as in flight. A second concurrent extraction is refused.
// Re-submitting from reviewing replaces the draft batch.
func (s *Session) BeginExtraction(src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.SessionStateExtracting:
		return domain.ErrExtractionInFlight
	case domain.SessionStateDraft, domain.SessionStateReviewing:
	default:
		return domain.ErrSessionClosed
	}
	s.state = domain.SessionStateExtracting
	s.source = src
	s.operations = nil
	s.clarifications = nil
	s.unmet = nil
	s.lastError = ""
	s.touch()
	return nil
}

// CompleteExtraction adopts an extraction result and moves the session to reviewing.
// Clarifications without an id get one.
func (s *Session) CompleteExtraction(ops []domain.ParsedOperation, clarifications []domain.Clarification, modelUsed string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.operations = make([]domain.ParsedOperation, len(ops))
	for i := range ops {
		s.operations[i] = ops[i].Clone()
	}
	s.clarifications = make([]domain.Clarification, 0, len(clarifications))
	for i := range clarifications {
		c := clarifications[i].Clone()
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		s.clarifications = append(s.clarifications, c)
	}
	s.modelUsed = modelUsed
	s.state = domain.SessionStateReviewing
	s.touch()
}

// FailExtraction records an extraction failure. The batch stays empty and the human may retry.
func (s *Session) FailExtraction(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.operations = nil
	s.clarifications = nil
	s.unmet = nil
	s.lastError = err.Error()
	s.state = domain.SessionStateDraft
	s.touch()
}

func (s *Session) requireReviewing() error {
	switch s.state {
	case domain.SessionStateReviewing:
		return nil
	case domain.SessionStateExtracting:
		return domain.ErrExtractionInFlight
	case domain.SessionStateDraft:
		return domain.ErrNothingToExecute
	}
	return domain.ErrSessionClosed
}

func (s *Session) findClarification(id string) int {
	for i := range s.clarifications {
		if s.clarifications[i].ID == id {
			return i
		}
	}
	return -1
}

// Answer applies a human reply to a pending clarification and removes it.
func (s *Session) Answer(clarificationID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReviewing(); err != nil {
		return err
	}
	idx := s.findClarification(clarificationID)
	if idx < 0 {
		return domain.ErrClarificationNotFound
	}
	c := s.clarifications[idx]
	if c.FieldType == domain.FieldTypeChoice && len(c.Choices) > 0 && !c.HasChoice(value) {
		return domain.ErrInvalidChoice
	}
	if isCurrencyField(c.Field) {
		if _, ok := domain.CurrencyCode(value); !ok {
			return fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, value)
		}
	}

	s.removeClarification(idx)

	if c.OperationIndex != nil && (*c.OperationIndex < 0 || *c.OperationIndex >= len(s.operations)) {
		s.touch()
		return nil
	}

	if c.Field == domain.FieldActionChoice {
		if c.OperationIndex != nil {
			idx := *c.OperationIndex
			remove, typed := applyActionChoice(&s.operations[idx], &c, value)
			if remove {
				s.removeOperationLocked(idx)
			} else {
				s.requirePaymentDataLocked(idx, typed)
			}
		}
		s.touch()
		return nil
	}

	a := normalizeAnswer(&c, value)
	if c.OperationIndex != nil {
		applyToOperation(&s.operations[*c.OperationIndex], &c, a)
	} else {
		for i := range s.operations {
			applyToOperation(&s.operations[i], &c, a)
		}
	}
	s.touch()
	return nil
}

// Skip removes a pending clarification without answering it. A skipped required
// clarification is remembered as unmet and keeps blocking execution.
func (s *Session) Skip(clarificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReviewing(); err != nil {
		return err
	}
	idx := s.findClarification(clarificationID)
	if idx < 0 {
		return domain.ErrClarificationNotFound
	}
	c := s.clarifications[idx]
	s.removeClarification(idx)
	if c.Required {
		s.unmet = append(s.unmet, c)
	}
	s.touch()
	return nil
}

// RemoveOperation drops an operation from the batch along with its clarifications.
func (s *Session) RemoveOperation(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReviewing(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.operations) {
		return domain.ErrOperationNotFound
	}
	s.removeOperationLocked(index)
	s.touch()
	return nil
}

// ReplaceOperationData swaps an operation's vendor data for a human-edited version.
// Unmet clarifications of that operation are cleared: the edit is the human's answer.
func (s *Session) ReplaceOperationData(index int, data domain.VendorPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReviewing(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.operations) {
		return domain.ErrOperationNotFound
	}
	s.operations[index].VendorData = data.Clone()
	kept := s.unmet[:0]
	for _, c := range s.unmet {
		if !c.AppliesTo(index) {
			kept = append(kept, c)
		}
	}
	s.unmet = kept
	s.touch()
	return nil
}

// requirePaymentDataLocked re-derives the payment clarifications of operation idx after
// it was pointed at a different vendor. Questions the new target makes moot are dropped;
// missing ones are added.
func (s *Session) requirePaymentDataLocked(idx int, typed []bool) {
	needed := paymentRequirements(idx, &s.operations[idx], typed)

	kept := s.clarifications[:0]
	for _, c := range s.clarifications {
		if c.AppliesTo(idx) && isPaymentQuestion(&c) && !containsQuestion(needed, &c) {
			continue
		}
		kept = append(kept, c)
	}
	s.clarifications = kept

	for i := range needed {
		if containsQuestion(s.clarifications, &needed[i]) {
			continue
		}
		needed[i].ID = uuid.NewString()
		s.clarifications = append(s.clarifications, needed[i])
	}
}

// isPaymentQuestion reports whether c asks for data a payment needs before it is stored.
func isPaymentQuestion(c *domain.Clarification) bool {
	if c.Field == domain.FieldPaymentType {
		return true
	}
	m := paymentFieldRe.FindStringSubmatch(c.Field)
	return m != nil && (m[2] == "description" || m[2] == "amount")
}

func containsQuestion(list []domain.Clarification, c *domain.Clarification) bool {
	for i := range list {
		if samePaymentQuestion(&list[i], c) {
			return true
		}
	}
	return false
}

func (s *Session) removeClarification(idx int) {
	s.clarifications = append(s.clarifications[:idx], s.clarifications[idx+1:]...)
}

// removeOperationLocked deletes operation idx and re-indexes every clarification after it.
func (s *Session) removeOperationLocked(idx int) {
	s.operations = append(s.operations[:idx], s.operations[idx+1:]...)
	s.clarifications = reindex(s.clarifications, idx)
	s.unmet = reindex(s.unmet, idx)
}

func reindex(list []domain.Clarification, removed int) []domain.Clarification {
	out := list[:0]
	for _, c := range list {
		if c.AppliesTo(removed) {
			continue
		}
		if c.OperationIndex != nil && *c.OperationIndex > removed {
			c.OperationIndex = domain.Ptr(*c.OperationIndex - 1)
		}
		out = append(out, c)
	}
	return out
}

// Blocking returns the clarifications that prevent execution: pending required ones and
// required ones that were skipped.
func (s *Session) Blocking() []domain.Clarification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockingLocked()
}

func (s *Session) blockingLocked() []domain.Clarification {
	var out []domain.Clarification
	for i := range s.clarifications {
		if s.clarifications[i].Required {
			out = append(out, s.clarifications[i].Clone())
		}
	}
	for i := range s.unmet {
		out = append(out, s.unmet[i].Clone())
	}
	return out
}

// EligibleOperations lists operations with no pending clarification of their own and no
// pending global clarification.
func (s *Session) EligibleOperations() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eligibleLocked()
}

func (s *Session) eligibleLocked() []int {
	out := []int{}
	for i := range s.clarifications {
		if s.clarifications[i].IsGlobal() {
			return out
		}
	}
	for idx := range s.operations {
		pending := false
		for i := range s.clarifications {
			if s.clarifications[i].AppliesTo(idx) {
				pending = true
				break
			}
		}
		if !pending {
			out = append(out, idx)
		}
	}
	return out
}

// BeginExecution validates the batch and hands a copy of it to the executor.
// Pending optional clarifications require proceed; they are dropped once proceeded past.
func (s *Session) BeginExecution(proceed bool) ([]domain.ParsedOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReviewing(); err != nil {
		return nil, err
	}
	if len(s.operations) == 0 {
		return nil, domain.ErrNothingToExecute
	}
	if blocking := s.blockingLocked(); len(blocking) > 0 {
		return nil, &BlockedError{Clarifications: blocking}
	}
	for i := range s.operations {
		if operationIncomplete(&s.operations[i]) {
			return nil, fmt.Errorf("operation %d (%s): %w", i, s.operations[i].Label(), domain.ErrIncompleteOperation)
		}
	}
	if len(s.clarifications) > 0 && !proceed {
		return nil, domain.ErrConfirmationRequired
	}

	s.clarifications = nil
	s.state = domain.SessionStateExecuting
	s.touch()

	ops := make([]domain.ParsedOperation, len(s.operations))
	for i := range s.operations {
		ops[i] = s.operations[i].Clone()
	}
	return ops, nil
}

// Outcome is what one executed operation produced.
type Outcome struct {
	Action     domain.OperationAction
	VendorName string
}

// FinishExecution records an executor run. With nothing remaining the session commits;
// otherwise the unexecuted operations stay for a retry.
func (s *Session) FinishExecution(done []Outcome, remaining []domain.ParsedOperation, failure error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range done {
		if o.Action == domain.ActionCreate {
			s.created = append(s.created, o.VendorName)
		} else {
			s.updated = append(s.updated, o.VendorName)
		}
	}
	s.operations = make([]domain.ParsedOperation, len(remaining))
	for i := range remaining {
		s.operations[i] = remaining[i].Clone()
	}
	s.lastError = ""
	if failure != nil {
		s.lastError = failure.Error()
	}
	if len(remaining) == 0 && failure == nil {
		s.state = domain.SessionStateCommitted
	} else {
		s.state = domain.SessionStateReviewing
	}
	s.touch()
}

// Cancel abandons the session. Nothing has been persisted before execution, so this has no side effects.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.SessionStateExecuting {
		return domain.ErrSessionClosed
	}
	if !s.open() {
		return domain.ErrSessionClosed
	}
	s.state = domain.SessionStateCancelled
	s.operations = nil
	s.clarifications = nil
	s.unmet = nil
	s.touch()
	return nil
}

// Snapshot returns a deep copy of the session for rendering.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:                 s.id,
		WeddingID:          s.weddingID,
		State:              s.state,
		Operations:         make([]domain.ParsedOperation, len(s.operations)),
		Clarifications:     make([]domain.Clarification, len(s.clarifications)),
		Unmet:              make([]domain.Clarification, len(s.unmet)),
		EligibleOperations: s.eligibleLocked(),
		Blocked:            len(s.blockingLocked()) > 0,
		Created:            append([]string{}, s.created...),
		Updated:            append([]string{}, s.updated...),
		ModelUsed:          s.modelUsed,
		LastError:          s.lastError,
		CreatedAt:          s.createdAt,
		UpdatedAt:          s.updatedAt,
	}
	for i := range s.operations {
		v.Operations[i] = s.operations[i].Clone()
	}
	for i := range s.clarifications {
		v.Clarifications[i] = s.clarifications[i].Clone()
	}
	for i := range s.unmet {
		v.Unmet[i] = s.unmet[i].Clone()
	}
	return v
}
