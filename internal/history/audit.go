package history

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// AuditSink appends query and conversation events to the history database.
// A disabled sink drops everything, so callers never need to branch. Audit
// writes are best-effort: a failed insert is logged and the run continues.
type AuditSink struct {
	store        *Store
	enabled      bool
	sessionID    string
	assessmentID string
}

// NewAuditSink returns a sink bound to the store. Every sink gets a fresh
// session id so the events of one invocation group together.
func NewAuditSink(store *Store, enabled bool) *AuditSink {
	return &AuditSink{
		store:     store,
		enabled:   enabled,
		sessionID: uuid.New().String(),
	}
}

// Enabled reports whether the sink records anything.
func (a *AuditSink) Enabled() bool { return a != nil && a.enabled }

// SessionID returns the sink's session id.
func (a *AuditSink) SessionID() string { return a.sessionID }

// SetAssessmentID tags subsequent events with the saved assessment. The id is
// known only after the report is persisted, so early events carry none.
func (a *AuditSink) SetAssessmentID(id string) {
	if a != nil {
		a.assessmentID = id
	}
}

// LogQuery records one executed probe query.
func (a *AuditSink) LogQuery(query, target, factor, req string) {
	if !a.Enabled() {
		return
	}
	_, err := a.store.db.Exec(
		`INSERT INTO audit_queries (assessment_id, session_id, query_text, target, factor, requirement, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.assessmentID, a.sessionID, query, target, factor, req, nowUTC(),
	)
	if err != nil {
		slog.Warn("audit query write failed", "error", err)
	}
}

// LogConversation records one phase event, e.g. the start or outcome of a
// pipeline stage.
func (a *AuditSink) LogConversation(content, role, phase string) {
	if !a.Enabled() {
		return
	}
	if role == "" {
		role = "agent"
	}
	_, err := a.store.db.Exec(
		`INSERT INTO audit_conversation (assessment_id, session_id, phase, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.assessmentID, a.sessionID, phase, role, content, nowUTC(),
	)
	if err != nil {
		slog.Warn("audit conversation write failed", "error", err)
	}
}

// AuditQuery is one recorded probe query.
type AuditQuery struct {
	ID           int64  `db:"id" json:"id"`
	AssessmentID string `db:"assessment_id" json:"assessment_id,omitempty"`
	SessionID    string `db:"session_id" json:"session_id,omitempty"`
	QueryText    string `db:"query_text" json:"query_text"`
	Target       string `db:"target" json:"target,omitempty"`
	Factor       string `db:"factor" json:"factor,omitempty"`
	Requirement  string `db:"requirement" json:"requirement,omitempty"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

// AuditQueries returns the recorded queries for a session, oldest first.
func (s *Store) AuditQueries(sessionID string) ([]AuditQuery, error) {
	var out []AuditQuery
	err := s.db.Select(&out,
		`SELECT id, assessment_id, session_id, query_text, target, factor, requirement, created_at
		 FROM audit_queries WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit queries: %w", err)
	}
	return out, nil
}

// AuditEvent is one recorded conversation event.
type AuditEvent struct {
	ID           int64  `db:"id" json:"id"`
	AssessmentID string `db:"assessment_id" json:"assessment_id,omitempty"`
	SessionID    string `db:"session_id" json:"session_id,omitempty"`
	Phase        string `db:"phase" json:"phase,omitempty"`
	Role         string `db:"role" json:"role"`
	Content      string `db:"content" json:"content"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

// AuditConversation returns the recorded events for a session, oldest first.
func (s *Store) AuditConversation(sessionID string) ([]AuditEvent, error) {
	var out []AuditEvent
	err := s.db.Select(&out,
		`SELECT id, assessment_id, session_id, phase, role, content, created_at
		 FROM audit_conversation WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit conversation: %w", err)
	}
	return out, nil
}
