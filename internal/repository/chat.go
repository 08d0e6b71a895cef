package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goalstash/goalstash/internal/model"
)

type ChatSessionRepository interface {
	// Session loads the user's session, returning an empty one when none is
	// stored yet.
	Session(userID string) (*model.ChatSession, error)
	Save(session *model.ChatSession) error
	Delete(userID string) error
}

type chatSessionRepository struct {
	db *sqlx.DB
}

func NewChatSessionRepository(db *sqlx.DB) ChatSessionRepository {
	return &chatSessionRepository{db: db}
}

type chatSessionRow struct {
	UserID    string    `db:"user_id"`
	Turns     string    `db:"turns"`
	Pending   *string   `db:"pending"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *chatSessionRepository) Session(userID string) (*model.ChatSession, error) {
	row := chatSessionRow{}
	err := r.db.Get(&row, `SELECT * FROM chat_sessions WHERE user_id = $1`, userID)
	if err == sql.ErrNoRows {
		return &model.ChatSession{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}

	session := &model.ChatSession{UserID: row.UserID, UpdatedAt: row.UpdatedAt}
	if err := json.Unmarshal([]byte(row.Turns), &session.Turns); err != nil {
		return nil, fmt.Errorf("corrupt chat history for user %s: %w", userID, err)
	}
	if row.Pending != nil && *row.Pending != "" {
		pending := &model.PendingProposal{}
		if err := json.Unmarshal([]byte(*row.Pending), pending); err != nil {
			return nil, fmt.Errorf("corrupt pending proposal for user %s: %w", userID, err)
		}
		session.Pending = pending
	}
	return session, nil
}

func (r *chatSessionRepository) Save(session *model.ChatSession) error {
	turns := session.Turns
	if turns == nil {
		turns = []model.Turn{}
	}
	turnsJSON, err := json.Marshal(turns)
	if err != nil {
		return err
	}

	var pendingJSON *string
	if session.Pending != nil {
		raw, err := json.Marshal(session.Pending)
		if err != nil {
			return err
		}
		s := string(raw)
		pendingJSON = &s
	}

	_, err = r.db.Exec(
		`INSERT INTO chat_sessions (user_id, turns, pending, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET turns = $2, pending = $3, updated_at = $4`,
		session.UserID, string(turnsJSON), pendingJSON, time.Now(),
	)
	return err
}

func (r *chatSessionRepository) Delete(userID string) error {
	_, err := r.db.Exec(`DELETE FROM chat_sessions WHERE user_id = $1`, userID)
	return err
}
