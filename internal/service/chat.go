package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goalstash/goalstash/internal/llm"
	"github.com/goalstash/goalstash/internal/model"
)

var (
	ErrNothingToConfirm = errors.New("no pending goal to create")
)

const fallbackReply = "Sorry, the savings advisor is unavailable right now. " +
	"You can still create goals from the goals page, and I'll be back shortly."

const cancelUserTurn = "No, cancel that - I don't want to create that goal."
const cancelReply = "No problem! The goal was not created. Let me know if you'd " +
	"like to adjust the suggestion or try something different."

// ChatService drives the savings advisor: one turn in, one reply out, with
// at most one pending goal proposal held in the session. Session state is
// passed in and returned explicitly; the service never keeps per-user state.
type ChatService struct {
	generator   llm.Generator
	goalService *GoalService
}

func NewChatService(generator llm.Generator, goalService *GoalService) *ChatService {
	return &ChatService{
		generator:   generator,
		goalService: goalService,
	}
}

// TurnResult is what one chat turn produced.
type TurnResult struct {
	Reply string
	// Proposal is set when this turn produced a new pending proposal; it
	// supersedes any previous one wholesale.
	Proposal *model.PendingProposal
	// ProposalErr carries a validation failure for a proposal the model
	// emitted; the reply already contains the explanation.
	ProposalErr error
}

// HandleTurn sends one user message through the advisor. Model
// unavailability degrades to a canned reply and a decode failure in the
// model's output degrades to a plain conversational reply; neither is an
// error to the caller.
func (s *ChatService) HandleTurn(ctx context.Context, session *model.ChatSession, message string) (TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return TurnResult{}, errors.New("message is required")
	}

	system, err := s.systemContext(session.UserID)
	if err != nil {
		return TurnResult{}, err
	}

	reply, err := s.generator.Generate(ctx, system, session.Turns, message)
	if err != nil {
		if !errors.Is(err, llm.ErrUnavailable) {
			return TurnResult{}, err
		}
		slog.Warn("advisor model unavailable, using fallback reply", "error", err, "user_id", session.UserID)
		session.Append(model.RoleUser, message)
		session.Append(model.RoleAssistant, fallbackReply)
		return TurnResult{Reply: fallbackReply}, nil
	}

	session.Append(model.RoleUser, message)
	session.Append(model.RoleAssistant, reply)

	result := TurnResult{Reply: reply}
	proposal := extractProposal(reply)
	if proposal == nil {
		return result, nil
	}

	proposal.SourceTurn = len(session.Turns) - 1
	if _, err := validateProposal(proposal, time.Now()); err != nil {
		// The model proposed something invalid; tell the user instead of
		// holding a broken proposal.
		result.ProposalErr = err
		result.Reply = fmt.Sprintf("I couldn't prepare that goal: %s", err)
		session.Append(model.RoleAssistant, result.Reply)
		return result, nil
	}

	session.Pending = proposal
	result.Proposal = proposal
	return result, nil
}

// Confirm creates the pending goal. Validation runs again against the
// current clock: a proposal that aged past its date fails here, clears the
// slot and reports the reason. Confirming with nothing pending is the
// "nothing to confirm" outcome, not an error that aborts the chat.
func (s *ChatService) Confirm(ctx context.Context, session *model.ChatSession) (*model.Goal, bool, error) {
	if session.Pending == nil {
		return nil, false, ErrNothingToConfirm
	}

	pending := session.Pending
	session.Pending = nil

	valid, err := validateProposal(pending, time.Now())
	if err != nil {
		return nil, false, err
	}

	goal, completed, err := s.goalService.Create(ctx, session.UserID, valid.Params)
	if err != nil {
		return nil, false, err
	}
	return goal, completed, nil
}

// Cancel drops the pending proposal and records the exchange in the history
// so the model knows the goal was not created. Cancelling with nothing
// pending is a no-op.
func (s *ChatService) Cancel(session *model.ChatSession) string {
	if session.Pending != nil {
		session.Pending = nil
		session.Append(model.RoleUser, cancelUserTurn)
		session.Append(model.RoleAssistant, cancelReply)
	}
	return cancelReply
}

// Clear wipes the conversation and any pending proposal.
func (s *ChatService) Clear(session *model.ChatSession) {
	session.Clear()
}

// systemContext builds the advisor instructions plus a live summary of the
// user's goals. The summary is fetched fresh on every turn: the stored
// conversation must never be the source of truth for what goals exist.
func (s *ChatService) systemContext(userID string) (string, error) {
	goals, err := s.goalService.Active(userID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nToday's date: ")
	b.WriteString(time.Now().Format("2006-01-02"))
	b.WriteString("\n\n")

	if len(goals) == 0 {
		b.WriteString("The user has no savings goals yet.")
		return b.String(), nil
	}

	b.WriteString("Current savings goals:\n")
	for _, g := range goals {
		fmt.Fprintf(&b, "- %s: €%s / €%s (%s%% complete), %s contributions\n",
			g.Goal.Name,
			g.Goal.SavedAmount.StringFixed(2),
			g.Goal.TargetAmount.StringFixed(2),
			g.Progress.Percent.StringFixed(0),
			g.Goal.Frequency,
		)
	}
	return b.String(), nil
}

const systemPrompt = `You are a friendly savings advisor for a personal finance app. Your role is to:
1. Give personalized savings advice based on the user's budget and preferred contribution frequency (weekly, bi-weekly, or monthly).
2. When appropriate, propose a new savings goal that fits their situation.
3. Be concise, warm, and practical. Use euros (€) for amounts.

CRITICAL - Source of truth for current goals: The "Current savings goals" (or "The user has no savings goals yet") section below is fetched LIVE from the database on every message. It is the ONLY authoritative list of what goals exist. NEVER assume a goal exists based on earlier messages in our conversation.

IMPORTANT - When you want to propose creating a savings goal, you MUST include a JSON block at the end of your message in this exact format (replace values as needed):

` + "```json" + `
{"proposed_goal": {"goal_name": "Emergency Fund", "target_amount": 1000, "target_date": "2027-12-31", "frequency": "weekly", "initial_deposit": 0}}
` + "```" + `

Rules for proposed goals:
- goal_name: A short, descriptive name
- target_amount: Number in euros (no € symbol)
- target_date: YYYY-MM-DD format, must be in the future
- frequency: Must be exactly one of: weekly, bi-weekly, monthly
- initial_deposit: Number (0 if none)

Before proposing a goal, summarize what you're suggesting and ask if they'd like you to create it. Only output the proposed_goal JSON when the user has agreed or asked you to create it. The user must confirm before the goal is actually created.`
