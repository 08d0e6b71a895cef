package service

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalstash/goalstash/internal/model"
	"github.com/goalstash/goalstash/internal/validation"
)

// Model replies carry proposals as a fenced JSON block; prose around the
// block is expected and a block that fails to decode is treated as plain
// conversation, never as an error.
var (
	fencedBlockRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	bareObjectRe  = regexp.MustCompile(`\{[^{}]*"proposed_goal"\s*:\s*\{[^}]+\}[^{}]*\}`)
)

type proposedGoalWire struct {
	ProposedGoal *struct {
		GoalName       string `json:"goal_name"`
		TargetAmount   any    `json:"target_amount"`
		TargetDate     string `json:"target_date"`
		Frequency      string `json:"frequency"`
		InitialDeposit any    `json:"initial_deposit"`
	} `json:"proposed_goal"`
}

// extractProposal pulls a raw proposed goal out of free-form model output.
// Returns nil when no decodable proposal is present.
func extractProposal(text string) *model.PendingProposal {
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		if p := decodeProposal(m[1]); p != nil {
			return p
		}
	}
	if m := bareObjectRe.FindString(text); m != "" {
		if p := decodeProposal(m); p != nil {
			return p
		}
	}
	return nil
}

func decodeProposal(block string) *model.PendingProposal {
	var wire proposedGoalWire
	if err := json.Unmarshal([]byte(strings.TrimSpace(block)), &wire); err != nil {
		return nil
	}
	if wire.ProposedGoal == nil {
		return nil
	}

	raw := wire.ProposedGoal
	return &model.PendingProposal{
		Name:           strings.TrimSpace(raw.GoalName),
		TargetAmount:   amountString(raw.TargetAmount),
		TargetDate:     strings.TrimSpace(raw.TargetDate),
		Frequency:      strings.ToLower(strings.TrimSpace(raw.Frequency)),
		InitialDeposit: amountString(raw.InitialDeposit),
	}
}

// amountString normalizes a JSON amount that may arrive as a number or a
// string ("500", "$500", "500.50").
func amountString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// validatedProposal is a proposal after it passed goal-creation validation.
type validatedProposal struct {
	Params CreateGoalParams
}

// validateProposal applies the goal-creation rules to a decoded proposal.
// The returned error message is user-facing: it becomes the assistant's
// reply when the model proposed something invalid.
func validateProposal(p *model.PendingProposal, now time.Time) (*validatedProposal, error) {
	if err := validation.ValidateGoalName(p.Name); err != nil {
		return nil, err
	}

	target, err := validation.ParsePositiveAmount(p.TargetAmount)
	if err != nil {
		return nil, err
	}

	var targetDate *time.Time
	if p.TargetDate != "" {
		d, err := validation.ParseFutureDate(p.TargetDate, now)
		if err != nil {
			return nil, err
		}
		targetDate = &d
	}

	frequency := p.Frequency
	if frequency == "" {
		frequency = model.FrequencyMonthly
	}
	if !model.ValidFrequency(frequency) {
		return nil, ErrBadFrequency
	}

	initial := decimal.Zero
	if p.InitialDeposit != "" {
		initial, err = validation.ParseNonNegativeAmount(p.InitialDeposit)
		if err != nil {
			return nil, err
		}
	}

	return &validatedProposal{
		Params: CreateGoalParams{
			Name:           p.Name,
			TargetAmount:   target,
			TargetDate:     targetDate,
			Frequency:      frequency,
			InitialDeposit: initial,
		},
	}, nil
}
