package models

import (
	"time"

	"github.com/google/uuid"
)

// VoteKind - тип голоса
type VoteKind string

const (
	VoteUp   VoteKind = "upvote"
	VoteDown VoteKind = "downvote"
)

// VoteState - состояние пары (пользователь, инцидент)
type VoteState string

const (
	VoteStateNone      VoteState = "none"
	VoteStateUpvoted   VoteState = "upvoted"
	VoteStateDownvoted VoteState = "downvoted"
)

type Vote struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	IncidentID uuid.UUID `json:"incident_id"`
	Kind       VoteKind  `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// State переводит сохраненный голос в состояние автомата; nil означает none
func (v *Vote) State() VoteState {
	if v == nil {
		return VoteStateNone
	}
	return stateOf(v.Kind)
}

// VoteTransition - результат применения голоса к текущему состоянию
type VoteTransition struct {
	From            VoteState
	To              VoteState
	UpvotesDelta    int
	DownvotesDelta  int
	ReputationDelta int
}

// Retracted - голос снят повторным голосом того же типа
func (t VoteTransition) Retracted() bool {
	return t.From != VoteStateNone && t.To == VoteStateNone
}

// NextVote вычисляет переход автомата голосования.
// Счетчики и репутация владельца меняются только вместе.
func NextVote(current VoteState, kind VoteKind) VoteTransition {
	t := VoteTransition{From: current}

	// снимаем предыдущий голос
	switch current {
	case VoteStateUpvoted:
		t.UpvotesDelta--
		t.ReputationDelta--
	case VoteStateDownvoted:
		t.DownvotesDelta--
		t.ReputationDelta++
	}

	if current == stateOf(kind) {
		t.To = VoteStateNone
		return t
	}

	switch kind {
	case VoteUp:
		t.UpvotesDelta++
		t.ReputationDelta++
	case VoteDown:
		t.DownvotesDelta++
		t.ReputationDelta--
	}
	t.To = stateOf(kind)
	return t
}

func stateOf(kind VoteKind) VoteState {
	switch kind {
	case VoteUp:
		return VoteStateUpvoted
	case VoteDown:
		return VoteStateDownvoted
	}
	return VoteStateNone
}

// VoteResult - итог голосования для вызывающей стороны
type VoteResult struct {
	IncidentID uuid.UUID `json:"incident_id"`
	State      VoteState `json:"state"`
	Upvotes    int       `json:"upvotes"`
	Downvotes  int       `json:"downvotes"`
}
