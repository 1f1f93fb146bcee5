package board

import (
	"errors"
	"fmt"
	"strings"
)

type Lane string

const (
	Backlog Lane = "backlog"
	Todo    Lane = "todo"
	Doing   Lane = "doing"
	Done    Lane = "done"
)

var (
	ErrInvalidLane = errors.New("invalid lane")
	ErrEmptyID     = errors.New("card id is required")
	ErrDuplicateID = errors.New("duplicate card id")
	ErrEmptyCard   = errors.New("card title and info are required")
)

// Lanes returns the lanes in display order.
func Lanes() []Lane {
	return []Lane{Backlog, Todo, Doing, Done}
}

func ParseLane(s string) (Lane, error) {
	l := Lane(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLane, s)
	}
	return l, nil
}

func (l Lane) Valid() bool {
	switch l {
	case Backlog, Todo, Doing, Done:
		return true
	}
	return false
}

// Card is one task on the board. The wire name of Lane is "column".
type Card struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Info  string `json:"info"`
	Lane  Lane   `json:"column"`
}

// Validate checks the fields every stored card must carry.
func (c Card) Validate() error {
	if c.ID == "" {
		return ErrEmptyID
	}
	if !c.Lane.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLane, c.Lane)
	}
	return nil
}

// NewCard trims title and info and rejects cards with either left empty.
func NewCard(id string, lane Lane, title, info string) (Card, error) {
	c := Card{ID: id, Title: strings.TrimSpace(title), Info: strings.TrimSpace(info), Lane: lane}
	if c.Title == "" || c.Info == "" {
		return Card{}, ErrEmptyCard
	}
	if err := c.Validate(); err != nil {
		return Card{}, err
	}
	return c, nil
}
