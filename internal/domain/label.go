package domain

import (
	"context"

	"github.com/google/uuid"
)

type LabelColor string

const (
	LabelRed    LabelColor = "red"
	LabelYellow LabelColor = "yellow"
	LabelGreen  LabelColor = "green"
	LabelBlue   LabelColor = "blue"
	LabelPurple LabelColor = "purple"
)

// LabelPalette is the fixed, global set of label colors.
var LabelPalette = []LabelColor{LabelRed, LabelYellow, LabelGreen, LabelBlue, LabelPurple}

func (c LabelColor) Valid() bool {
	for _, p := range LabelPalette {
		if c == p {
			return true
		}
	}
	return false
}

type Label struct {
	ID    uuid.UUID  `json:"id"`
	Color LabelColor `json:"color"`
}

type LabelRepository interface {
	List(ctx context.Context) ([]*Label, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Label, error)
}
