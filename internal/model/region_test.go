package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRegion_CreatedBy(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	tests := []struct {
		name    string
		creator *uuid.UUID
		probe   *uuid.UUID
		want    bool
	}{
		{"console owns console region", nil, nil, true},
		{"player is not console", nil, &alice, false},
		{"console is not player", &alice, nil, false},
		{"same player", &alice, &alice, true},
		{"other player", &alice, &bob, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Region{Name: "r", Creator: tt.creator}
			assert.Equal(t, tt.want, r.CreatedBy(tt.probe))
		})
	}
}

func TestRegion_WithNameKeepsOriginal(t *testing.T) {
	r := &Region{ID: uuid.New(), Name: "old", Description: "d"}

	renamed := r.WithName("new")
	described := r.WithDescription("other")

	assert.Equal(t, "old", r.Name)
	assert.Equal(t, "d", r.Description)
	assert.Equal(t, "new", renamed.Name)
	assert.Equal(t, r.ID, renamed.ID)
	assert.Equal(t, "other", described.Description)
	assert.Equal(t, "old", described.Name)
}
