// Package campaign manages promotional registration campaigns. A campaign
// gets its own registration links and its registrations are tagged with its
// id.
package campaign

import (
	"strings"
	"time"

	"ezyassist/pkg/validation"
)

type Campaign struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	MinDepositAmount  float64   `json:"min_deposit_amount"`
	RewardDescription string    `json:"reward_description"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
}

// CreateCommand is the admin input for a new campaign. The id is derived
// from the name.
type CreateCommand struct {
	Name              string  `json:"name" validate:"required,notblank,max=120"`
	Description       string  `json:"description" validate:"max=2000"`
	MinDepositAmount  float64 `json:"min_deposit_amount" validate:"gte=0"`
	RewardDescription string  `json:"reward_description" validate:"max=500"`
}

func (c *CreateCommand) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	c.RewardDescription = strings.TrimSpace(c.RewardDescription)
}

func (c *CreateCommand) Validate() error {
	return validation.Validate(c)
}
