package controller

import (
	"context"
	"fmt"
)

// Command is a message from the presentation layer to the Controller.
type Command interface {
	command()
}

// FieldChanged carries one edit of a field's raw text.
type FieldChanged struct {
	Name  string
	Value string
}

// Submit asks for validation and classification.
type Submit struct{}

// Reset asks for the form to be restored to its defaults.
type Reset struct{}

func (FieldChanged) command() {}
func (Submit) command()       {}
func (Reset) command()        {}

// Dispatch executes cmd. Results reach the presentation layer through state
// subscriptions and notifications; the returned error is informational.
func (c *Controller) Dispatch(ctx context.Context, cmd Command) error {
	switch m := cmd.(type) {
	case FieldChanged:
		return c.SetField(m.Name, m.Value)
	case Submit:
		_, err := c.Submit(ctx)
		return err
	case Reset:
		return c.Reset()
	default:
		return fmt.Errorf("unknown command %T", cmd)
	}
}
