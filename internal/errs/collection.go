package errs

import (
	"strings"

	"github.com/pkg/errors"
)

const delimiter = "; "

// Collection gathers several errors and reports them as one.
type Collection struct {
	list []error
}

// Add appends err; nil is ignored.
func (c *Collection) Add(err error) {
	if err != nil {
		c.list = append(c.list, err)
	}
}

// Len returns the number of collected errors.
func (c *Collection) Len() int { return len(c.list) }

// Errors returns the collected errors in insertion order.
func (c *Collection) Errors() []error { return c.list }

// ErrIfAny returns nil when nothing was collected, otherwise a single error
// whose message joins every collected message.
func (c *Collection) ErrIfAny() error {
	if len(c.list) == 0 {
		return nil
	}
	msgs := make([]string, len(c.list))
	for i, err := range c.list {
		msgs[i] = err.Error()
	}
	return errors.New(strings.Join(msgs, delimiter))
}
