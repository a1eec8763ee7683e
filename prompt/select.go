// Package prompt asks the operator to pick instances and fill in profile settings.
package prompt

import (
	"context"
	"errors"

	"github.com/mmmorris1975/aws-ec2/instance"
)

// ErrCancelled is returned when the operator cancels a prompt
var ErrCancelled = errors.New("cancelled")

// values of the options which are not instances
const (
	ChoiceMore   = "\x00more"
	ChoiceNone   = "\x00none"
	ChoiceCancel = "\x00cancel"
)

// Option is a single entry in a list of choices.
type Option struct {
	Label string
	Value string
}

// Chooser asks the operator to pick one of the options, returning its Value.  ErrCancelled is returned if
// the operator aborts the prompt.
type Chooser interface {
	ChooseOne(ctx context.Context, title string, options []Option) (string, error)
}

// Pages is a lazily fetched sequence of pages of instances.
type Pages interface {
	HasMorePages() bool
	NextPage(ctx context.Context) ([]instance.Instance, error)
}

// PageSize returns the number of instances to fetch per page, leaving room for the extra None choice.
func PageSize(includeNone bool) int {
	if includeNone {
		return 7
	}
	return 8
}

// SelectInstance shows the instances one page at a time, and returns the ID of the chosen instance.  The
// operator can move on to the next page with More, and stop with Cancel.  When includeNone is true, the
// operator can also choose None, which returns an empty ID.
func SelectInstance(ctx context.Context, pages Pages, c Chooser, title string, includeNone bool) (string, error) {
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return "", err
		}

		options := make([]Option, 0, len(page)+3)
		for _, i := range page {
			options = append(options, Option{Label: i.Label, Value: i.ID})
		}

		if pages.HasMorePages() {
			options = append(options, Option{Label: "More", Value: ChoiceMore})
		}
		if includeNone {
			options = append(options, Option{Label: "None", Value: ChoiceNone})
		}

		// nothing to choose from, the only possible answer is Cancel
		if len(options) == 0 {
			return "", ErrCancelled
		}
		options = append(options, Option{Label: "Cancel", Value: ChoiceCancel})

		answer, err := c.ChooseOne(ctx, title, options)
		if err != nil {
			return "", err
		}

		switch answer {
		case ChoiceMore:
			continue
		case ChoiceNone:
			return "", nil
		case ChoiceCancel:
			return "", ErrCancelled
		default:
			return answer, nil
		}
	}

	return "", ErrCancelled
}
