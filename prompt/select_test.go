package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/mmmorris1975/aws-ec2/instance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePages struct {
	pages   [][]instance.Instance
	fetched int
	err     error
}

func (p *fakePages) HasMorePages() bool {
	return p.fetched < len(p.pages)
}

func (p *fakePages) NextPage(_ context.Context) ([]instance.Instance, error) {
	if p.err != nil {
		return nil, p.err
	}
	page := p.pages[p.fetched]
	p.fetched++
	return page, nil
}

// scriptedChooser answers each prompt with the next value in answers, and records the options it was shown.
type scriptedChooser struct {
	answers []string
	shown   [][]Option
}

func (c *scriptedChooser) ChooseOne(_ context.Context, _ string, options []Option) (string, error) {
	c.shown = append(c.shown, options)
	if len(c.shown) > len(c.answers) {
		return "", ErrCancelled
	}
	return c.answers[len(c.shown)-1], nil
}

func labels(options []Option) []string {
	l := make([]string, len(options))
	for i, o := range options {
		l[i] = o.Label
	}
	return l
}

func inst(id, label string) instance.Instance {
	return instance.Instance{ID: id, Label: label}
}

func TestSelectInstance(t *testing.T) {
	pages := &fakePages{pages: [][]instance.Instance{
		{inst("i-00000001", "i-00000001 (web0)"), inst("i-00000002", "i-00000002")},
		{inst("i-00000003", "i-00000003 (db0)")},
	}}
	c := &scriptedChooser{answers: []string{ChoiceMore, "i-00000003"}}

	id, err := SelectInstance(context.Background(), pages, c, "Choose an instance", false)
	require.NoError(t, err)
	assert.Equal(t, "i-00000003", id)

	require.Len(t, c.shown, 2)
	assert.Equal(t, []string{"i-00000001 (web0)", "i-00000002", "More", "Cancel"}, labels(c.shown[0]))
	assert.Equal(t, []string{"i-00000003 (db0)", "Cancel"}, labels(c.shown[1]))
}

func TestSelectInstance_StopsEarly(t *testing.T) {
	pages := &fakePages{pages: [][]instance.Instance{
		{inst("i-00000001", "i-00000001")},
		{inst("i-00000002", "i-00000002")},
	}}

	id, err := SelectInstance(context.Background(), pages, &scriptedChooser{answers: []string{"i-00000001"}}, "Choose", false)
	require.NoError(t, err)
	assert.Equal(t, "i-00000001", id)
	assert.Equal(t, 1, pages.fetched)
}

func TestSelectInstance_None(t *testing.T) {
	pages := &fakePages{pages: [][]instance.Instance{{inst("i-00000001", "i-00000001")}}}
	c := &scriptedChooser{answers: []string{ChoiceNone}}

	id, err := SelectInstance(context.Background(), pages, c, "Choose bastion host", true)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Equal(t, []string{"i-00000001", "None", "Cancel"}, labels(c.shown[0]))
}

func TestSelectInstance_Cancel(t *testing.T) {
	pages := &fakePages{pages: [][]instance.Instance{{inst("i-00000001", "i-00000001")}}}

	_, err := SelectInstance(context.Background(), pages, &scriptedChooser{answers: []string{ChoiceCancel}}, "Choose", false)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestSelectInstance_NoInstances(t *testing.T) {
	pages := &fakePages{pages: [][]instance.Instance{{}}}
	c := new(scriptedChooser)

	_, err := SelectInstance(context.Background(), pages, c, "Choose", false)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Empty(t, c.shown, "nothing to choose from, no prompt is shown")
}

func TestSelectInstance_NoInstancesWithNone(t *testing.T) {
	pages := &fakePages{pages: [][]instance.Instance{{}}}
	c := &scriptedChooser{answers: []string{ChoiceNone}}

	id, err := SelectInstance(context.Background(), pages, c, "Choose bastion host", true)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Equal(t, []string{"None", "Cancel"}, labels(c.shown[0]))
}

func TestSelectInstance_EmptyPageWithMore(t *testing.T) {
	pages := &fakePages{pages: [][]instance.Instance{{}, {inst("i-00000009", "i-00000009")}}}
	c := &scriptedChooser{answers: []string{ChoiceMore, "i-00000009"}}

	id, err := SelectInstance(context.Background(), pages, c, "Choose", false)
	require.NoError(t, err)
	assert.Equal(t, "i-00000009", id)
	assert.Equal(t, []string{"More", "Cancel"}, labels(c.shown[0]))
}

func TestSelectInstance_ProviderError(t *testing.T) {
	cause := &instance.ProviderError{Op: "describe instances", Err: errors.New("throttled")}
	pages := &fakePages{pages: [][]instance.Instance{{}}, err: cause}

	_, err := SelectInstance(context.Background(), pages, new(scriptedChooser), "Choose", false)
	assert.ErrorIs(t, err, cause)
}

func TestPageSize(t *testing.T) {
	assert.Equal(t, 7, PageSize(true))
	assert.Equal(t, 8, PageSize(false))
}
