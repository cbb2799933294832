package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type namedJob string

func (n namedJob) Name() string              { return string(n) }
func (n namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndDropsDuplicates(t *testing.T) {
	r := NewRegistry(namedJob("drive-sync"), nil, namedJob("notification-cleanup"), namedJob("drive-sync"))
	require.Equal(t, []string{"drive-sync", "notification-cleanup"}, r.Names())

	jobs := r.Jobs()
	jobs[0] = nil
	require.NotNil(t, r.Jobs()[0], "Jobs must return a copy")
}
