package seed_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/havelihousing/backoffice"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/seed"
	"github.com/havelihousing/backoffice/store/memory"
	"github.com/havelihousing/backoffice/types"
)

func newEngine(t *testing.T) *backoffice.Engine {
	t.Helper()
	ctx := context.Background()
	e := backoffice.New(memory.New(),
		backoffice.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		backoffice.WithBcryptCost(bcrypt.MinCost),
	)
	require.NoError(t, e.Start(ctx))
	t.Cleanup(func() { _ = e.Stop(ctx) })
	return e
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sum, err := seed.Run(ctx, e, logger)
	require.NoError(t, err)
	assert.Equal(t, seed.Summary{Users: 2, Properties: 5, Employees: 1, Bookings: 1}, sum)

	props, err := e.ListProperties(ctx, property.ListOpts{})
	require.NoError(t, err)
	assert.EqualValues(t, 5, props.Pagination.TotalCount)

	for _, a := range seed.Accounts {
		u, err := e.Authenticate(ctx, a.Email, seed.DefaultPassword)
		require.NoError(t, err, a.Email)
		assert.Equal(t, a.Name, u.Name)
	}

	clients, err := e.ListClients(ctx, client.ListOpts{})
	require.NoError(t, err)
	require.Len(t, clients.Items, 1)
	c := clients.Items[0]
	assert.Equal(t, "Amit Sharma", c.Name)
	assert.Equal(t, client.StatusOngoing, c.Status)
	assert.True(t, c.Payment.Remaining.Equal(types.Rupees(100000)), c.Payment.Remaining.String())
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := seed.Run(ctx, e, logger)
	require.NoError(t, err)

	sum, err := seed.Run(ctx, e, logger)
	require.NoError(t, err)
	assert.Equal(t, seed.Summary{Skipped: 9}, sum)

	props, err := e.ListProperties(ctx, property.ListOpts{})
	require.NoError(t, err)
	assert.EqualValues(t, 5, props.Pagination.TotalCount)

	clients, err := e.ListClients(ctx, client.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, clients.Items, 1)
}

func TestCatalogCopies(t *testing.T) {
	a, b := seed.Properties(), seed.Properties()
	a[0].Name = "changed"
	assert.Equal(t, "VRB Sparkle", b[0].Name)
}
