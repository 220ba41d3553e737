package tests

import (
	"context"
	"testing"

	"github.com/antinvestor/service-filemovement/apps/default/config"
	"github.com/antinvestor/service-filemovement/apps/default/service/events"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage/repository"
	internaltests "github.com/antinvestor/service-filemovement/internal/tests"
	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/frametests"
	"github.com/pitabwire/frame/frametests/definition"
	"github.com/stretchr/testify/require"
)

type BaseTestSuite struct {
	internaltests.BaseTestSuite
}

func (bs *BaseTestSuite) CreateService(
	t *testing.T,
	depOpts *definition.DependancyOption,
) (*frame.Service, context.Context) {

	ctx := t.Context()
	movementConfig, err := frame.ConfigFromEnv[config.MovementConfig]()
	require.NoError(t, err)

	movementConfig.LogLevel = "debug"
	movementConfig.RunServiceSecurely = false
	movementConfig.ServerPort = ""

	res := depOpts.ByIsDatabase(ctx)
	testDS, cleanup, err0 := res.GetRandomisedDS(ctx, depOpts.Prefix())
	require.NoError(t, err0)

	t.Cleanup(func() {
		cleanup(ctx)
	})

	movementConfig.DatabasePrimaryURL = []string{testDS.String()}
	movementConfig.DatabaseReplicaURL = []string{testDS.String()}

	ctx, svc := frame.NewServiceWithContext(ctx, "file movement tests",
		frame.WithConfig(&movementConfig),
		frame.WithDatastore(),
		frametests.WithNoopDriver())

	svc.Init(ctx,
		frame.WithRegisterEvents(events.NewFileHolderChangedHandler(svc, movementConfig.QueueHolderChangedName)),
		frame.WithRegisterPublisher(movementConfig.QueueHolderChangedName, movementConfig.QueueHolderChangedURL))

	err = repository.Migrate(ctx, svc, "../../migrations/0001")
	require.NoError(t, err)

	err = svc.Run(ctx, "")
	require.NoError(t, err)

	return svc, ctx
}
