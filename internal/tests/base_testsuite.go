package tests

import (
	"context"
	"testing"

	profilev1 "github.com/antinvestor/apis/go/profile/v1"
	profilev1_mocks "github.com/antinvestor/apis/go/profile/v1_mocks"
	"github.com/pitabwire/frame/frametests"
	"github.com/pitabwire/frame/frametests/definition"
	"github.com/pitabwire/frame/frametests/deps/testpostgres"
	"github.com/pitabwire/util"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	DefaultRandomStringLength = 8
)

type BaseTestSuite struct {
	frametests.FrameBaseTestSuite
}

func initResources(_ context.Context) []definition.TestResource {
	pg := testpostgres.NewWithOpts("service_file_movement", definition.WithUserName("ant"), definition.WithPassword("s3cr3t"))
	resources := []definition.TestResource{pg}
	return resources
}

func (bs *BaseTestSuite) SetupSuite() {
	bs.InitResourceFunc = initResources
	bs.FrameBaseTestSuite.SetupSuite()
}

// GetProfileCli returns a profile service that knows only the given ids.
func (bs *BaseTestSuite) GetProfileCli(_ context.Context, knownIDs ...string) profilev1.ProfileServiceClient {

	t := bs.T()

	known := make(map[string]bool, len(knownIDs))
	for _, id := range knownIDs {
		known[id] = true
	}

	ctrl := gomock.NewController(t)
	mockProfileService := profilev1_mocks.NewMockProfileServiceClient(ctrl)
	mockProfileService.EXPECT().
		GetById(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *profilev1.GetByIdRequest, _ ...grpc.CallOption) (*profilev1.GetByIdResponse, error) {
			if !known[req.GetId()] {
				return nil, status.Error(codes.NotFound, "profile not found")
			}
			return &profilev1.GetByIdResponse{Data: &profilev1.ProfileObject{Id: req.GetId()}}, nil
		}).AnyTimes()

	return mockProfileService
}

func (bs *BaseTestSuite) TearDownSuite() {
	bs.FrameBaseTestSuite.TearDownSuite()
}

// WithTestDependancies Creates subtests with each known DependancyOption.
func (bs *BaseTestSuite) WithTestDependancies(t *testing.T, testFn func(t *testing.T, dep *definition.DependancyOption)) {
	options := []*definition.DependancyOption{
		definition.NewDependancyOption("default", util.RandomString(DefaultRandomStringLength), bs.Resources()),
	}

	frametests.WithTestDependancies(t, options, testFn)
}
