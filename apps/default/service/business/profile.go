package business

import (
	"context"

	profilev1 "github.com/antinvestor/apis/go/profile/v1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type profileVerifier struct {
	client profilev1.ProfileServiceClient
}

func NewProfileVerifier(client profilev1.ProfileServiceClient) ProfileVerifier {
	return &profileVerifier{client: client}
}

func (pv *profileVerifier) Exists(ctx context.Context, profileID string) (bool, error) {
	resp, err := pv.client.GetById(ctx, &profilev1.GetByIdRequest{Id: profileID})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	return resp.GetData() != nil, nil
}
