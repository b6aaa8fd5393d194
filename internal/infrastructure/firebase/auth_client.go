package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// claimUserID carries the platform user id when the Firebase uid differs.
const claimUserID = "userId"

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// VerifyToken returns the raw subject of an ID token: the userId claim when
// present, the Firebase uid otherwise.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (interface{}, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if v, ok := result.Claims[claimUserID]; ok && v != nil {
		return v, nil
	}
	return result.UID, nil
}
