package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	secretmanager "google.golang.org/api/secretmanager/v1"
)

// CredentialsFromSecret fetches a service-account JSON payload from Secret
// Manager. name is the full version resource name, e.g.
// "projects/my-project/secrets/vision-service-account/versions/1".
// Called once at startup; the returned bytes are reused for the lifetime of
// the process.
func CredentialsFromSecret(name string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	svc, err := secretmanager.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}

	resp, err := svc.Projects.Secrets.Versions.Access(name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("accessing secret %s: %w", name, err)
	}
	if resp.Payload == nil {
		return nil, fmt.Errorf("secret %s has no payload", name)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding secret payload: %w", err)
	}
	return data, nil
}
