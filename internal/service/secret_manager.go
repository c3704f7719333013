package service

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretManagerService reads provider credentials stored in Google Secret Manager.
type SecretManagerService interface {
	AccessSecret(ctx context.Context, name string) (string, error)
	Close() error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretManagerService creates a Secret Manager client. Short names such as
// "openai-key" are expanded against projectID; fully qualified names are used as is.
func NewSecretManagerService(ctx context.Context, projectID string, opts ...option.ClientOption) (SecretManagerService, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &secretManagerService{client: client, projectID: projectID}, nil
}

func (s *secretManagerService) AccessSecret(ctx context.Context, name string) (string, error) {
	resourceName := secretVersionName(s.projectID, name)
	if resourceName == "" {
		return "", fmt.Errorf("secret %q has no project and GCP_PROJECT_ID is not set", name)
	}
	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version %s: %w", resourceName, err)
	}
	return string(result.Payload.Data), nil
}

func (s *secretManagerService) Close() error {
	return s.client.Close()
}

func secretVersionName(projectID, name string) string {
	if strings.HasPrefix(name, "projects/") {
		if !strings.Contains(name, "/versions/") {
			return name + "/versions/latest"
		}
		return name
	}
	if projectID == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, name)
}
